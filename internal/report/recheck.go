package report

import (
	"fmt"
	"os"

	"github.com/ortholab/orthoreport/internal/config"
)

// Recheck re-runs the reciprocal BLAST validation for a single HMM search
// against the set's protein database and prints the ranked hits with the
// checker's verdict. It exists to debug single transcripts without
// re-running the bulk driver.
func Recheck(conf *config.Config, hmmsearchID int) error {
	input, err := OpenInputStore(conf.ReporterDBPath(), conf.SqliteDatabase, conf.TablePrefix)
	if err != nil {
		return err
	}
	defer input.Close()

	cand, err := input.CandidateByID(hmmsearchID)
	if err != nil {
		return err
	}

	hits, err := RunBlast(conf, cand.Digest, cand.NonOrfSequence)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "hmm search id# %d, gene %s, header %s: %d blast hits\n",
		cand.HmmID, cand.GeneID, cand.Header, len(hits))
	for i, h := range hits {
		fmt.Fprintf(os.Stdout, "%4d  %s  score=%v  evalue=%s  %d-%d\n",
			i+1, h.Target, h.Score, h.Evalue, h.Start, h.End)
	}

	setID, err := input.SetID(conf.OrthologSet)
	if err != nil {
		return err
	}
	refTaxa := conf.ReferenceTaxaList()
	if len(refTaxa) == 0 {
		if refTaxa, err = input.ReferenceTaxa(setID); err != nil {
			return err
		}
	}
	aaseq, err := input.AaseqByGene(setID)
	if err != nil {
		return err
	}

	kit := &ReporterKit{
		Conf:          conf,
		Input:         input,
		Working:       NewWorkingStore(),
		SetID:         setID,
		ReferenceTaxa: refTaxa,
		AaseqByGene:   aaseq,
	}

	accept, err := checkReciprocal(kit, &cand)
	if err != nil {
		return err
	}
	if accept == nil {
		fmt.Fprintln(os.Stdout, "verdict: not a reciprocal hit")
	} else {
		fmt.Fprintf(os.Stdout, "verdict: reciprocal hit via target %d (%d-%d)\n",
			accept.Target, accept.Start, accept.End)
	}

	return nil
}
