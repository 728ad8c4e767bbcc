package report

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"golang.org/x/exp/slices"
)

// blastAccept is the winning BLAST row of a reciprocal check.
type blastAccept struct {
	Target int
	Start  int
	End    int
}

// ExtractReciprocalHits streams the HMM search candidates, keeps those the
// reciprocal check accepts and inserts them into the working store.
func ExtractReciprocalHits(kit *ReporterKit, stats *Stats) error {
	conf := kit.Conf

	return kit.Input.StreamCandidates(kit.SpeciesID, kit.SetID,
		conf.HmmsearchScoreThreshold, conf.MinTranscriptLength,
		func(cand HmmSearchCandidate) error {
			// Skip, if not in list of wanted genes
			if len(conf.WantedGenes) > 0 && !slices.Contains(conf.WantedGenes, cand.GeneID) {
				rlog.Warnf("Not in list of wanted genes, skipping %s", cand.GeneID)
				return nil
			}

			accept, err := checkReciprocal(kit, &cand)
			if err != nil {
				return err
			}
			if accept == nil {
				rlog.Warnf("No orthology detected for %s.", cand.GeneID)
				stats.AddNonReciprocal(&cand)
				return nil
			}

			rlog.Infof("Orthology detected for %s! Queueing for further checks: %s[%d:%d] to %s.",
				cand.GeneID, cand.Header, cand.HmmStart, cand.HmmEnd, cand.GeneID)

			base, revcomp, translate := TranslateHeader(cand.Header)

			hit := Hit{IsOverlap: true}
			if err := copier.Copy(&hit, &cand); err != nil {
				return fmt.Errorf("copy candidate fields: %w", err)
			}
			hit.HmmsearchID = cand.HmmID
			hit.BlastTarget = accept.Target
			hit.BlastStart = accept.Start
			hit.BlastEnd = accept.End
			hit.HeaderBase = strings.TrimRight(base, " ")
			hit.HeaderFull = strings.TrimRight(cand.Header, " ")
			hit.HeaderRevcomp = revcomp
			hit.HeaderTranslate = translate
			// env_end carries ali_end, as it always has; the env filter
			// downstream is calibrated to this
			hit.EnvEnd = cand.AliEnd

			kit.Working.InsertHit(hit)
			return nil
		})
}

// checkReciprocal walks a candidate's ranked BLAST results and decides
// orthology. A nil return with nil error means the candidate is not a
// reciprocal hit.
func checkReciprocal(kit *ReporterKit, cand *HmmSearchCandidate) (*blastAccept, error) {
	conf := kit.Conf

	rlog.Infof("Getting blast results for '%s' (hmm search id# %d, alignment score %v)",
		cand.Header, cand.HmmID, cand.Score)
	blasts, err := kit.Input.BlastResults(cand.HmmID, conf.MaxBlastHits)
	if err != nil {
		return nil, fmt.Errorf("obtain blast results for hmm search id# %d: %w", cand.HmmID, err)
	}

	if len(blasts) == 0 {
		rlog.Warnf("No blast results found for '%s' (gene '%s', hmm search id# %d), skipping.",
			cand.Header, cand.GeneID, cand.HmmID)
		return nil, nil
	}

	taxaSeen := make(map[string]bool)
	mismatches := 0

	for _, blast := range blasts {
		refTaxon, err := kit.Input.RefTaxonName(blast.Target)
		if err != nil {
			return nil, err
		}

		// a hit lands in the HMM when its target helped build the profile
		if !slices.Contains(kit.AaseqByGene[cand.GeneID], blast.Target) {
			mismatches++
			rlog.Warnf("    reciprocal hit %d (%s) not used in this HMM (mismatch #%d)",
				blast.Target, refTaxon, mismatches)
			if mismatches > conf.MaxReciprocalMismatches {
				rlog.Warnf("    Too many mismatches, we don't trust this one anymore.")
				return nil, nil
			}
			continue
		}

		rlog.Infof("    Reciprocal hit %d (%s) used in %s!", blast.Target, refTaxon, cand.GeneID)

		if !slices.Contains(kit.ReferenceTaxa, refTaxon) {
			rlog.Infof("'%s' not in reference taxon list, skipping", refTaxon)
			continue
		}

		// outside strict search a single reciprocal hit is enough
		if !conf.StrictSearch {
			return &blastAccept{Target: blast.Target, Start: blast.ResStart, End: blast.ResEnd}, nil
		}

		taxaSeen[refTaxon] = true
		if len(taxaSeen) >= len(kit.ReferenceTaxa) {
			return &blastAccept{Target: blast.Target, Start: blast.ResStart, End: blast.ResEnd}, nil
		}
	}

	return nil, nil
}
