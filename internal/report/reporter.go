package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ortholab/orthoreport/internal/config"
)

// inputSource is the read-only contract the pipeline needs from the input
// databases. *InputStore is the production implementation.
type inputSource interface {
	SpeciesID(name string) (int, error)
	SetID(name string) (int, error)
	ReferenceTaxa(setID int) ([]string, error)
	AaseqByGene(setID int) (map[string][]int, error)
	StreamCandidates(speciesID, setID int, minScore float64, minLen int, fn func(HmmSearchCandidate) error) error
	BlastResults(hmmsearchID, limit int) ([]BlastResult, error)
	RefTaxonName(aaseqID int) (string, error)
	EstSequence(headerBase string) (string, error)
	AaSequence(aaseqID int) (string, int, error)
	TaxonName(taxID int) (string, error)
	CoreSequences(geneID, seqType string) ([]CoreSequence, error)
}

// ReporterKit carries one run's session state: configuration, the stores
// and the resolved set metadata. It is created at startup and dropped on
// exit.
type ReporterKit struct {
	Conf    *config.Config
	Input   inputSource
	Working *WorkingStore
	EstIdx  *EstIndex

	// Tools overrides the external program runner; nil means the real one.
	Tools orfTools

	SpeciesID     int
	SetID         int
	ReferenceTaxa []string
	AaseqByGene   map[string][]int
}

// Reporter drives the staged pipeline.
type Reporter struct {
	conf *config.Config
}

// New returns a reporter for the given configuration.
func New(conf *config.Config) *Reporter {
	return &Reporter{conf: conf}
}

// Process runs the full pipeline: extraction, the two overlap filters, the
// BRH summaries, frameshift correction and the sequence files.
func (r *Reporter) Process(ctx context.Context) error {
	if err := r.prepare(); err != nil {
		return err
	}

	logfile := r.conf.Logfile
	if logfile == "" {
		logfile = "orthoreport.log"
	}
	if err := AddLogFile(filepath.Join(r.conf.OutputDir, "log", logfile)); err != nil {
		rlog.Warnf("Unable to open log file: %v", err)
	}

	kit, err := r.initialize()
	if err != nil {
		return err
	}
	defer func() {
		if store, ok := kit.Input.(*InputStore); ok {
			store.Close()
		}
		if kit.EstIdx != nil {
			kit.EstIdx.Close()
		}
	}()

	stats, err := NewStats(r.conf.OutputDir)
	if err != nil {
		return err
	}
	defer stats.Close()

	if err := ExtractReciprocalHits(kit, stats); err != nil {
		return fmt.Errorf("extract reciprocal hits: %w", err)
	}
	rlog.Infof("Extracted %d reciprocal hits.", kit.Working.Len())

	if r.conf.EnableEnvOverlap {
		CheckEnvPseudoMaster(kit, stats)
	}

	if r.conf.EnableHmmOverlap {
		CheckHmmOverlap(kit, stats)
	}

	if err := SaveBrhFiles(kit, stats); err != nil {
		return fmt.Errorf("save brh files: %w", err)
	}

	if !r.conf.BrhOnly {
		if err := RunFrameshiftCorrection(ctx, kit, stats); err != nil {
			return fmt.Errorf("frameshift correction: %w", err)
		}

		if err := SaveSequenceFiles(kit); err != nil {
			return fmt.Errorf("save sequence files: %w", err)
		}
	}

	if err := stats.WriteSummary(kit.Working.HitsByGeneCount()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := stats.WriteReport(); err != nil {
		return err
	}

	return nil
}

// prepare creates the output directory layout.
func (r *Reporter) prepare() error {
	conf := r.conf

	dirs := []string{conf.OutputDir, filepath.Join(conf.OutputDir, "log")}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create directory at %s: %w", dir, err)
		}
	}

	for _, sub := range []string{"aa", "nt"} {
		dir := filepath.Join(conf.OutputDir, sub)
		if conf.ClearFiles {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("unable to remove directory at %s: %w", dir, err)
			}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create directory at %s: %w", dir, err)
		}
	}

	return nil
}

// initialize connects the stores and resolves the run's set metadata.
func (r *Reporter) initialize() (*ReporterKit, error) {
	conf := r.conf

	input, err := OpenInputStore(conf.ReporterDBPath(), conf.SqliteDatabase, conf.TablePrefix)
	if err != nil {
		return nil, err
	}

	speciesID, err := input.SpeciesID(conf.SpeciesName)
	if err != nil {
		return nil, fmt.Errorf("unable to determine id# for species %s: %w", conf.SpeciesName, err)
	}
	rlog.Infof("Got species id# %d for species name %s", speciesID, conf.SpeciesName)

	setID, err := input.SetID(conf.OrthologSet)
	if err != nil {
		return nil, fmt.Errorf("unable to determine id# for set %s: %w", conf.OrthologSet, err)
	}
	rlog.Infof("Got set id# %d for set name %s", setID, conf.OrthologSet)

	refTaxa := conf.ReferenceTaxaList()
	if len(refTaxa) == 0 {
		refTaxa, err = input.ReferenceTaxa(setID)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve reference taxa: %w", err)
		}
	}
	rlog.Infof("Obtained %d reference taxa to use.", len(refTaxa))

	aaseq, err := input.AaseqByGene(setID)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve aa sequences within set: %w", err)
	}
	rlog.Infof("Obtained total of %d genes with aa sequences for reporting.", len(aaseq))

	var estIdx *EstIndex
	if conf.EstIndex != "" {
		estIdx, err = OpenEstIndex(conf.EstIndex)
		if err != nil {
			return nil, err
		}
		rlog.Infof("Opened transcript index at %s", conf.EstIndex)
	}

	return &ReporterKit{
		Conf:          conf,
		Input:         input,
		Working:       NewWorkingStore(),
		EstIdx:        estIdx,
		SpeciesID:     speciesID,
		SetID:         setID,
		ReferenceTaxa: refTaxa,
		AaseqByGene:   aaseq,
	}, nil
}
