package report

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
)

// Discard reasons recorded in the filtered-hits log.
const (
	reasonNonReciprocal   = "non-reciprocal"
	reasonEnvPseudoMaster = "env-pseudo-master"
	reasonEnvOverlap      = "env-overlap"
	reasonHmmOverlap      = "hmm-overlap"
	reasonNoOrf           = "no-orf-found"
)

// Stats owns the discard counters and the run's summary files. All writes
// happen on the coordinator; deleting a hit from the working store goes
// through Stats alone so every removal leaves a log line behind.
type Stats struct {
	nrhByGene map[string]int

	discardNonOrf          int
	discardHmmOverlap      int
	discardEnvPseudoMaster int
	discardEnvOverlap      int

	brh    *os.File
	nolap  *os.File
	sum    *os.File
	filter *os.File
	report *os.File
}

// NewStats opens the five summary files under the output directory.
func NewStats(outputDir string) (*Stats, error) {
	s := &Stats{nrhByGene: make(map[string]int)}

	files := []struct {
		name string
		dst  **os.File
	}{
		{"best-reciprocal-hits.txt", &s.brh},
		{"non-overlapping-best-reciprocal-hits.txt", &s.nolap},
		{"summary.txt", &s.sum},
		{"filtered-hits.txt", &s.filter},
		{"report.txt", &s.report},
	}
	for _, f := range files {
		fh, err := os.Create(filepath.Join(outputDir, f.name))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s for writing: %w", f.name, err)
		}
		*f.dst = fh
	}
	return s, nil
}

// Close closes every open summary file.
func (s *Stats) Close() (err error) {
	for _, fh := range []*os.File{s.brh, s.nolap, s.sum, s.filter, s.report} {
		if fh != nil {
			err = multierr.Append(err, fh.Close())
		}
	}
	return err
}

func writeHitLine(fh *os.File, h *Hit) error {
	_, err := fmt.Fprintf(fh, "%s\t%s\t%d\t%d\t%v\t%s\t%d\t%d\n",
		h.GeneID, h.HeaderFull, h.AliStart, h.AliEnd, h.Score, h.Evalue, h.HmmStart, h.HmmEnd)
	return err
}

// WriteBrh appends a hit to the best-reciprocal-hits file.
func (s *Stats) WriteBrh(h *Hit) error {
	return writeHitLine(s.brh, h)
}

// WriteNolap appends a hit to the non-overlapping-best-reciprocal-hits file.
func (s *Stats) WriteNolap(h *Hit) error {
	return writeHitLine(s.nolap, h)
}

func (s *Stats) writeFilteredHit(geneID, header string, revcomp bool, translate int, reason string) {
	decorated := FormatHeader(header, revcomp, translate)
	if _, err := fmt.Fprintf(s.filter, "%s,%s,%s\n", geneID, decorated, reason); err != nil {
		rlog.Fatalf("Unable to write to filtered-hits.txt file: %v", err)
	}
}

// AddNonReciprocal records a candidate for which no orthology was detected.
func (s *Stats) AddNonReciprocal(cand *HmmSearchCandidate) {
	s.nrhByGene[cand.GeneID]++
	s.writeFilteredHit(cand.GeneID, cand.Header, false, 0, reasonNonReciprocal)
}

func (s *Stats) deleteHit(ws *WorkingStore, hitID int) {
	ws.deleteHit(hitID)
}

// DiscardEnvPseudoMaster removes a hit duplicating its master's gene.
func (s *Stats) DiscardEnvPseudoMaster(ws *WorkingStore, h *Hit) {
	s.deleteHit(ws, h.ID)
	s.writeFilteredHit(h.GeneID, h.HeaderBase, h.HeaderRevcomp, h.HeaderTranslate, reasonEnvPseudoMaster)
	s.discardEnvPseudoMaster++
}

// DiscardEnvOverlap removes a hit rejected by the env overlap rules.
func (s *Stats) DiscardEnvOverlap(ws *WorkingStore, h *Hit) {
	s.deleteHit(ws, h.ID)
	s.writeFilteredHit(h.GeneID, h.HeaderBase, h.HeaderRevcomp, h.HeaderTranslate, reasonEnvOverlap)
	s.discardEnvOverlap++
}

// DiscardHmmOverlap removes a hit outcompeted on the HMM axis.
func (s *Stats) DiscardHmmOverlap(ws *WorkingStore, h *Hit) {
	s.deleteHit(ws, h.ID)
	s.writeFilteredHit(h.GeneID, h.HeaderBase, h.HeaderRevcomp, h.HeaderTranslate, reasonHmmOverlap)
	s.discardHmmOverlap++
}

// DiscardNonOrf removes a hit for which no ORF could be produced.
func (s *Stats) DiscardNonOrf(ws *WorkingStore, hitID int, geneID, headerBase string, revcomp bool, translate int) {
	s.deleteHit(ws, hitID)
	s.writeFilteredHit(geneID, headerBase, revcomp, translate, reasonNoOrf)
	s.discardNonOrf++
}

// WriteSummary records the per-gene accepted hit counts.
func (s *Stats) WriteSummary(counts map[string]int) error {
	genes := make([]string, 0, len(counts))
	for gene := range counts {
		genes = append(genes, gene)
	}
	slices.Sort(genes)
	for _, gene := range genes {
		if _, err := fmt.Fprintf(s.sum, "%s\t%d\n", gene, counts[gene]); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes the per-reason discard counts.
func (s *Stats) WriteReport() error {
	lines := []string{
		"\n-- Report --\n\n",
		fmt.Sprintf("Skipped Env Pseudo Master: %d\n", s.discardEnvPseudoMaster),
		fmt.Sprintf("Skipped Env Overlap: %d\n", s.discardEnvOverlap),
		fmt.Sprintf("Skipped Hmm Overlap: %d\n", s.discardHmmOverlap),
		fmt.Sprintf("Skipped No ORF: %d\n", s.discardNonOrf),
	}
	for _, line := range lines {
		if _, err := s.report.WriteString(line); err != nil {
			return fmt.Errorf("unable to write to report.txt file: %w", err)
		}
	}
	return nil
}
