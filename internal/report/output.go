package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveSequenceFiles writes the per-gene amino-acid and nucleotide FASTA
// files: the set's core reference sequences first, then every accepted hit
// long enough to report.
func SaveSequenceFiles(kit *ReporterKit) error {
	rlog.Info("Writing sequence files of all genes")

	for _, gene := range kit.Working.Genes() {
		if err := saveGene(kit, gene); err != nil {
			return err
		}
	}
	return nil
}

func saveGene(kit *ReporterKit, geneID string) (err error) {
	aaPath := filepath.Join(kit.Conf.OutputDir, "aa", geneID+".aa.fa")
	ntPath := filepath.Join(kit.Conf.OutputDir, "nt", geneID+".nt.fa")

	aa, err := os.Create(aaPath)
	if err != nil {
		return fmt.Errorf("unable to open file for writing, %s: %w", aaPath, err)
	}
	defer aa.Close()

	nt, err := os.Create(ntPath)
	if err != nil {
		return fmt.Errorf("unable to open file for writing, %s: %w", ntPath, err)
	}
	defer nt.Close()

	if err := writeCoreSequences(kit, geneID, aa, "aa"); err != nil {
		return err
	}
	if err := writeCoreSequences(kit, geneID, nt, "nt"); err != nil {
		return err
	}

	if err := writeHitSequences(kit, geneID, aa, "aa"); err != nil {
		return err
	}
	return writeHitSequences(kit, geneID, nt, "nt")
}

func writeCoreSequences(kit *ReporterKit, geneID string, fh *os.File, seqType string) error {
	seqs, err := kit.Input.CoreSequences(geneID, seqType)
	if err != nil {
		return err
	}

	sep := kit.Conf.HeaderSeparator
	for _, seq := range seqs {
		header := strings.Join([]string{
			seq.GeneID,
			seq.TaxaName,
			seq.Header,
			fmt.Sprintf("1-%d", len(seq.Sequence)),
			".",
			".",
		}, sep)
		if err := writeFastaRecord(fh, header, seq.Sequence); err != nil {
			return fmt.Errorf("unable to write to %s results file: %w", seqType, err)
		}
	}
	return nil
}

func writeHitSequences(kit *ReporterKit, geneID string, fh *os.File, seqType string) error {
	conf := kit.Conf
	sep := conf.HeaderSeparator

	// identical translations collapse to the first hit producing them
	seenTranslations := make(map[string]bool)

	for _, hit := range kit.Working.HitsForGene(geneID) {
		orf, ok := kit.Working.Orf(hit.ID)
		if !ok {
			continue
		}
		if len(orf.TranslatedSeq) < conf.MinTranscriptLength || len(orf.CdnaSeq) < conf.MinTranscriptLength {
			continue
		}
		if seenTranslations[orf.TranslatedSeq] {
			continue
		}
		seenTranslations[orf.TranslatedSeq] = true

		taxaName, err := kit.Input.TaxonName(orf.TaxID)
		if err != nil {
			return err
		}

		header := strings.Join([]string{
			hit.GeneID,
			conf.SpeciesName,
			hit.HeaderBase,
			fmt.Sprintf("%d-%d", orf.AaStartTranscript, orf.AaEndTranscript),
			readingFrame(hit.HeaderRevcomp, hit.HeaderTranslate, seqType),
			taxaName,
		}, sep)

		sequence := orf.CdnaSeq
		if seqType == "aa" {
			sequence = finishProtein(orf.TranslatedSeq, orf.AaStartTranscript, conf.FillWithX, conf.SubstituteUWith)
		}

		if err := writeFastaRecord(fh, header, sequence); err != nil {
			return fmt.Errorf("unable to write to %s results file: %w", seqType, err)
		}
	}
	return nil
}
