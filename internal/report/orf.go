package report

import (
	"context"
	"fmt"

	"github.com/ortholab/orthoreport/internal/config"
)

// orfResult is one hit's outcome of the frameshift stage. A nil Orf means
// the hit is discarded.
type orfResult struct {
	hitID int
	orf   *OrfTranscript
	taxID int

	geneID     string
	headerBase string
	revcomp    bool
	translate  int
}

// RunFrameshiftCorrection computes an ORF for every surviving hit. The
// hits run through a bounded worker pool; each worker drives exonerate and
// the translate tool and hands its result back for serial application.
func RunFrameshiftCorrection(ctx context.Context, kit *ReporterKit, stats *Stats) error {
	conf := kit.Conf

	tools := kit.Tools
	if tools == nil {
		tools = &toolRunner{
			exoneratePath:  conf.ExonerateProgram,
			translatePath:  conf.TranslateProgram,
			scoreThreshold: int(conf.HmmsearchScoreThreshold),
			timeout:        conf.ExternalToolTimeout,
		}
	}

	// enrich hits with their sequences before fanning out
	hits := kit.Working.HitsByID()
	var ready []*Hit
	var failed []*Hit
	for _, hit := range hits {
		if err := loadHitSequences(kit, hit); err != nil {
			rlog.Warnf("Unable to prepare sequences for hmm search id# %d, hdr %s, gene %s: %v",
				hit.HmmsearchID, hit.HeaderBase, hit.GeneID, err)
			failed = append(failed, hit)
			continue
		}
		ready = append(ready, hit)
	}

	results := mapGroups(conf.NumThreads, ready, func(hit *Hit) orfResult {
		return processHit(ctx, conf, tools, hit)
	})

	for _, hit := range failed {
		stats.DiscardNonOrf(kit.Working, hit.ID, hit.GeneID, hit.HeaderBase, hit.HeaderRevcomp, hit.HeaderTranslate)
	}

	for _, res := range results {
		if res.orf == nil {
			stats.DiscardNonOrf(kit.Working, res.hitID, res.geneID, res.headerBase, res.revcomp, res.translate)
			continue
		}
		orf := *res.orf
		orf.HitID = res.hitID
		orf.TaxID = res.taxID
		if err := kit.Working.InsertOrf(orf); err != nil {
			return fmt.Errorf("insert orf: %w", err)
		}
	}

	return nil
}

// loadHitSequences pulls the transcript, its codon window and the
// reference protein into the hit. The reference taxon id overrides the
// search's own, matching how downstream headers name taxa.
func loadHitSequences(kit *ReporterKit, hit *Hit) error {
	est, err := estSequence(kit, hit.HeaderBase)
	if err != nil {
		return err
	}
	if hit.HeaderRevcomp {
		est = reverseComplement(est)
	}
	hit.EstSequence = est

	hmmSeq, err := estToHmm(est, hit.AliStart, hit.AliEnd)
	if err != nil {
		return err
	}
	hit.HmmSequence = hmmSeq

	aaSeq, taxID, err := kit.Input.AaSequence(hit.BlastTarget)
	if err != nil {
		return err
	}
	hit.AaSequence = aaSeq
	hit.TaxID = taxID

	return nil
}

// estSequence prefers the key-value transcript index when one is
// configured and falls back to the relational store.
func estSequence(kit *ReporterKit, headerBase string) (string, error) {
	if kit.EstIdx != nil {
		seq, ok, err := kit.EstIdx.Sequence(headerBase)
		if err != nil {
			return "", err
		}
		if ok {
			return seq, nil
		}
	}
	return kit.Input.EstSequence(headerBase)
}

func processHit(ctx context.Context, conf *config.Config, tools orfTools, hit *Hit) orfResult {
	res := orfResult{
		hitID:      hit.ID,
		geneID:     hit.GeneID,
		headerBase: hit.HeaderBase,
		revcomp:    hit.HeaderRevcomp,
		translate:  hit.HeaderTranslate,
	}

	initial, err := generateOrf(ctx, conf, tools, hit, false)
	if err != nil || initial == nil {
		rlog.Warnf("Unable to generate orf for hmm search id# %d, hdr %s, gene %s, skipping transcript: %v",
			hit.HmmsearchID, hit.HeaderBase, hit.GeneID, err)
		return res
	}

	orf := initial
	if ext := generateExtendedOrf(ctx, conf, tools, hit, initial); ext != nil {
		orf = ext
	}

	res.orf = orf
	res.taxID = hit.TaxID
	return res
}

// generateOrf produces the corrected ORF for a hit. With frameshift
// correction off, a synthetic ORF is derived from the raw alignment
// coordinates. The extended form aligns against the full transcript
// instead of the codon window.
func generateOrf(ctx context.Context, conf *config.Config, tools orfTools, hit *Hit, extended bool) (*OrfTranscript, error) {
	if !conf.FrameshiftCorrection {
		return &OrfTranscript{
			HitID:               hit.ID,
			TranslatedSeq:       hit.NonOrfSequence,
			CdnaSeq:             hit.HmmSequence,
			CdnaStart:           (hit.AliStart - 1) * 3,
			CdnaEnd:             (hit.AliStart-1)*3 + (hit.AliEnd-hit.AliStart+1)*3,
			AaStart:             hit.AliStart,
			AaEnd:               hit.AliEnd,
			CdnaStartTranscript: (hit.AliStart - 1) * 3,
			CdnaEndTranscript:   (hit.AliStart-1)*3 + (hit.AliEnd-hit.AliStart+1)*3,
			AaStartTranscript:   hit.AliStart,
			AaEndTranscript:     hit.AliEnd,
			AaStartHmm:          hit.HmmStart,
			AaEndHmm:            hit.HmmEnd,
		}, nil
	}

	target := hit.HmmSequence
	if extended {
		target = hit.EstSequence
	}

	fasta, err := tools.exonerate(ctx, hit.AaSequence, target)
	if err != nil {
		return nil, err
	}

	cdna, ok := fasta["cdna1"]
	if !ok {
		return nil, fmt.Errorf("exonerate produced no cdna record")
	}
	aa, ok := fasta["aa2"]
	if !ok {
		return nil, fmt.Errorf("exonerate produced no aa record")
	}

	translated, err := tools.translate(ctx, cdna.Sequence)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	// the frame offset shifting window coordinates onto the transcript
	frame := hit.AliStart*3 - 3

	orf := &OrfTranscript{
		HitID:               hit.ID,
		TranslatedSeq:       translated,
		CdnaSeq:             cdna.Sequence,
		CdnaStart:           cdna.CoordStart + 1,
		CdnaEnd:             cdna.CoordEnd,
		AaStart:             aa.CoordStart,
		AaEnd:               aa.CoordEnd,
		CdnaStartTranscript: cdna.CoordStart + 1 + frame,
		CdnaEndTranscript:   cdna.CoordEnd + frame,
		AaStartHmm:          hit.HmmStart + cdna.CoordStart + frame/3,
		AaEndHmm:            hit.HmmStart + (cdna.CoordEnd+frame)/3,
	}
	if extended {
		orf.AaStartTranscript = cdna.CoordStart/3 + 1
		orf.AaEndTranscript = cdna.CoordEnd/3 + 1
	} else {
		orf.AaStartTranscript = cdna.CoordStart + frame/3
		orf.AaEndTranscript = (cdna.CoordEnd + (hit.AliStart+1)*3 - 3) / 3
	}

	return orf, nil
}

// generateExtendedOrf re-runs the alignment against the full transcript
// and accepts the result only when it contains the initial cDNA interval,
// overlaps the alignment window, and covers enough of itself with that
// window. Any failure reverts to the initial ORF.
func generateExtendedOrf(ctx context.Context, conf *config.Config, tools orfTools, hit *Hit, orf *OrfTranscript) *OrfTranscript {
	if !conf.ExtendOrf {
		return nil
	}

	ext, err := generateOrf(ctx, conf, tools, hit, true)
	if err != nil || ext == nil {
		rlog.Warnf("Did not receive valid extended orf for hmmsearch id# %d, gene %s, using original orf: %v",
			hit.HmmsearchID, hit.GeneID, err)
		return nil
	}

	// the extension must consume the initial orf
	if ext.CdnaStart > orf.CdnaStartTranscript || ext.CdnaEnd < orf.CdnaEndTranscript {
		rlog.Warnf("Extended orf does not consume initial for hmm search id# %d, gene %s, (ext coords: %d-%d, initial coords: %d-%d), reverting to initial orf.",
			hit.HmmsearchID, hit.GeneID, ext.CdnaStart, ext.CdnaEnd, orf.CdnaStartTranscript, orf.CdnaEndTranscript)
		return nil
	}

	if ext.CdnaStart > orf.CdnaEndTranscript || ext.CdnaEnd < orf.CdnaStartTranscript {
		rlog.Warnf("Extended orf does not contain any overlap for hmm search id# %d, gene %s, reverting to initial orf.",
			hit.HmmsearchID, hit.GeneID)
		return nil
	}
	if ext.AaStartTranscript > hit.AliEnd || ext.AaEndTranscript < hit.AliStart {
		rlog.Warnf("Extended orf does not contain any overlap for hmm search id# %d, gene %s, reverting to initial orf.",
			hit.HmmsearchID, hit.GeneID)
		return nil
	}

	overlapStart := hit.AliStart
	if ext.AaStartTranscript > hit.AliStart {
		overlapStart = ext.AaStartTranscript
	}
	overlapEnd := hit.AliEnd
	if ext.AaEndTranscript < hit.AliEnd {
		overlapEnd = ext.AaEndTranscript
	}

	percent := float64(overlapEnd-overlapStart) / float64(ext.AaEndTranscript-ext.AaStartTranscript)
	if percent < conf.OrfOverlapMinimum {
		rlog.Warnf("Orf only overlaps extended orf by %v percent on hmm search id# %d, gene %s, reverting to initial orf",
			percent, hit.HmmsearchID, hit.GeneID)
		return nil
	}

	rlog.Infof("Found valid extended orf for hmm search id# %d, gene %s, (ext coords: %d-%d, initial coords: %d-%d), using instead of initial orf.",
		hit.HmmsearchID, hit.GeneID, ext.CdnaStart, ext.CdnaEnd, orf.CdnaStartTranscript, orf.CdnaEndTranscript)

	return ext
}
