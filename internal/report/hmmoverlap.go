package report

import (
	"golang.org/x/exp/slices"
)

// CheckHmmOverlap drops, within each gene, lower-ranked hits whose HMM
// span is covered by a clearly better-scoring hit on a different
// transcript.
func CheckHmmOverlap(kit *ReporterKit, stats *Stats) {
	groups := kit.Working.RankByGene()

	genes := make([]string, 0, len(groups))
	for gene := range groups {
		genes = append(genes, gene)
	}
	slices.Sort(genes)

	discards := mapGroups(kit.Conf.NumThreads, genes, func(gene string) []*Hit {
		return processHmmGroup(kit, groups[gene])
	})

	for _, group := range discards {
		for _, hit := range group {
			stats.DiscardHmmOverlap(kit.Working, hit)
		}
	}
}

// processHmmGroup walks one gene's hits from best to worst. Each survivor
// in turn measures every hit ranked below it; a lower hit on another
// transcript is discarded when the spans overlap enough and the score gap
// is wide enough.
func processHmmGroup(kit *ReporterKit, candidates []*Hit) []*Hit {
	conf := kit.Conf

	discarded := make(map[int]bool)
	var discards []*Hit

	for i, hitA := range candidates {
		if discarded[hitA.ID] {
			continue
		}

		for _, hitB := range candidates[i+1:] {
			if discarded[hitB.ID] || hitA.HeaderBase == hitB.HeaderBase {
				continue
			}

			percent, ok := overlapFraction(
				hitA.HmmStart, hitA.HmmEnd+1,
				hitB.HmmStart, hitB.HmmEnd+1,
				false,
			)
			if !ok {
				continue
			}

			if float64(percent) < conf.HmmOverlapThreshold {
				continue
			}

			// too close in score to discard
			if hitA.Score/hitB.Score < conf.HmmScoreDiscardThreshold {
				continue
			}

			discards = append(discards, hitB)
			discarded[hitB.ID] = true

			rlog.Warnf("Discarding hmm search %d, gene %s, header %s as it has %v percent overlap with master",
				hitB.HmmsearchID, hitB.GeneID, hitB.HeaderBase, percent)
		}
	}

	return discards
}
