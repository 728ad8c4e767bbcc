package report

import (
	"golang.org/x/exp/slices"
)

// envAction is a single decision of the env pseudo-master filter. Workers
// produce actions; the coordinator applies them in order.
type envAction struct {
	hit    *Hit
	reason string
}

// envDecision is everything one header-base group decided: a master
// coordinate extension (when changed) and the discards.
type envDecision struct {
	headerBase string

	masterID int
	envStart *int
	envEnd   *int

	discards []envAction
}

// CheckEnvPseudoMaster resolves transcripts generating candidates on more
// than one gene. Per base header, the best-scoring hit is the master; its
// env span is extended over the group, same-gene duplicates are dropped,
// and cross-gene hits are dropped when they overlap the master's span and
// score far enough below it. A group whose overlap falls under the
// threshold is discarded whole.
func CheckEnvPseudoMaster(kit *ReporterKit, stats *Stats) {
	groups := kit.Working.RankByHeaderBase()

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	decisions := mapGroups(kit.Conf.NumThreads, keys, func(key string) envDecision {
		return processEnvGroup(kit, groups[key])
	})

	for _, d := range decisions {
		if d.envStart != nil || d.envEnd != nil {
			if err := kit.Working.UpdateHitEnv(d.masterID, d.envStart, d.envEnd); err != nil {
				rlog.Fatalf("Unable to update env coords on master during env overlap check: %v", err)
			}
		}
		for _, a := range d.discards {
			// a hit may appear twice when a miniscule group collapses
			if _, ok := kit.Working.Hit(a.hit.ID); !ok {
				continue
			}
			switch a.reason {
			case reasonEnvPseudoMaster:
				stats.DiscardEnvPseudoMaster(kit.Working, a.hit)
			default:
				stats.DiscardEnvOverlap(kit.Working, a.hit)
			}
		}
	}
}

func processEnvGroup(kit *ReporterKit, candidates []*Hit) envDecision {
	conf := kit.Conf
	master := candidates[0]
	d := envDecision{headerBase: master.HeaderBase, masterID: master.ID}

	rlog.Infof("Checking master-pseudo for base header %s, gene %s which has %d child transcripts with the same base header.",
		master.HeaderBase, master.GeneID, len(candidates)-1)

	masterStart, masterEnd := extendMasterCoords(master, candidates, conf.EnvExtendCompat)
	if masterStart != master.EnvStart || masterEnd != master.EnvEnd {
		if masterStart > 0 && masterStart < master.EnvStart {
			start := masterStart
			d.envStart = &start
		}
		if masterEnd > master.EnvEnd {
			end := masterEnd
			d.envEnd = &end
		}
	}

	isMiniscule := false
	for _, cand := range candidates {
		if cand.ID == master.ID {
			continue
		}

		// the master's own gene keeps only the master
		if cand.GeneID == master.GeneID {
			d.discards = append(d.discards, envAction{hit: cand, reason: reasonEnvPseudoMaster})
			continue
		}

		percent, ok := overlapFraction(masterStart, masterEnd+1, cand.EnvStart, cand.EnvEnd+1, true)
		if !ok {
			continue
		}

		if float64(percent) < conf.EnvOverlapThreshold {
			isMiniscule = true
			break
		}

		if master.Score/cand.Score >= conf.EnvScoreDiscardThreshold {
			rlog.Warnf("child transcript of base header %s in gene %s has overlap of %v and score of %v, discarding transcript.",
				cand.HeaderBase, cand.GeneID, percent, cand.Score)
			d.discards = append(d.discards, envAction{hit: cand, reason: reasonEnvOverlap})
		} else {
			rlog.Infof("Transcript hdr %s in gene %s only overlaps master by %v percent, keeping transcript.",
				cand.HeaderBase, cand.GeneID, percent)
		}
	}

	if isMiniscule {
		for _, cand := range candidates {
			d.discards = append(d.discards, envAction{hit: cand, reason: reasonEnvOverlap})
		}
	}

	return d
}

// extendMasterCoords widens the master's env span over its group. The
// compat comparator extends the end whenever a child's end exceeds the
// running start, the behavior earlier pipeline versions shipped with.
// Both policies are evaluated and a divergence between them is logged,
// whichever one is in effect.
func extendMasterCoords(master *Hit, children []*Hit, compat bool) (start, end int) {
	start = master.EnvStart
	strictEnd, compatEnd := master.EnvEnd, master.EnvEnd

	for _, c := range children {
		if c.EnvStart < start {
			start = c.EnvStart
		}
		if c.EnvEnd > strictEnd {
			strictEnd = c.EnvEnd
		}
		if c.EnvEnd > start {
			compatEnd = c.EnvEnd
		}
	}

	if compatEnd != strictEnd {
		rlog.Warnf("env master extension for %s differs between comparator policies (compat %d, strict %d)",
			master.HeaderBase, compatEnd, strictEnd)
	}

	if compat {
		return start, compatEnd
	}
	return start, strictEnd
}
