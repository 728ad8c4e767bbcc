package report

import (
	"github.com/biogo/store/interval"
)

// aliInterval is a hit's alignment span in a per-digest interval tree.
type aliInterval struct {
	uid        uintptr
	start, end int
}

func (i aliInterval) Overlap(b interval.IntRange) bool {
	return i.start < b.End && i.end > b.Start
}
func (i aliInterval) ID() uintptr { return i.uid }
func (i aliInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// regionTree tracks the alignment spans already accepted per transcript
// digest, a nested containment structure with logarithmic overlap queries.
type regionTree struct {
	trees map[string]*interval.IntTree
	next  uintptr
}

func newRegionTree() *regionTree {
	return &regionTree{trees: make(map[string]*interval.IntTree)}
}

// mappedBefore reports whether [start, end) overlaps a span already added
// for the digest.
func (r *regionTree) mappedBefore(digest string, start, end int) bool {
	tree, ok := r.trees[digest]
	if !ok {
		return false
	}
	return len(tree.Get(aliInterval{start: start, end: end})) > 0
}

// add records [start, end) for the digest.
func (r *regionTree) add(digest string, start, end int) error {
	tree, ok := r.trees[digest]
	if !ok {
		tree = &interval.IntTree{}
		r.trees[digest] = tree
	}
	r.next++
	return tree.Insert(aliInterval{uid: r.next, start: start, end: end}, false)
}

// SaveBrhFiles writes every surviving hit to the best-reciprocal-hits file
// in score order, and to the non-overlapping variant when its alignment
// span does not overlap an earlier accepted region of the same transcript.
func SaveBrhFiles(kit *ReporterKit, stats *Stats) error {
	regions := newRegionTree()

	for _, hit := range kit.Working.HitsByScore() {
		if err := stats.WriteBrh(hit); err != nil {
			return err
		}

		if !regions.mappedBefore(hit.Digest, hit.AliStart, hit.AliEnd) {
			if err := kit.Working.UpdateHitOverlap(hit.ID, false); err != nil {
				return err
			}
			if err := stats.WriteNolap(hit); err != nil {
				return err
			}
		}

		if err := regions.add(hit.Digest, hit.AliStart, hit.AliEnd); err != nil {
			return err
		}
	}

	return nil
}
