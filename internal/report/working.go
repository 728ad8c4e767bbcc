package report

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// WorkingStore holds the mutable hits and orf working tables for one run.
// It is created per run and discarded at process exit. The coordinator is
// the only writer; the data-parallel stages read snapshots and hand their
// decisions back for serial application.
type WorkingStore struct {
	nextID int
	hits   map[int]*Hit
	orfs   map[int]*OrfTranscript
}

// NewWorkingStore returns an empty working store.
func NewWorkingStore() *WorkingStore {
	return &WorkingStore{
		nextID: 1,
		hits:   make(map[int]*Hit),
		orfs:   make(map[int]*OrfTranscript),
	}
}

// InsertHit stores a hit and assigns it the next id.
func (s *WorkingStore) InsertHit(h Hit) int {
	h.ID = s.nextID
	s.nextID++
	s.hits[h.ID] = &h
	return h.ID
}

// Hit returns the hit with the given id.
func (s *WorkingStore) Hit(id int) (*Hit, bool) {
	h, ok := s.hits[id]
	return h, ok
}

// UpdateHitEnv updates the env coordinates of a hit. Nil leaves a
// coordinate unchanged.
func (s *WorkingStore) UpdateHitEnv(id int, envStart, envEnd *int) error {
	h, ok := s.hits[id]
	if !ok {
		return fmt.Errorf("no hit with id %d", id)
	}
	if envStart != nil {
		h.EnvStart = *envStart
	}
	if envEnd != nil {
		h.EnvEnd = *envEnd
	}
	return nil
}

// UpdateHitOverlap flags whether the hit's ali span overlaps an earlier
// accepted region of the same transcript.
func (s *WorkingStore) UpdateHitOverlap(id int, overlap bool) error {
	h, ok := s.hits[id]
	if !ok {
		return fmt.Errorf("no hit with id %d", id)
	}
	h.IsOverlap = overlap
	return nil
}

// deleteHit removes a hit and any orf row referencing it. Callers outside
// this package go through Stats, which owns the discard bookkeeping.
func (s *WorkingStore) deleteHit(id int) {
	delete(s.hits, id)
	delete(s.orfs, id)
}

// InsertOrf stores the orf transcript for a surviving hit.
func (s *WorkingStore) InsertOrf(o OrfTranscript) error {
	if _, ok := s.hits[o.HitID]; !ok {
		return fmt.Errorf("orf references missing hit %d", o.HitID)
	}
	s.orfs[o.HitID] = &o
	return nil
}

// Orf returns the orf transcript for a hit.
func (s *WorkingStore) Orf(hitID int) (*OrfTranscript, bool) {
	o, ok := s.orfs[hitID]
	return o, ok
}

// Len returns the number of hits present.
func (s *WorkingStore) Len() int { return len(s.hits) }

// byScoreThenID orders score descending, ties by id ascending. Every rank
// window uses it so stage output is deterministic.
func byScoreThenID(a, b *Hit) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// RankByHeaderBase partitions hits by base header, each group ordered by
// score descending with ties broken by insertion order.
func (s *WorkingStore) RankByHeaderBase() map[string][]*Hit {
	groups := make(map[string][]*Hit)
	for _, h := range s.hits {
		groups[h.HeaderBase] = append(groups[h.HeaderBase], h)
	}
	for _, g := range groups {
		slices.SortFunc(g, byScoreThenID)
	}
	return groups
}

// RankByGene partitions hits by gene, each group ordered by score
// descending with ties broken by insertion order.
func (s *WorkingStore) RankByGene() map[string][]*Hit {
	groups := make(map[string][]*Hit)
	for _, h := range s.hits {
		groups[h.GeneID] = append(groups[h.GeneID], h)
	}
	for _, g := range groups {
		slices.SortFunc(g, byScoreThenID)
	}
	return groups
}

// HitsByID returns all hits ordered by id ascending.
func (s *WorkingStore) HitsByID() []*Hit {
	hits := make([]*Hit, 0, len(s.hits))
	for _, h := range s.hits {
		hits = append(hits, h)
	}
	slices.SortFunc(hits, func(a, b *Hit) int { return a.ID - b.ID })
	return hits
}

// HitsByScore returns all hits ordered by score descending, ties by id.
func (s *WorkingStore) HitsByScore() []*Hit {
	hits := make([]*Hit, 0, len(s.hits))
	for _, h := range s.hits {
		hits = append(hits, h)
	}
	slices.SortFunc(hits, byScoreThenID)
	return hits
}

// HitsByGeneCount counts surviving hits per gene.
func (s *WorkingStore) HitsByGeneCount() map[string]int {
	counts := make(map[string]int)
	for _, h := range s.hits {
		counts[h.GeneID]++
	}
	return counts
}

// HitsForGene returns the gene's hits ordered by id ascending.
func (s *WorkingStore) HitsForGene(geneID string) []*Hit {
	var hits []*Hit
	for _, h := range s.hits {
		if h.GeneID == geneID {
			hits = append(hits, h)
		}
	}
	slices.SortFunc(hits, func(a, b *Hit) int { return a.ID - b.ID })
	return hits
}

// Genes returns the distinct gene ids, sorted.
func (s *WorkingStore) Genes() []string {
	seen := make(map[string]bool)
	var genes []string
	for _, h := range s.hits {
		if !seen[h.GeneID] {
			seen[h.GeneID] = true
			genes = append(genes, h.GeneID)
		}
	}
	slices.Sort(genes)
	return genes
}
