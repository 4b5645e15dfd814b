package log

import (
	"sort"
	"sync"

	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Index maintains the four lookup structures entries are queried
// through (spec §4.7 "Indexes"): by id (O(1)), by timestamp bucket
// (range queries), by entry type, and by domain.
type Index struct {
	mu sync.RWMutex

	byHash      map[content.ID]int
	byTimestamp map[int64][]int // bucket (ms) -> positions, kept sorted by bucket key
	tsBuckets   []int64
	byType      map[EntryType][]int
	byDomain    map[resource.DomainID][]int
}

// NewIndex constructs an empty index.
func NewIndex() *Index {
	return &Index{
		byHash:      make(map[content.ID]int),
		byTimestamp: make(map[int64][]int),
		byType:      make(map[EntryType][]int),
		byDomain:    make(map[resource.DomainID][]int),
	}
}

// Add records entry at position pos in the underlying store.
func (ix *Index) Add(entry Entry, pos int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.byHash[entry.ID] = pos

	bucket := entry.Timestamp.UnixMilli()
	if _, exists := ix.byTimestamp[bucket]; !exists {
		i := sort.Search(len(ix.tsBuckets), func(i int) bool { return ix.tsBuckets[i] >= bucket })
		ix.tsBuckets = append(ix.tsBuckets, 0)
		copy(ix.tsBuckets[i+1:], ix.tsBuckets[i:])
		ix.tsBuckets[i] = bucket
	}
	ix.byTimestamp[bucket] = append(ix.byTimestamp[bucket], pos)

	ix.byType[entry.Type] = append(ix.byType[entry.Type], pos)

	for _, d := range entry.Domains {
		ix.byDomain[d] = append(ix.byDomain[d], pos)
	}
}

// Position returns the store position for id (spec §4.7 "Hash index:
// id -> position (O(1))").
func (ix *Index) Position(id content.ID) (int, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	pos, ok := ix.byHash[id]
	return pos, ok
}

// TimeRange returns every position whose entry timestamp (in ms) falls
// within [fromMs, toMs].
func (ix *Index) TimeRange(fromMs, toMs int64) []int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	lo := sort.Search(len(ix.tsBuckets), func(i int) bool { return ix.tsBuckets[i] >= fromMs })
	var out []int
	for i := lo; i < len(ix.tsBuckets) && ix.tsBuckets[i] <= toMs; i++ {
		out = append(out, ix.byTimestamp[ix.tsBuckets[i]]...)
	}
	return out
}

// ByType returns every position recorded under t.
func (ix *Index) ByType(t EntryType) []int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]int, len(ix.byType[t]))
	copy(out, ix.byType[t])
	return out
}

// ByDomain returns every position recorded under domain.
func (ix *Index) ByDomain(domain resource.DomainID) []int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]int, len(ix.byDomain[domain]))
	copy(out, ix.byDomain[domain])
	return out
}
