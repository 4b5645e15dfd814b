package timemap

import (
	"sort"
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Index buckets domain entries by timestamp so range queries run in
// O(log n + k) instead of scanning every domain (spec §4.5 "query_by_time
// and range queries use a bucketed index for O(log n + k) performance;
// bucket size is a construction parameter").
type Index struct {
	bucketSize time.Duration
	buckets    map[int64][]resource.DomainID
	order      []int64 // sorted bucket keys
}

// NewIndex constructs an index with the given bucket duration.
func NewIndex(bucketSize time.Duration) *Index {
	if bucketSize <= 0 {
		bucketSize = time.Minute
	}
	return &Index{bucketSize: bucketSize, buckets: make(map[int64][]resource.DomainID)}
}

func (ix *Index) bucketKey(ts time.Time) int64 {
	return ts.UnixNano() / int64(ix.bucketSize)
}

// Put records that domain now sits in the bucket containing ts. Callers
// are responsible for removing stale entries when a domain's timestamp
// changes (Rebuild does this in bulk).
func (ix *Index) Put(domain resource.DomainID, ts time.Time) {
	key := ix.bucketKey(ts)
	if _, exists := ix.buckets[key]; !exists {
		ix.order = append(ix.order, key)
		sort.Slice(ix.order, func(i, j int) bool { return ix.order[i] < ix.order[j] })
	}
	ix.buckets[key] = append(ix.buckets[key], domain)
}

// Rebuild clears and repopulates the index from the given entry set,
// called whenever the owning Map's entries mutate.
func (ix *Index) Rebuild(entries map[resource.DomainID]Entry) {
	ix.buckets = make(map[int64][]resource.DomainID, len(entries))
	ix.order = ix.order[:0]
	for domain, e := range entries {
		ix.Put(domain, e.Timestamp)
	}
}

// QueryRange returns every domain whose bucket falls within [from, to].
func (ix *Index) QueryRange(from, to time.Time) []resource.DomainID {
	lo, hi := ix.bucketKey(from), ix.bucketKey(to)
	var out []resource.DomainID
	i := sort.Search(len(ix.order), func(i int) bool { return ix.order[i] >= lo })
	for ; i < len(ix.order) && ix.order[i] <= hi; i++ {
		out = append(out, ix.buckets[ix.order[i]]...)
	}
	return out
}
