package timemap

import (
	"sort"
	"sync"
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Window is an inclusive [From, To] time range used by the range-query
// family.
type Window struct {
	From time.Time
	To   time.Time
}

// Map is the shared, causal time map: one Entry per domain, merged under
// the monotonicity rule, with single-writer / concurrent-reader
// discipline per version (spec §4.5 "Concurrency").
type Map struct {
	mu        sync.RWMutex
	entries   map[resource.DomainID]Entry
	version   uint64
	index     *Index
	notifiers []Notifier
}

// New constructs an empty time map. bucketSize configures the
// construction-time bucketed index granularity.
func New(bucketSize time.Duration) *Map {
	return &Map{
		entries: make(map[resource.DomainID]Entry),
		index:   NewIndex(bucketSize),
	}
}

// Version returns the current write version.
func (m *Map) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Update inserts or upgrades domain's entry under the monotonicity rule,
// bumping the map version on any actual change, and firing notifiers
// fire-and-forget (spec §4.5 "update(domain, entry)").
func (m *Map) Update(domain resource.DomainID, entry Entry) bool {
	m.mu.Lock()
	current, exists := m.entries[domain]
	if exists && !newer(current, entry) {
		m.mu.Unlock()
		return false
	}
	entry.Domain = domain
	m.entries[domain] = entry
	m.version++
	m.index.Rebuild(m.entries)
	snapshot := m.cloneLocked()
	notifiers := append([]Notifier(nil), m.notifiers...)
	m.mu.Unlock()

	m.notifyAll(snapshot, notifiers)
	return true
}

// Get returns domain's current entry.
func (m *Map) Get(domain resource.DomainID) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[domain]
	return e, ok
}

// GetHeight, GetHash and GetTimestamp are convenience projections of Get.
func (m *Map) GetHeight(domain resource.DomainID) (uint64, bool) {
	e, ok := m.Get(domain)
	return e.Height, ok
}

func (m *Map) GetHash(domain resource.DomainID) (string, bool) {
	e, ok := m.Get(domain)
	return e.Hash, ok
}

func (m *Map) GetTimestamp(domain resource.DomainID) (time.Time, bool) {
	e, ok := m.Get(domain)
	return e.Timestamp, ok
}

// Merge applies other's entries into m under the monotonicity rule,
// domain by domain (spec §4.5 "merge(other)").
func (m *Map) Merge(other *Map) {
	other.mu.RLock()
	entries := make([]Entry, 0, len(other.entries))
	for _, e := range other.entries {
		entries = append(entries, e)
	}
	other.mu.RUnlock()

	for _, e := range entries {
		m.Update(e.Domain, e)
	}
}

func (m *Map) cloneLocked() *Map {
	clone := New(m.index.bucketSize)
	for d, e := range m.entries {
		clone.entries[d] = e
	}
	clone.version = m.version
	clone.index.Rebuild(clone.entries)
	return clone
}

// snapshotEntries returns a defensive copy of every current entry.
func (m *Map) snapshotEntries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Subset returns a new map containing only the named domains (spec §4.5
// "subset(domains)").
func (m *Map) Subset(domains []resource.DomainID) *Map {
	want := make(map[resource.DomainID]bool, len(domains))
	for _, d := range domains {
		want[d] = true
	}
	return m.Filter(func(e Entry) bool { return want[e.Domain] })
}

// Filter returns a new map containing only entries for which pred
// returns true (spec §4.5 "filter(pred)").
func (m *Map) Filter(pred func(Entry) bool) *Map {
	out := New(m.index.bucketSize)
	for _, e := range m.snapshotEntries() {
		if pred(e) {
			out.Update(e.Domain, e)
		}
	}
	return out
}

// VerifiedOnly returns a new map containing only verified entries (spec
// §4.5 "verified_only()").
func (m *Map) VerifiedOnly() *Map {
	return m.Filter(func(e Entry) bool { return e.Verified })
}

// RecentOnly returns a new map containing only entries no older than
// minutes (spec §4.5 "recent_only(minutes)").
func (m *Map) RecentOnly(minutes int) *Map {
	cutoff := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute)
	return m.Filter(func(e Entry) bool { return e.Timestamp.After(cutoff) })
}

// QueryWindows returns every entry whose timestamp falls in any of the
// given windows (spec §4.5 "query_windows(range)").
func (m *Map) QueryWindows(windows []Window) []Entry {
	var out []Entry
	for _, w := range windows {
		out = append(out, m.QueryByTime(w)...)
	}
	return out
}

// QueryByTime returns every entry whose timestamp falls within w, using
// the bucketed index (spec §4.5 "query_by_time(range)").
func (m *Map) QueryByTime(w Window) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, d := range m.index.QueryRange(w.From, w.To) {
		if e, ok := m.entries[d]; ok && !e.Timestamp.Before(w.From) && !e.Timestamp.After(w.To) {
			out = append(out, e)
		}
	}
	return out
}

// QueryBefore returns every entry strictly before ts.
func (m *Map) QueryBefore(ts time.Time) []Entry {
	return m.Filter(func(e Entry) bool { return e.Timestamp.Before(ts) }).snapshotEntries()
}

// QueryAfter returns every entry strictly after ts.
func (m *Map) QueryAfter(ts time.Time) []Entry {
	return m.Filter(func(e Entry) bool { return e.Timestamp.After(ts) }).snapshotEntries()
}

// FindSynchronized groups domains whose timestamps fall within
// toleranceSeconds of one another, returning each such group (spec §4.5
// "find_synchronized(tolerance_seconds)").
func (m *Map) FindSynchronized(toleranceSeconds int) [][]resource.DomainID {
	entries := m.snapshotEntries()
	sortByTimestamp(entries)

	tol := time.Duration(toleranceSeconds) * time.Second
	var groups [][]resource.DomainID
	var current []resource.DomainID
	var groupStart time.Time
	for _, e := range entries {
		if len(current) == 0 {
			current = []resource.DomainID{e.Domain}
			groupStart = e.Timestamp
			continue
		}
		if e.Timestamp.Sub(groupStart) <= tol {
			current = append(current, e.Domain)
			continue
		}
		if len(current) > 1 {
			groups = append(groups, current)
		}
		current = []resource.DomainID{e.Domain}
		groupStart = e.Timestamp
	}
	if len(current) > 1 {
		groups = append(groups, current)
	}
	return groups
}

func sortByTimestamp(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
}
