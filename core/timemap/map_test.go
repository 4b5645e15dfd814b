package timemap

import (
	"testing"
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

func TestUpdateMonotonicityRejectsStaleEntry(t *testing.T) {
	m := New(time.Minute)
	now := time.Now().UTC()

	if !m.Update("d1", Entry{Height: 10, Timestamp: now}) {
		t.Fatalf("expected first update to apply")
	}
	if m.Update("d1", Entry{Height: 5, Timestamp: now.Add(time.Hour)}) {
		t.Fatalf("expected lower-height update to be rejected")
	}
	if !m.Update("d1", Entry{Height: 11, Timestamp: now}) {
		t.Fatalf("expected higher-height update to apply")
	}
	got, _ := m.Get("d1")
	if got.Height != 11 {
		t.Fatalf("got height %d, want 11", got.Height)
	}
}

func TestMergeAppliesMonotonicityPerDomain(t *testing.T) {
	now := time.Now().UTC()
	a := New(time.Minute)
	a.Update("d1", Entry{Height: 5, Timestamp: now})

	b := New(time.Minute)
	b.Update("d1", Entry{Height: 10, Timestamp: now})
	b.Update("d2", Entry{Height: 1, Timestamp: now})

	a.Merge(b)
	got1, _ := a.Get("d1")
	got2, _ := a.Get("d2")
	if got1.Height != 10 || got2.Height != 1 {
		t.Fatalf("merge did not apply monotonicity: d1=%v d2=%v", got1, got2)
	}
}

func TestSubsetAndFilter(t *testing.T) {
	now := time.Now().UTC()
	m := New(time.Minute)
	m.Update("d1", Entry{Height: 1, Timestamp: now, Verified: true})
	m.Update("d2", Entry{Height: 2, Timestamp: now, Verified: false})

	sub := m.Subset([]resource.DomainID{"d1"})
	if _, ok := sub.Get("d1"); !ok {
		t.Fatalf("expected d1 in subset")
	}
	if _, ok := sub.Get("d2"); ok {
		t.Fatalf("did not expect d2 in subset")
	}

	verified := m.VerifiedOnly()
	if _, ok := verified.Get("d2"); ok {
		t.Fatalf("verified_only must exclude unverified entries")
	}
}

func TestQueryByTimeUsesIndex(t *testing.T) {
	base := time.Now().UTC()
	m := New(time.Second)
	m.Update("d1", Entry{Height: 1, Timestamp: base})
	m.Update("d2", Entry{Height: 1, Timestamp: base.Add(time.Hour)})

	results := m.QueryByTime(Window{From: base.Add(-time.Minute), To: base.Add(time.Minute)})
	if len(results) != 1 || results[0].Domain != "d1" {
		t.Fatalf("unexpected query results: %+v", results)
	}
}

func TestFindSynchronizedGroupsCloseDomains(t *testing.T) {
	base := time.Now().UTC()
	m := New(time.Minute)
	m.Update("d1", Entry{Height: 1, Timestamp: base})
	m.Update("d2", Entry{Height: 1, Timestamp: base.Add(2 * time.Second)})
	m.Update("d3", Entry{Height: 1, Timestamp: base.Add(time.Hour)})

	groups := m.FindSynchronized(5)
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("expected one synchronized group of 2, got %+v", groups)
	}
}

func TestCausalPrecedenceAndCone(t *testing.T) {
	now := time.Now().UTC()
	m := New(time.Minute)
	m.Update("d1", Entry{Height: 1, Timestamp: now})

	p1 := CreatePoint(m, "d1", Entry{Timestamp: now})
	m.Update("d2", Entry{Height: 1, Timestamp: now.Add(time.Second)})
	p2 := CreatePoint(m, "d2", Entry{Timestamp: now.Add(time.Second)})

	if !CausallyPrecedes(p1, p2) {
		t.Fatalf("expected p1 to causally precede p2")
	}
	if CausallyPrecedes(p2, p1) {
		t.Fatalf("did not expect p2 to precede p1")
	}
	if ConcurrentWith(p1, p2) {
		t.Fatalf("p1 and p2 should not be concurrent")
	}

	cone := CausalCone([]Point{p1, p2}, p2)
	if len(cone) != 1 || cone[0].Domain != "d1" {
		t.Fatalf("unexpected causal cone: %+v", cone)
	}
}

func TestHistoryAtTimestamp(t *testing.T) {
	m := New(time.Minute)
	h := NewHistory(4)

	m.Update("d1", Entry{Height: 1, Timestamp: time.Now().UTC()})
	h.Record(m)
	mid := time.Now().UTC()

	m.Update("d1", Entry{Height: 2, Timestamp: time.Now().UTC()})
	h.Record(m)

	snap := h.AtTimestamp(mid)
	if snap == nil {
		t.Fatalf("expected a snapshot at or before mid")
	}
	got, _ := snap.Get("d1")
	if got.Height != 1 {
		t.Fatalf("expected snapshot height 1, got %d", got.Height)
	}
}
