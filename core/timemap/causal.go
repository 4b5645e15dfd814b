package timemap

import (
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Point is a causal point: one domain's entry together with the latest
// entry per every *other* domain known at the time it was created (spec
// §4.5 "create_point(domain, entry) captures the latest entry per other
// domain as preceding set").
type Point struct {
	Domain    resource.DomainID
	Timestamp time.Time
	Preceding map[resource.DomainID]time.Time
}

// CreatePoint builds a Point for (domain, entry) against m's current
// state.
func CreatePoint(m *Map, domain resource.DomainID, entry Entry) Point {
	preceding := make(map[resource.DomainID]time.Time)
	for _, e := range m.snapshotEntries() {
		if e.Domain == domain {
			continue
		}
		preceding[e.Domain] = e.Timestamp
	}
	return Point{Domain: domain, Timestamp: entry.Timestamp, Preceding: preceding}
}

// CausallyPrecedes reports whether a causally precedes b (spec §4.5
// "causally_precedes(a, b) holds iff a.domain=b.domain ∧ a.ts ≤ b.ts, or
// a.domain appears in b.preceding with a.ts ≤ preceding.ts").
func CausallyPrecedes(a, b Point) bool {
	if a.Domain == b.Domain {
		return !a.Timestamp.After(b.Timestamp)
	}
	if ts, ok := b.Preceding[a.Domain]; ok {
		return !a.Timestamp.After(ts)
	}
	return false
}

// ConcurrentWith is the symmetric negation of CausallyPrecedes in both
// directions (spec §4.5 "concurrent_with is the symmetric negation").
func ConcurrentWith(a, b Point) bool {
	return !CausallyPrecedes(a, b) && !CausallyPrecedes(b, a)
}

// CausalCone enumerates every point in points that causally precedes
// target via a breadth-first walk back through preceding sets (spec
// §4.5 "Causal cone: BFS back through preceding points"). The target
// itself is not part of its cone.
func CausalCone(points []Point, target Point) []Point {
	visited := make(map[int]bool)
	var cone []Point
	queue := []Point{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i, p := range points {
			if visited[i] || (p.Domain == target.Domain && p.Timestamp.Equal(target.Timestamp)) {
				continue
			}
			if CausallyPrecedes(p, cur) {
				visited[i] = true
				cone = append(cone, p)
				queue = append(queue, p)
			}
		}
	}
	return cone
}
