// Package summary compresses a set of registers belonging to an epoch
// into verifiable summary registers, one per group chosen by a
// pluggable strategy (spec §4.6).
package summary

import "github.com/timewave-computer/causality-sub001/core/resource"

// GroupKey identifies one group a strategy partitions registers into.
type GroupKey string

// Strategy groups a set of registers and optionally generates
// informative content text for the resulting summary register.
type Strategy interface {
	Name() string
	GroupKey(r *resource.Register) GroupKey
	// Content produces the summary register's informative contents for a
	// group; the manager stores the result as returned, nil included. The
	// built-in strategies (and CustomStrategy without a content function)
	// return the strategy name, the key and the member count.
	Content(key GroupKey, members []*resource.Register) []byte
}

// baseContent is the default informative content for a group, shared by
// every built-in strategy.
func baseContent(strategyName string, key GroupKey, members []*resource.Register) []byte {
	return []byte(strategyName + ":" + string(key) + " (" + itoa(len(members)) + " registers)")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// resourceBasedStrategy groups registers by domain.
type resourceBasedStrategy struct{}

// NewResourceBasedStrategy groups registers by domain (spec §4.6
// "Resource-based: group by domain").
func NewResourceBasedStrategy() Strategy { return resourceBasedStrategy{} }

func (resourceBasedStrategy) Name() string { return "resource_based" }
func (resourceBasedStrategy) GroupKey(r *resource.Register) GroupKey {
	return GroupKey(r.Domain)
}
func (s resourceBasedStrategy) Content(key GroupKey, members []*resource.Register) []byte {
	return baseContent(s.Name(), key, members)
}

// accountBasedStrategy groups registers by owner address.
type accountBasedStrategy struct{}

// NewAccountBasedStrategy groups registers by owner (spec §4.6
// "Account-based: group by owner address").
func NewAccountBasedStrategy() Strategy { return accountBasedStrategy{} }

func (accountBasedStrategy) Name() string { return "account_based" }
func (accountBasedStrategy) GroupKey(r *resource.Register) GroupKey {
	return GroupKey(r.Owner)
}
func (s accountBasedStrategy) Content(key GroupKey, members []*resource.Register) []byte {
	return baseContent(s.Name(), key, members)
}

// typeBasedStrategy groups registers by their metadata.content_type.
type typeBasedStrategy struct{}

// NewTypeBasedStrategy groups registers by metadata["content_type"]
// (spec §4.6 "Type-based: group by metadata.content_type").
func NewTypeBasedStrategy() Strategy { return typeBasedStrategy{} }

func (typeBasedStrategy) Name() string { return "type_based" }
func (typeBasedStrategy) GroupKey(r *resource.Register) GroupKey {
	if r.Metadata == nil {
		return ""
	}
	return GroupKey(r.Metadata["content_type"])
}
func (s typeBasedStrategy) Content(key GroupKey, members []*resource.Register) []byte {
	return baseContent(s.Name(), key, members)
}

// CustomStrategy lets the caller supply its own grouping function and,
// optionally, its own content generator (spec §4.6 "Custom: caller
// provides a grouping function and (optionally) a content generator").
type CustomStrategy struct {
	name      string
	groupFn   func(r *resource.Register) GroupKey
	contentFn func(key GroupKey, members []*resource.Register) []byte
}

// NewCustomStrategy constructs a CustomStrategy. contentFn may be nil, in
// which case the default informative content is used.
func NewCustomStrategy(name string, groupFn func(r *resource.Register) GroupKey, contentFn func(GroupKey, []*resource.Register) []byte) *CustomStrategy {
	return &CustomStrategy{name: name, groupFn: groupFn, contentFn: contentFn}
}

func (s *CustomStrategy) Name() string { return s.name }
func (s *CustomStrategy) GroupKey(r *resource.Register) GroupKey {
	return s.groupFn(r)
}
func (s *CustomStrategy) Content(key GroupKey, members []*resource.Register) []byte {
	if s.contentFn != nil {
		return s.contentFn(key, members)
	}
	return baseContent(s.name, key, members)
}
