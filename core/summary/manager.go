package summary

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// systemAddress is the owner recorded on every summary register (spec
// §4.6 "owner=system-address").
const systemAddress = "system"

// Manager registers strategies and generates/verifies summaries. It is
// not safe for concurrent use on its own; Shared wraps it with a mutex
// for concurrent callers (spec §4.6 SUPPLEMENTED FEATURES,
// "SummaryManager/SharedSummaryManager split").
type Manager struct {
	strategies map[string]Strategy
	log        *logrus.Entry
}

// NewManager constructs a Manager with the three built-in strategies
// pre-registered.
func NewManager() *Manager {
	m := &Manager{
		strategies: make(map[string]Strategy),
		log:        logrus.WithField("component", "summary.manager"),
	}
	m.RegisterStrategy(NewResourceBasedStrategy())
	m.RegisterStrategy(NewAccountBasedStrategy())
	m.RegisterStrategy(NewTypeBasedStrategy())
	return m
}

// RegisterStrategy installs s under its own Name() (spec §4.6
// "register_strategy(s)").
func (m *Manager) RegisterStrategy(s Strategy) {
	m.strategies[s.Name()] = s
}

// GetStrategy looks up a strategy by name (spec §4.6 "get_strategy(name)").
func (m *Manager) GetStrategy(name string) (Strategy, bool) {
	s, ok := m.strategies[name]
	return s, ok
}

// summaryContentFields is hashed once to assign a summary register its
// content ID, mirroring resource.Register's own creation-time derivation.
type summaryContentFields struct {
	Domain     resource.DomainID
	GroupKey   GroupKey
	Strategy   string
	Epoch      uint64
	SummaryHash content.ID
}

// GenerateSummaries groups registers by strategyName and produces one
// immutable Summary-state register per non-empty group (spec §4.6
// "generate_summaries(registers, strategy_name, epoch, block_height) ->
// [Register]").
func (m *Manager) GenerateSummaries(registers []*resource.Register, strategyName string, epoch, blockHeight uint64) ([]*resource.Register, error) {
	strategy, ok := m.GetStrategy(strategyName)
	if !ok {
		return nil, fmt.Errorf("summary: unknown strategy %q", strategyName)
	}

	groups := make(map[GroupKey][]*resource.Register)
	var order []GroupKey
	for _, r := range registers {
		key := strategy.GroupKey(r)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	now := time.Now().UTC()
	var out []*resource.Register
	for _, key := range order {
		members := groups[key]
		if len(members) == 0 {
			continue
		}
		summarized := make([]content.ID, len(members))
		for i, r := range members {
			summarized[i] = r.ID
		}
		hash := computeHash(summarized, epoch, now)

		id, err := content.Derive(summaryContentFields{
			Domain: members[0].Domain, GroupKey: key, Strategy: strategyName, Epoch: epoch, SummaryHash: hash,
		})
		if err != nil {
			return nil, fmt.Errorf("summary: deriving summary id: %w", err)
		}

		record := Record{
			SummaryID:     id,
			SummarizedIDs: summarized,
			Epoch:         epoch,
			CreatedAt:     now,
			BlockHeight:   blockHeight,
			Domain:        members[0].Domain,
			SummaryHash:   hash,
		}

		reg := &resource.Register{
			ID:           id,
			Owner:        systemAddress,
			Domain:       members[0].Domain,
			Contents:     strategy.Content(key, members),
			State:        resource.StateSummary,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
			Metadata:     toMetadata(record, strategyName, key),
			Summarizes:   summarized,
		}
		out = append(out, reg)
		m.log.WithFields(logrus.Fields{"strategy": strategyName, "group": key, "members": len(members)}).Info("generated summary register")
	}
	return out, nil
}

// VerifySummary re-derives the summary record from summary's metadata
// and confirms it includes every ID in summarized (spec §4.6
// "verify_summary(summary, summarized) -> bool"). It re-derives the hash
// for tamper-evidence but, per the documented Open Question decision,
// does not fail verification on a content mismatch between summary's
// stored Contents and what the strategy would regenerate today — only
// the metadata-embedded record and coverage are authoritative.
func VerifySummary(summary *resource.Register, summarized []*resource.Register) (bool, error) {
	record, _, _, err := fromMetadata(summary.Metadata)
	if err != nil {
		return false, fmt.Errorf("summary: reconstructing record: %w", err)
	}

	wantHash := computeHash(record.SummarizedIDs, record.Epoch, record.CreatedAt)
	if wantHash != record.SummaryHash {
		return false, nil
	}

	have := make(map[content.ID]bool, len(record.SummarizedIDs))
	for _, id := range record.SummarizedIDs {
		have[id] = true
	}
	for _, r := range summarized {
		if !have[r.ID] {
			return false, nil
		}
	}
	return summary.State == resource.StateSummary, nil
}

// Shared wraps Manager with a mutex for concurrent callers (restored
// SummaryManager/SharedSummaryManager split).
type Shared struct {
	mu sync.Mutex
	m  *Manager
}

// NewShared wraps a fresh Manager for concurrent use.
func NewShared() *Shared {
	return &Shared{m: NewManager()}
}

func (s *Shared) RegisterStrategy(st Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.RegisterStrategy(st)
}

func (s *Shared) GetStrategy(name string) (Strategy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.GetStrategy(name)
}

func (s *Shared) GenerateSummaries(registers []*resource.Register, strategyName string, epoch, blockHeight uint64) ([]*resource.Register, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.GenerateSummaries(registers, strategyName, epoch, blockHeight)
}
