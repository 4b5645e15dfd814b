package resource

import (
	"sync"
	"time"

	"github.com/timewave-computer/causality-sub001/core/content"
)

// numShards is the number of content-ID shards the store is partitioned
// into. Readers of distinct shards never contend; writers to the same
// shard serialize through its lock (spec §4.2 "a sharded content-addressed
// map plus a per-domain write log; concurrent readers are allowed, writers
// serialize per shard").
const numShards = 32

type shard struct {
	mu        sync.RWMutex
	resources map[content.ID]*Resource
	registers map[content.ID]*Register
}

func newShard() *shard {
	return &shard{
		resources: make(map[content.ID]*Resource),
		registers: make(map[content.ID]*Register),
	}
}

// Store is the resource/register store: a sharded content-addressed map
// plus a global nullifier set and a per-domain append log of mutations.
type Store struct {
	shards [numShards]*shard

	nullMu      sync.Mutex
	nullifiers  map[content.ID]Nullifier

	logMu       sync.Mutex
	domainLog   map[DomainID][]string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	s := &Store{
		nullifiers: make(map[content.ID]Nullifier),
		domainLog:  make(map[DomainID][]string),
	}
	for i := range s.shards {
		s.shards[i] = newShard()
	}
	return s
}

func (s *Store) shardFor(id content.ID) *shard {
	// Low byte of the content hash is uniformly distributed; cheap and
	// avoids pulling in a hashing dependency just to pick a shard.
	return s.shards[id[0]%numShards]
}

func (s *Store) appendDomainLog(domain DomainID, entry string) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.domainLog[domain] = append(s.domainLog[domain], entry)
}

// DomainLog returns the append-only mutation log recorded for domain, in
// order.
func (s *Store) DomainLog(domain DomainID) []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	out := make([]string, len(s.domainLog[domain]))
	copy(out, s.domainLog[domain])
	return out
}

// ---------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------

// CreateResource inserts r under a content ID derived from its fields; any
// ID already set on r is overwritten.
// Fails with AlreadyExists on an ID collision.
func (s *Store) CreateResource(r *Resource) (content.ID, error) {
	id, err := r.DeriveID()
	if err != nil {
		return content.Zero, err
	}
	r.ID = id

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.resources[id]; exists {
		return content.Zero, alreadyExists("resource " + id.String())
	}
	sh.resources[id] = r
	s.appendDomainLog(r.Domain, "create_resource:"+id.String())
	return id, nil
}

// GetResource looks up a resource by ID.
func (s *Store) GetResource(id content.ID) (*Resource, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.resources[id]
	if !ok {
		return nil, notFound("resource " + id.String())
	}
	return r, nil
}

// Nullify consumes a resource, emitting its nullifier. Returns
// NullifierAlreadyConsumed if the resource was already nullified (spec
// invariant "Nullifier uniqueness").
func (s *Store) Nullify(id content.ID) error {
	if _, err := s.GetResource(id); err != nil {
		return err
	}
	s.nullMu.Lock()
	defer s.nullMu.Unlock()
	if _, already := s.nullifiers[id]; already {
		return nullifierAlreadyConsumed(id.String())
	}
	s.nullifiers[id] = Nullifier{ResourceID: id, NullifiedAt: time.Now().UTC()}
	return nil
}

// IsNullified reports whether id has already been nullified.
func (s *Store) IsNullified(id content.ID) bool {
	s.nullMu.Lock()
	defer s.nullMu.Unlock()
	_, ok := s.nullifiers[id]
	return ok
}

// ---------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------

// CreateRegister allocates and inserts a new Active register.
func (s *Store) CreateRegister(owner string, domain DomainID, contents []byte, metadata map[string]string) (*Register, error) {
	r, err := NewRegister(owner, domain, contents, metadata)
	if err != nil {
		return nil, err
	}
	sh := s.shardFor(r.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.registers[r.ID]; exists {
		return nil, alreadyExists("register " + r.ID.String())
	}
	sh.registers[r.ID] = r
	s.appendDomainLog(domain, "create_register:"+r.ID.String())
	return r, nil
}

// GetRegister looks up a register by ID.
func (s *Store) GetRegister(id content.ID) (*Register, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.registers[id]
	if !ok {
		return nil, notFound("register " + id.String())
	}
	return r, nil
}

// UpdateRegister replaces contents/metadata on an Active or Locked
// register, bumping its version. actingDomain must match the register's
// owning domain (spec §4.2 "only a handler scoped to that domain may
// mutate").
func (s *Store) UpdateRegister(actingDomain DomainID, id content.ID, contents []byte, metadata map[string]string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.registers[id]
	if !ok {
		return notFound("register " + id.String())
	}
	if r.Domain != actingDomain {
		return ownershipViolation("register " + id.String() + " is owned by domain " + string(r.Domain))
	}
	if r.State != StateActive && r.State != StateLocked {
		return &Error{Kind: KindInvalidStateTransition, From: r.State, To: r.State}
	}
	r.Contents = contents
	if metadata != nil {
		if r.Metadata == nil {
			r.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			r.Metadata[k] = v
		}
	}
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	s.appendDomainLog(actingDomain, "update_register:"+id.String())
	return nil
}

// LockRegister transitions Active -> Locked (reserving the register for a
// pending effect).
func (s *Store) LockRegister(actingDomain DomainID, id content.ID) error {
	return s.mutateState(actingDomain, id, StateLocked)
}

// UnlockRegister transitions Locked -> Active.
func (s *Store) UnlockRegister(actingDomain DomainID, id content.ID) error {
	return s.mutateState(actingDomain, id, StateActive)
}

// ConsumeRegister transitions Active or Locked -> Consumed (terminal).
func (s *Store) ConsumeRegister(actingDomain DomainID, id content.ID) error {
	return s.mutateState(actingDomain, id, StateConsumed)
}

// ArchiveRegister transitions Active or Summary -> Archived (terminal).
func (s *Store) ArchiveRegister(actingDomain DomainID, id content.ID) error {
	return s.mutateState(actingDomain, id, StateArchived)
}

func (s *Store) mutateState(actingDomain DomainID, id content.ID, to RegisterState) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.registers[id]
	if !ok {
		return notFound("register " + id.String())
	}
	if r.Domain != actingDomain {
		return ownershipViolation("register " + id.String() + " is owned by domain " + string(r.Domain))
	}
	if err := r.transition(to); err != nil {
		return err
	}
	s.appendDomainLog(actingDomain, "transition_register:"+id.String()+":"+to.String())
	return nil
}

// InsertSummaryRegister installs a pre-built Summary-state register (built
// by core/summary) directly, bypassing NewRegister's Active default. Used
// only by the summarization engine, which owns the full construction of a
// summary register's content per spec §4.6.
func (s *Store) InsertSummaryRegister(r *Register) error {
	sh := s.shardFor(r.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.registers[r.ID]; exists {
		return alreadyExists("register " + r.ID.String())
	}
	sh.registers[r.ID] = r
	s.appendDomainLog(r.Domain, "create_summary_register:"+r.ID.String())
	return nil
}
