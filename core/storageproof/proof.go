package storageproof

import (
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Priority classifies how urgently a StorageProofEffect should be
// scheduled relative to others.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// AggregationKind selects how proofs across multiple dependencies (or
// domains) are combined.
type AggregationKind int

const (
	AggregationIndividual AggregationKind = iota
	AggregationBatch
	AggregationRecursive
	AggregationCustomKind
)

// Aggregation configures proof aggregation (spec §4.4 "aggregation ∈
// {Individual, Batch{max}, Recursive, Custom(name)}").
type Aggregation struct {
	Kind       AggregationKind
	BatchMax   int    // AggregationBatch only
	CustomName string // AggregationCustomKind only
}

// ZkCircuitConfig names the circuit a ZK proof must be generated/verified
// against.
type ZkCircuitConfig struct {
	CircuitID string
	MaxSlots  int
	MaxSize   int
	Params    map[string]string
}

// VerificationRequirements gates when a resolved storage read is trusted.
type VerificationRequirements struct {
	MinConfirmations   uint64
	MaxFinalityDelay   time.Duration
	OnChainVerification bool
	TrustedKeySources  []string
}

// ExpiryKind enumerates how a proof requirement or cache entry expires.
type ExpiryKind int

const (
	ExpiryNever ExpiryKind = iota
	ExpiryTTL
	ExpiryBlockCount
	ExpiryOnStorageUpdate
	ExpiryUntilNextBlock
)

// Expiry configures when a resolved value stops being trusted without
// re-resolution (spec §4.4 "expiry ∈ {Never, TTL(s), BlockCount(n),
// OnStorageUpdate}"; UntilNextBlock is additionally used by cache
// eviction policy).
type Expiry struct {
	Kind       ExpiryKind
	TTL        time.Duration
	BlockCount uint64
}

// CachePolicy is a dependency's own cache-eviction policy; it shares its
// shape with Expiry (spec §4.4 "Cache" eviction rules mirror the proof
// expiry vocabulary).
type CachePolicy = Expiry

// ProofRequirements is the full proof-gating configuration for a
// StorageProofEffect.
type ProofRequirements struct {
	RequireZKProof bool
	Circuit        *ZkCircuitConfig
	Aggregation    Aggregation
	Verification   VerificationRequirements
	Expiry         Expiry
}

// ProofData is the proof material returned by a backend for a resolved
// dependency (or, under aggregation, shared across several).
type ProofData struct {
	Bytes             []byte
	CircuitID         string
	VerificationKeyID string
	GeneratedAt       time.Time
}

// StorageProofEffect is an effect whose success depends on verified
// external storage values (spec §4.4 "StorageProofEffect").
type StorageProofEffect struct {
	ID           string
	Description  string
	Dependencies []StorageDependency
	Domains      []resource.DomainID
	Proof        ProofRequirements
	Priority     Priority
	EstimatedGas uint64
}
