package storageproof

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// BlockInfo describes the chain position a backend read was served from.
type BlockInfo struct {
	Height        uint64
	Hash          string
	Timestamp     time.Time
	Confirmations uint64
}

// BackendResult is what an external read/proof backend returns for one
// resolved dependency key.
type BackendResult struct {
	Value []byte
	Block BlockInfo
	Proof *ProofData
}

// Backend is the external collaborator a single domain's storage reads
// and proofs are delegated to (spec §4.4 "call the corresponding
// read/proof backend (external collaborator) with the batched dependency
// keys").
type Backend interface {
	BatchRead(ctx context.Context, domain resource.DomainID, keys []string) (map[string]BackendResult, error)
}

// ResolvedDependency is the final, verified value for one dependency.
type ResolvedDependency struct {
	Value       []byte
	BlockHeight uint64
	VerifiedAt  time.Time
}

// Result maps dependency ID to its resolved value (spec §4.4 "Assemble
// result").
type Result map[string]ResolvedDependency

// Resolver implements the storage-proof resolution algorithm.
type Resolver struct {
	backends   map[resource.DomainID]Backend
	cache      *Cache
	evaluators *Evaluators
	retry      RetryPolicy
	verifier   content.Verifier
	log        *logrus.Entry
}

// NewResolver constructs a resolver over the given per-domain backends,
// a bounded cache, and the Verifier used to check ZK proofs against a
// trusted key source before a resolution is allowed to succeed (spec
// §4.4 "mandatory local verification"; §4.8 "invokes a Verifier
// interface").
func NewResolver(backends map[resource.DomainID]Backend, cache *Cache, evaluators *Evaluators, retry RetryPolicy, verifier content.Verifier) *Resolver {
	return &Resolver{
		backends:   backends,
		cache:      cache,
		evaluators: evaluators,
		retry:      retry,
		verifier:   verifier,
		log:        logrus.WithField("component", "storageproof.resolver"),
	}
}

// Resolve executes the full resolution algorithm for effect, treating
// currentHeight as the caller's view of chain height for expiry
// purposes (spec §4.4 "Resolution algorithm").
func (r *Resolver) Resolve(ctx context.Context, effect *StorageProofEffect, currentHeight uint64) (Result, error) {
	if effect.Proof.Aggregation.Kind == AggregationRecursive {
		return nil, ErrNotImplemented
	}

	now := time.Now().UTC()

	// 1. Cache probe: if every dependency has a live entry, skip I/O entirely.
	if cached, ok := r.probeCache(effect.Dependencies, now, currentHeight); ok {
		return cached, nil
	}

	// 2. Group by domain.
	byDomain := make(map[resource.DomainID][]StorageDependency)
	for _, dep := range effect.Dependencies {
		byDomain[dep.Domain] = append(byDomain[dep.Domain], dep)
	}

	// 3. Per-domain batch, parallel across domains. Each domain's read is
	// tracked through a Request state machine and retried while the retry
	// budget allows. Every backend read error is classed as
	// KindBackendError, which is transient, so any failed read is retried;
	// the backend's error is not inspected to tell transient from
	// non-transient failures.
	type domainOutcome struct {
		domain  resource.DomainID
		results map[string]BackendResult
		err     error
	}
	outcomes := make(chan domainOutcome, len(byDomain))
	var wg sync.WaitGroup
	for domain, deps := range byDomain {
		domain, deps := domain, deps
		wg.Add(1)
		go func() {
			defer wg.Done()
			backend, ok := r.backends[domain]
			if !ok {
				outcomes <- domainOutcome{domain: domain, err: fmt.Errorf("storageproof: no backend registered for domain %s", domain)}
				return
			}
			keys := make([]string, len(deps))
			for i, d := range deps {
				keys[i] = d.Key
			}

			req := NewRequest(fmt.Sprintf("%s/%s", effect.ID, domain), r.retry.MaxRetries)
			if err := req.Start(); err != nil {
				outcomes <- domainOutcome{domain: domain, err: err}
				return
			}

			var res map[string]BackendResult
			var callErr error
			for {
				res, callErr = backend.BatchRead(ctx, domain, keys)
				if callErr == nil {
					_ = req.Complete()
					break
				}
				r.log.WithError(callErr).WithFields(logrus.Fields{"domain": domain, "request": req.ID, "attempt": req.RetryCount}).Warn("backend batch read failed")
				_ = req.Fail()
				if retryErr := req.RetryTransient(r.retry, KindBackendError.Transient()); retryErr != nil {
					break
				}
			}
			outcomes <- domainOutcome{domain: domain, results: res, err: callErr}
		}()
	}
	wg.Wait()
	close(outcomes)

	resolved := make(map[string]BackendResult)
	for out := range outcomes {
		if out.err != nil {
			r.log.WithError(out.err).WithField("domain", out.domain).Warn("backend batch read exhausted retries")
			continue
		}
		for key, res := range out.results {
			resolved[key] = res
		}
	}

	depByKey := make(map[string]StorageDependency, len(effect.Dependencies))
	for _, dep := range effect.Dependencies {
		depByKey[dep.Key] = dep
	}

	// 4. Critical check.
	for _, dep := range effect.Dependencies {
		if dep.Critical {
			if _, ok := resolved[dep.Key]; !ok {
				return nil, &Error{Kind: KindCriticalDependencyMissing, Message: dep.ID}
			}
		}
	}

	// 5. Constraint evaluation.
	result := make(Result, len(effect.Dependencies))
	for _, dep := range effect.Dependencies {
		res, ok := resolved[dep.Key]
		if !ok {
			continue
		}
		if dep.Constraint != nil {
			passed, err := dep.Constraint.Evaluate(res.Value, r.evaluators)
			if err != nil {
				return nil, fmt.Errorf("storageproof: constraint evaluation for %s: %w", dep.ID, err)
			}
			if !passed {
				return nil, &Error{Kind: KindConstraintViolation, Message: dep.ID}
			}
		}

		// ZK verification, mandatory before success when required: the
		// proof must come from a trusted key source and verify against
		// the resolved value under that source (spec §4.4 "Local
		// verification against the configured trusted key source is
		// mandatory before success"; §4.8 "invokes a Verifier interface").
		if effect.Proof.RequireZKProof {
			if res.Proof == nil {
				return nil, &Error{Kind: KindProofVerificationFailed, Message: "missing proof for " + dep.ID}
			}
			if !trustedKeySource(res.Proof.VerificationKeyID, effect.Proof.Verification.TrustedKeySources) {
				return nil, &Error{Kind: KindProofVerificationFailed, Message: "untrusted verification key for " + dep.ID}
			}
			if r.verifier == nil {
				return nil, &Error{Kind: KindProofVerificationFailed, Message: "no verifier configured for " + dep.ID}
			}
			ok, err := r.verifier.Verify(res.Proof.Bytes, res.Value, res.Proof.VerificationKeyID)
			if err != nil {
				return nil, &Error{Kind: KindProofVerificationFailed, Message: fmt.Sprintf("verify %s: %v", dep.ID, err)}
			}
			if !ok {
				return nil, &Error{Kind: KindProofVerificationFailed, Message: "proof did not verify for " + dep.ID}
			}
		}

		verifiedAt := now
		result[dep.ID] = ResolvedDependency{Value: res.Value, BlockHeight: res.Block.Height, VerifiedAt: verifiedAt}

		// 6. Cache update.
		r.cache.Put(dep.ID, &CacheInfo{
			Value:       res.Value,
			BlockHeight: res.Block.Height,
			CachedAt:    verifiedAt,
			Expiry:      dep.Cache,
		})
	}

	// 7. Assemble result.
	return result, nil
}

// trustedKeySource reports whether vkID is among the effect's configured
// trusted verification key sources. An empty TrustedKeySources list trusts
// no key, forcing every RequireZKProof effect to name its sources
// explicitly.
func trustedKeySource(vkID string, sources []string) bool {
	for _, s := range sources {
		if s == vkID {
			return true
		}
	}
	return false
}

func (r *Resolver) probeCache(deps []StorageDependency, now time.Time, currentHeight uint64) (Result, bool) {
	result := make(Result, len(deps))
	for _, dep := range deps {
		entry, ok := r.cache.Get(dep.ID, now, currentHeight)
		if !ok {
			return nil, false
		}
		result[dep.ID] = ResolvedDependency{Value: entry.Value, BlockHeight: entry.BlockHeight, VerifiedAt: entry.CachedAt}
	}
	return result, true
}
