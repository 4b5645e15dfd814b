package storageproof

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

type fakeBackend struct {
	values map[string][]byte
	proofs map[string]*ProofData

	// failN causes the first failN calls to BatchRead to return err,
	// simulating a transient backend error that the resolver should retry.
	failN int
	calls int
	err   error
}

func (b *fakeBackend) BatchRead(ctx context.Context, domain resource.DomainID, keys []string) (map[string]BackendResult, error) {
	b.calls++
	if b.calls <= b.failN {
		if b.err != nil {
			return nil, b.err
		}
		return nil, errors.New("transient backend hiccup")
	}
	out := make(map[string]BackendResult, len(keys))
	for _, k := range keys {
		if v, ok := b.values[k]; ok {
			out[k] = BackendResult{Value: v, Block: BlockInfo{Height: 100, Timestamp: time.Now().UTC()}, Proof: b.proofs[k]}
		}
	}
	return out, nil
}

type fakeVerifier struct {
	ok  bool
	err error
}

func (v *fakeVerifier) Verify(proofBytes []byte, publicInputs []byte, vkID string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return v.ok, nil
}

func newTestResolver(t *testing.T, backend Backend) *Resolver {
	t.Helper()
	cache, err := NewCache(16)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	backends := map[resource.DomainID]Backend{"d1": backend}
	return NewResolver(backends, cache, NewEvaluators(), RetryPolicy{EnableRetry: true, MaxRetries: 3}, &fakeVerifier{ok: true})
}

func TestResolveBasicSuccess(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("v1")}}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-1",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1", Critical: true},
		},
	}
	result, err := r.Resolve(context.Background(), effect, 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(result["dep1"].Value) != "v1" {
		t.Fatalf("unexpected value: %+v", result)
	}
}

func TestResolveCriticalDependencyMissing(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{}}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-2",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "missing", Critical: true},
		},
	}
	_, err := r.Resolve(context.Background(), effect, 100)
	if err == nil || err.(*Error).Kind != KindCriticalDependencyMissing {
		t.Fatalf("expected CriticalDependencyMissing, got %v", err)
	}
}

func TestResolveConstraintViolation(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("a")}}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-3",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1", Constraint: &ValueConstraint{Kind: ConstraintEquals, Bound: []byte("b")}},
		},
	}
	_, err := r.Resolve(context.Background(), effect, 100)
	if err == nil || err.(*Error).Kind != KindConstraintViolation {
		t.Fatalf("expected ConstraintViolation, got %v", err)
	}
}

func TestResolveUsesLiveCacheWithoutBackendCall(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("v1")}}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-4",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1", Cache: CachePolicy{}},
		},
		Proof: ProofRequirements{Expiry: Expiry{Kind: ExpiryNever}},
	}
	if _, err := r.Resolve(context.Background(), effect, 100); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	backend.values["k1"] = []byte("changed")
	result, err := r.Resolve(context.Background(), effect, 100)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if string(result["dep1"].Value) != "v1" {
		t.Fatalf("expected cached value v1, got %s", result["dep1"].Value)
	}
}

func TestResolveRetriesTransientBackendErrorThenSucceeds(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("v1")}, failN: 2}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-5",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1", Critical: true},
		},
	}
	result, err := r.Resolve(context.Background(), effect, 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(result["dep1"].Value) != "v1" {
		t.Fatalf("unexpected value: %+v", result)
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 attempts (2 failures + 1 success), got %d", backend.calls)
	}
}

func TestResolveGivesUpAfterRetryBudgetExhausted(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("v1")}, failN: 10}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-6",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1", Critical: true},
		},
	}
	_, err := r.Resolve(context.Background(), effect, 100)
	if err == nil || err.(*Error).Kind != KindCriticalDependencyMissing {
		t.Fatalf("expected CriticalDependencyMissing after exhausting retries, got %v", err)
	}
	// 1 initial attempt + MaxRetries(3) retries = 4 calls.
	if backend.calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", backend.calls)
	}
}

func TestResolveRequiresZKProofWhenConfigured(t *testing.T) {
	backend := &fakeBackend{values: map[string][]byte{"k1": []byte("v1")}}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-7",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1"},
		},
		Proof: ProofRequirements{RequireZKProof: true},
	}
	_, err := r.Resolve(context.Background(), effect, 100)
	if err == nil || err.(*Error).Kind != KindProofVerificationFailed {
		t.Fatalf("expected ProofVerificationFailed for missing proof, got %v", err)
	}
}

func TestResolveRejectsUntrustedVerificationKey(t *testing.T) {
	backend := &fakeBackend{
		values: map[string][]byte{"k1": []byte("v1")},
		proofs: map[string]*ProofData{"k1": {Bytes: []byte("proof"), VerificationKeyID: "vk-untrusted"}},
	}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-8",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1"},
		},
		Proof: ProofRequirements{
			RequireZKProof: true,
			Verification:   VerificationRequirements{TrustedKeySources: []string{"vk-trusted"}},
		},
	}
	_, err := r.Resolve(context.Background(), effect, 100)
	if err == nil || err.(*Error).Kind != KindProofVerificationFailed {
		t.Fatalf("expected ProofVerificationFailed for untrusted key, got %v", err)
	}
}

func TestResolveRejectsFailedVerification(t *testing.T) {
	backend := &fakeBackend{
		values: map[string][]byte{"k1": []byte("v1")},
		proofs: map[string]*ProofData{"k1": {Bytes: []byte("proof"), VerificationKeyID: "vk-trusted"}},
	}
	cache, err := NewCache(16)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	backends := map[resource.DomainID]Backend{"d1": backend}
	r := NewResolver(backends, cache, NewEvaluators(), RetryPolicy{EnableRetry: true, MaxRetries: 3}, &fakeVerifier{ok: false})

	effect := &StorageProofEffect{
		ID: "eff-9",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1"},
		},
		Proof: ProofRequirements{
			RequireZKProof: true,
			Verification:   VerificationRequirements{TrustedKeySources: []string{"vk-trusted"}},
		},
	}
	_, rErr := r.Resolve(context.Background(), effect, 100)
	if rErr == nil || rErr.(*Error).Kind != KindProofVerificationFailed {
		t.Fatalf("expected ProofVerificationFailed when verifier rejects proof, got %v", rErr)
	}
}

func TestResolveAcceptsTrustedVerifiedProof(t *testing.T) {
	backend := &fakeBackend{
		values: map[string][]byte{"k1": []byte("v1")},
		proofs: map[string]*ProofData{"k1": {Bytes: []byte("proof"), VerificationKeyID: "vk-trusted"}},
	}
	r := newTestResolver(t, backend)

	effect := &StorageProofEffect{
		ID: "eff-10",
		Dependencies: []StorageDependency{
			{ID: "dep1", Domain: "d1", Key: "k1"},
		},
		Proof: ProofRequirements{
			RequireZKProof: true,
			Verification:   VerificationRequirements{TrustedKeySources: []string{"vk-trusted"}},
		},
	}
	result, err := r.Resolve(context.Background(), effect, 100)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(result["dep1"].Value) != "v1" {
		t.Fatalf("unexpected value: %+v", result)
	}
}

func TestRequestRetryTransientOnlyWhenEnabled(t *testing.T) {
	req := NewRequest("req-1", 2)
	if err := req.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := req.Fail(); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := req.RetryTransient(RetryPolicy{EnableRetry: true, MaxRetries: 2}, true); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if req.State != RequestProcessing || req.RetryCount != 1 {
		t.Fatalf("unexpected request state: %+v", req)
	}
}

func TestRequestRetryRejectedForNonTransient(t *testing.T) {
	req := NewRequest("req-2", 2)
	_ = req.Start()
	_ = req.Fail()
	if err := req.RetryTransient(RetryPolicy{EnableRetry: true, MaxRetries: 2}, false); err == nil {
		t.Fatalf("expected retry to be rejected for a non-transient failure")
	}
}
