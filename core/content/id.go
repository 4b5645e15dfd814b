// Package content provides collision-resistant content addressing for every
// primary entity in the causality engine: resources, registers, effects,
// time-map entries, summary records and log entries all derive their
// identifier the same way, through this package.
package content

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"lukechampine.com/blake3"
)

// SchemaVersion is folded into every canonical encoding so that a field
// addition to an entity bumps its hash even if the new field is zero-valued.
const SchemaVersion = 1

// ID is an opaque 256-bit content identifier. Equality of IDs implies
// equality of the content they were derived from.
type ID [32]byte

// Zero is the zero-valued ID, used as a sentinel for "no reference".
var Zero ID

// String renders the ID as a lowercase hex string.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool {
	return id == Zero
}

// ParseID parses a hex-encoded ID. It mirrors the teacher's Address.Hex
// round trip but for 32-byte content identifiers rather than 20-byte
// addresses.
func ParseID(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse content id: %w", err)
	}
	if len(b) != 32 {
		return Zero, fmt.Errorf("parse content id: want 32 bytes, got %d", len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// canonicalEnvelope wraps a value with its schema tag before hashing, so
// that any future field addition to an entity can bump SchemaVersion and
// change every derived ID deterministically.
type canonicalEnvelope struct {
	Schema int             `json:"schema"`
	Value  json.RawMessage `json:"value"`
}

// CanonicalEncode produces the canonical byte encoding used for hashing and
// for log/storage persistence. Field ordering is stable because
// encoding/json sorts map keys and struct fields are encoded in declaration
// order; callers needing stability across Go versions should avoid bare
// maps in hashed entities.
func CanonicalEncode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	env := canonicalEnvelope{Schema: SchemaVersion, Value: raw}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("canonical encode envelope: %w", err)
	}
	return out, nil
}

// Derive computes the content ID of v: Blake3-256 over the canonical
// encoding of v's defining fields.
func Derive(v interface{}) (ID, error) {
	b, err := CanonicalEncode(v)
	if err != nil {
		return Zero, err
	}
	return HashBytes(b), nil
}

// HashBytes hashes raw bytes directly, for callers that already hold a
// canonical encoding (e.g. the log substrate re-deriving an entry's ID from
// its stored bytes).
func HashBytes(b []byte) ID {
	return ID(blake3.Sum256(b))
}

// VerifyIntegrity checks the content-integrity invariant: hash(encode(v)) ==
// want. Used to validate storage reads and log replays.
func VerifyIntegrity(v interface{}, want ID) (bool, error) {
	got, err := Derive(v)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// CID returns an IPFS-compatible content identifier view of id, using the
// raw multicodec over a blake3-256 multihash. This lets the persistent
// store (core/log) address blobs the same way the teacher's IPFS gateway
// wrapper (core/storage.go) does, without taking a dependency on any
// concrete blob store.
func (id ID) CID() (cid.Cid, error) {
	mhash, err := mh.Encode(id[:], blake3MulticodecCode)
	if err != nil {
		return cid.Undef, fmt.Errorf("content id to multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mhash), nil
}

// blake3MulticodecCode is the multicodec table entry for blake3-256
// (0x1e), used so CID() doesn't need to guess at the go-multihash
// package's exported constant name across versions.
const blake3MulticodecCode = 0x1e

// Verifier is the interface a proof backend must satisfy to verify a ZK
// proof against a trusted verification key. The core never embeds an
// asymmetric-crypto implementation; it only invokes this contract (spec
// §4.8, §6).
type Verifier interface {
	Verify(proofBytes []byte, publicInputs []byte, vkID string) (bool, error)
}
