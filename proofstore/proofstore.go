// Package proofstore keeps serialized proofs that outlive a proving session,
// together with the public values needed to verify them again later.
package proofstore

import (
	"context"
	"encoding/hex"
	"errors"

	json "github.com/nikkolasg/hexjson"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned when no record is stored under an ID.
var ErrNotFound = errors.New("proof not found")

// IDLength is the size of a record ID.
const IDLength = blake2b.Size256

// ID addresses a record: the blake2b-256 digest of its encoding.
type ID [IDLength]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// ParseID decodes the hex form of an ID.
func ParseID(s string) (ID, error) {
	var id ID
	buf, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(buf) != IDLength {
		return id, errors.New("invalid proof id length")
	}
	copy(id[:], buf)
	return id, nil
}

// Record is a proof with everything a verifier needs besides the protocol
// implementation. Byte fields are hex encoded in JSON.
type Record struct {
	// ProtocolID is the printable protocol label.
	ProtocolID string `json:"protocol_id"`
	// Statement is the canonical statement encoding.
	Statement []byte `json:"statement"`
	// Context is the application context the proof is bound to.
	Context []byte `json:"context,omitempty"`
	// Proof is the serialized nizk.Proof, or nizk.ShortProof when Short is set.
	Proof []byte `json:"proof"`
	Short bool   `json:"short,omitempty"`
}

// Marshal encodes the record as JSON.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a record from JSON.
func (r *Record) Unmarshal(buff []byte) error {
	return json.Unmarshal(buff, r)
}

// ID returns the digest of the record encoding.
func (r *Record) ID() (ID, error) {
	buff, err := r.Marshal()
	if err != nil {
		return ID{}, err
	}
	return blake2b.Sum256(buff), nil
}

// Store persists records by ID.
type Store interface {
	// Put stores r and returns its ID. Storing the same record twice is a
	// no-op.
	Put(ctx context.Context, r *Record) (ID, error)
	// Get returns the record stored under id or ErrNotFound.
	Get(ctx context.Context, id ID) (*Record, error)
	// Del removes the record stored under id, if any.
	Del(ctx context.Context, id ID) error
	Len(ctx context.Context) (int, error)
	// ForEach calls fn on every record in ID order, stopping at the first
	// error.
	ForEach(ctx context.Context, fn func(ID, *Record) error) error
	Close(ctx context.Context) error
}
