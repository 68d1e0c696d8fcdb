// Package hashes is the registry of hash functions a transcript may use, and
// the allow-list policy restricting them. The policy is an explicit object
// injected into transcript hashers; there is no global allow-list.
package hashes

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"

	"github.com/drand/sigma"
)

// ID names a hash function.
type ID string

const (
	SHA256     ID = "sha256"
	SHA512     ID = "sha512"
	SHA3_256   ID = "sha3-256"
	SHA3_512   ID = "sha3-512"
	Blake2b256 ID = "blake2b-256"
	Blake2b512 ID = "blake2b-512"
	Blake2s256 ID = "blake2s-256"
)

// Function describes a supported hash function.
type Function struct {
	ID ID
	// BlockLen is the block size in bytes.
	BlockLen int
	// DigestLen is the output size in bytes.
	DigestLen int
	New       func() hash.Hash
}

func unkeyed(f func([]byte) (hash.Hash, error)) func() hash.Hash {
	return func() hash.Hash {
		h, err := f(nil)
		if err != nil {
			// unkeyed constructors only fail on oversized keys
			panic(err)
		}
		return h
	}
}

var functions = map[ID]Function{
	SHA256:     {SHA256, sha256.BlockSize, sha256.Size, sha256.New},
	SHA512:     {SHA512, sha512.BlockSize, sha512.Size, sha512.New},
	SHA3_256:   {SHA3_256, 136, 32, sha3.New256},
	SHA3_512:   {SHA3_512, 72, 64, sha3.New512},
	Blake2b256: {Blake2b256, blake2b.BlockSize, blake2b.Size256, unkeyed(blake2b.New256)},
	Blake2b512: {Blake2b512, blake2b.BlockSize, blake2b.Size, unkeyed(blake2b.New512)},
	Blake2s256: {Blake2s256, blake2s.BlockSize, blake2s.Size, unkeyed(blake2s.New256)},
}

// Lookup returns the description of id.
func Lookup(id ID) (Function, bool) {
	f, ok := functions[id]
	return f, ok
}

// Supported returns the ids of every known hash function, sorted.
func Supported() []ID {
	ids := make([]ID, 0, len(functions))
	for id := range functions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Registry decides which hash functions may be invoked and invokes them.
type Registry interface {
	IsAllowed(id ID) bool
	// Hash returns the digest of data, or ErrHashFunctionNotAllowed.
	Hash(id ID, data []byte) ([]byte, error)
	// New returns a fresh streaming hash, or ErrHashFunctionNotAllowed.
	New(id ID) (hash.Hash, error)
}

// Policy is an immutable allow-list over the supported hash functions.
type Policy struct {
	allowed map[ID]bool
}

// NewPolicy allows exactly ids. Unknown ids and digests shorter than a
// challenge are refused.
func NewPolicy(ids ...ID) (*Policy, error) {
	p := &Policy{allowed: make(map[ID]bool, len(ids))}
	for _, id := range ids {
		f, ok := functions[id]
		if !ok {
			return nil, fmt.Errorf("unknown hash function %q", id)
		}
		if f.DigestLen < sigma.ChallengeLength {
			return nil, fmt.Errorf("hash function %q digest of %d bytes is shorter than a challenge", id, f.DigestLen)
		}
		p.allowed[id] = true
	}
	return p, nil
}

// DefaultIDs is the allow-list of DefaultPolicy.
var DefaultIDs = []ID{SHA3_256, SHA3_512, Blake2b512, SHA256, SHA512}

// DefaultPolicy returns the policy allowing DefaultIDs.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultIDs...)
	if err != nil {
		panic(err)
	}
	return p
}

// IsAllowed implements Registry.
func (p *Policy) IsAllowed(id ID) bool {
	return p != nil && p.allowed[id]
}

// Allowed returns the allowed ids, sorted.
func (p *Policy) Allowed() []ID {
	var ids []ID
	for _, id := range Supported() {
		if p.IsAllowed(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// New implements Registry.
func (p *Policy) New(id ID) (hash.Hash, error) {
	if !p.IsAllowed(id) {
		return nil, sigma.Errorf(sigma.KindHashFunctionNotAllowed, "%q is not in the policy", id)
	}
	return functions[id].New(), nil
}

// Hash implements Registry.
func (p *Policy) Hash(id ID, data []byte) ([]byte, error) {
	h, err := p.New(id)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data)
	return h.Sum(nil), nil
}
