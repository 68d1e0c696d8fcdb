package transcript

import (
	"encoding/binary"
	"hash"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/drand/sigma"
	"github.com/drand/sigma/hashes"
)

var testLabel = sigma.MustLabel("test-protocol")

func newHasher(t *testing.T, id hashes.ID, label sigma.Label) *Hasher {
	t.Helper()
	h, err := New(hashes.DefaultPolicy(), id, label)
	require.NoError(t, err)
	return h
}

func entry(label string, data []byte) []byte {
	out := make([]byte, 4, 4+len(label)+8+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(label)))
	out = append(out, label...)
	var l [8]byte
	binary.BigEndian.PutUint64(l[:], uint64(len(data)))
	out = append(out, l[:]...)
	return append(out, data...)
}

func TestKnownAnswer(t *testing.T) {
	h := newHasher(t, hashes.SHA3_256, testLabel)

	dom := sha3.Sum256(sigma.DomainSeparator)
	ctx := sha3.Sum256([]byte("app"))
	var tr []byte
	tr = append(tr, entry(LabelDomain, dom[:])...)
	tr = append(tr, entry(LabelProtocol, testLabel[:])...)
	tr = append(tr, entry(LabelContext, ctx[:])...)
	tr = append(tr, entry(LabelStatement, []byte("statement"))...)
	tr = append(tr, entry(LabelCommitment, []byte("commitment"))...)
	expected := sha3.Sum256(tr)

	c, err := h.DeriveChallenge([]byte("statement"), []byte("commitment"), []byte("app"))
	require.NoError(t, err)
	require.Equal(t, expected[:], c[:])
}

func TestDeterminism(t *testing.T) {
	for _, id := range hashes.DefaultIDs {
		h := newHasher(t, id, testLabel)
		c1, err := h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
		require.NoError(t, err)
		c2, err := h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
		require.NoError(t, err)
		require.Equal(t, c1, c2, id)

		again := newHasher(t, id, testLabel)
		c3, err := again.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
		require.NoError(t, err)
		require.Equal(t, c1, c3, id)
	}
}

func TestEveryInputIsBound(t *testing.T) {
	h := newHasher(t, hashes.Blake2b512, testLabel)
	base, err := h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)

	inputs := [][3][]byte{
		{[]byte("s2"), []byte("c"), []byte("ctx")},
		{[]byte("s"), []byte("c2"), []byte("ctx")},
		{[]byte("s"), []byte("c"), []byte("ctx2")},
		{[]byte("s"), []byte("c"), nil},
		// moving bytes across entry boundaries must change the challenge
		{[]byte("sc"), []byte(""), []byte("ctx")},
		{[]byte(""), []byte("sc"), []byte("ctx")},
	}
	seen := map[sigma.Challenge]bool{base: true}
	for i, in := range inputs {
		c, err := h.DeriveChallenge(in[0], in[1], in[2])
		require.NoError(t, err)
		require.False(t, seen[c], "input %d collides", i)
		seen[c] = true
	}
}

func TestDomainSeparation(t *testing.T) {
	a := newHasher(t, hashes.SHA3_256, sigma.MustLabel("schnorr-dlog/ed25519"))
	b := newHasher(t, hashes.SHA3_256, sigma.MustLabel("dleq/ed25519"))
	ca, err := a.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)
	cb, err := b.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)
	require.NotEqual(t, ca, cb)

	// the hash function is part of the instantiation too
	c := newHasher(t, hashes.SHA512, sigma.MustLabel("schnorr-dlog/ed25519"))
	cc, err := c.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)
	require.NotEqual(t, ca, cc)
}

func TestPolicyRejection(t *testing.T) {
	policy, err := hashes.NewPolicy(hashes.SHA3_256)
	require.NoError(t, err)

	_, err = New(policy, hashes.SHA256, testLabel)
	require.ErrorIs(t, err, sigma.ErrHashFunctionNotAllowed)
	_, err = New(nil, hashes.SHA3_256, testLabel)
	require.ErrorIs(t, err, sigma.ErrHashFunctionNotAllowed)

	h, err := New(policy, hashes.SHA3_256, testLabel)
	require.NoError(t, err)
	require.Equal(t, hashes.SHA3_256, h.HashID())
	require.Equal(t, testLabel, h.Protocol())
}

// revocable allows a single hash function until revoked.
type revocable struct {
	sync.Mutex
	revoked bool
	inner   hashes.Registry
}

func (r *revocable) IsAllowed(id hashes.ID) bool {
	r.Lock()
	defer r.Unlock()
	return !r.revoked && r.inner.IsAllowed(id)
}

func (r *revocable) Hash(id hashes.ID, data []byte) ([]byte, error) {
	return r.inner.Hash(id, data)
}

func (r *revocable) New(id hashes.ID) (hash.Hash, error) {
	return r.inner.New(id)
}

func TestPolicyConsultedOnEveryDerivation(t *testing.T) {
	policy := &revocable{inner: hashes.DefaultPolicy()}
	h, err := New(policy, hashes.SHA3_256, testLabel)
	require.NoError(t, err)

	_, err = h.DeriveChallenge(nil, nil, nil)
	require.NoError(t, err)

	policy.Lock()
	policy.revoked = true
	policy.Unlock()
	_, err = h.DeriveChallenge(nil, nil, nil)
	require.ErrorIs(t, err, sigma.ErrHashFunctionNotAllowed)
}

type bytesValue []byte

func (b bytesValue) MarshalBinary() ([]byte, error) { return b, nil }

func TestChallengeMatchesDerive(t *testing.T) {
	h := newHasher(t, hashes.SHA3_512, testLabel)
	c1, err := h.Challenge(bytesValue("s"), bytesValue("c"), []byte("ctx"))
	require.NoError(t, err)
	c2, err := h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)
	require.Equal(t, c1, c2)
}

func TestConcurrentDerivation(t *testing.T) {
	h := newHasher(t, hashes.SHA3_256, testLabel)
	expected, err := h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]sigma.Challenge, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = h.DeriveChallenge([]byte("s"), []byte("c"), []byte("ctx"))
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, expected, r)
	}
}
