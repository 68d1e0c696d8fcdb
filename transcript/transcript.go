// Package transcript derives Fiat-Shamir challenges from Σ-protocol
// transcripts. A transcript is an ordered list of labeled entries, each
// written as
//
//	u32be(len(label)) || label || u64be(len(data)) || data
//
// so that no two distinct transcripts share an encoding. The challenge is the
// first 32 bytes of the transcript digest:
//
//	dom-sep    H(sigma.DomainSeparator)[:32]
//	protocol   protocol_id
//	context    H(context)[:32]
//	statement  canonical statement encoding
//	commitment canonical commitment encoding
package transcript

import (
	"encoding/binary"
	"hash"

	"github.com/drand/sigma"
	"github.com/drand/sigma/hashes"
)

// Entry labels, in transcript order.
const (
	LabelDomain     = "dom-sep"
	LabelProtocol   = "protocol"
	LabelContext    = "context"
	LabelStatement  = "statement"
	LabelCommitment = "commitment"
)

// Hasher derives challenges for one protocol with one hash function. It holds
// no mutable state and is safe for concurrent use.
type Hasher struct {
	policy   hashes.Registry
	id       hashes.ID
	protocol sigma.Label
	domain   [sigma.LabelLength]byte
}

// New returns a Hasher for protocol using hash function id. The policy is
// consulted now and on every derivation; a rejected id yields
// sigma.ErrHashFunctionNotAllowed.
func New(policy hashes.Registry, id hashes.ID, protocol sigma.Label) (*Hasher, error) {
	if policy == nil {
		return nil, sigma.Errorf(sigma.KindHashFunctionNotAllowed, "no hash policy configured")
	}
	if !policy.IsAllowed(id) {
		return nil, sigma.Errorf(sigma.KindHashFunctionNotAllowed, "%q rejected by the hash policy", id)
	}
	h := &Hasher{
		policy:   policy,
		id:       id,
		protocol: protocol,
	}
	digest, err := h.digest(sigma.DomainSeparator)
	if err != nil {
		return nil, err
	}
	h.domain = digest
	return h, nil
}

// HashID returns the hash function used by h.
func (h *Hasher) HashID() hashes.ID {
	return h.id
}

// Protocol returns the protocol label bound into every challenge.
func (h *Hasher) Protocol() sigma.Label {
	return h.protocol
}

// DeriveChallenge returns the challenge for an encoded statement, an encoded
// commitment and an application context. Identical inputs always give the
// same challenge.
func (h *Hasher) DeriveChallenge(statement, commitment, context []byte) (sigma.Challenge, error) {
	var c sigma.Challenge

	hctx, err := h.digest(context)
	if err != nil {
		return c, err
	}
	w, err := h.newHash()
	if err != nil {
		return c, err
	}
	appendEntry(w, LabelDomain, h.domain[:])
	appendEntry(w, LabelProtocol, h.protocol[:])
	appendEntry(w, LabelContext, hctx[:])
	appendEntry(w, LabelStatement, statement)
	appendEntry(w, LabelCommitment, commitment)

	copy(c[:], w.Sum(nil))
	return c, nil
}

// Challenge encodes s and cm and derives their challenge.
func (h *Hasher) Challenge(s sigma.Statement, cm sigma.Commitment, context []byte) (sigma.Challenge, error) {
	sb, err := s.MarshalBinary()
	if err != nil {
		return sigma.Challenge{}, sigma.Errorf(sigma.KindSerialization, "encoding statement: %v", err)
	}
	cb, err := cm.MarshalBinary()
	if err != nil {
		return sigma.Challenge{}, sigma.Errorf(sigma.KindSerialization, "encoding commitment: %v", err)
	}
	return h.DeriveChallenge(sb, cb, context)
}

func (h *Hasher) newHash() (hash.Hash, error) {
	if !h.policy.IsAllowed(h.id) {
		return nil, sigma.Errorf(sigma.KindHashFunctionNotAllowed, "%q rejected by the hash policy", h.id)
	}
	w, err := h.policy.New(h.id)
	if err != nil {
		return nil, err
	}
	if w.Size() < sigma.ChallengeLength {
		return nil, sigma.Errorf(sigma.KindHashFunctionNotAllowed, "%q digest is shorter than a challenge", h.id)
	}
	return w, nil
}

func (h *Hasher) digest(data []byte) ([sigma.LabelLength]byte, error) {
	var out [sigma.LabelLength]byte
	w, err := h.newHash()
	if err != nil {
		return out, err
	}
	_, _ = w.Write(data)
	copy(out[:], w.Sum(nil))
	return out, nil
}

func appendEntry(w hash.Hash, label string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(label)))
	_, _ = w.Write(hdr[:4])
	_, _ = w.Write([]byte(label))
	binary.BigEndian.PutUint64(hdr[:], uint64(len(data)))
	_, _ = w.Write(hdr[:])
	_, _ = w.Write(data)
}
