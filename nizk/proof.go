package nizk

import (
	"encoding/binary"
	"math"

	"github.com/drand/sigma"
)

// Proof is a batchable proof: the commitment and the response. The challenge
// is not stored; verification recomputes it from the statement, the
// commitment and the context.
//
// Serialized form:
//
//	protocol_id (32 bytes) || u32be(len) || commitment || u32be(len) || response
type Proof struct {
	ProtocolID sigma.Label
	Commitment sigma.Commitment
	Response   sigma.Response
}

// ShortProof carries the challenge instead of the commitment.
//
// Serialized form:
//
//	protocol_id (32 bytes) || challenge (32 bytes) || u32be(len) || response
type ShortProof struct {
	ProtocolID sigma.Label
	Challenge  sigma.Challenge
	Response   sigma.Response
}

const lengthPrefix = 4

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Proof) MarshalBinary() ([]byte, error) {
	if p.Commitment == nil || p.Response == nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "incomplete proof")
	}
	cm, err := p.Commitment.MarshalBinary()
	if err != nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "encoding commitment: %v", err)
	}
	r, err := p.Response.MarshalBinary()
	if err != nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "encoding response: %v", err)
	}
	out := make([]byte, 0, sigma.LabelLength+2*lengthPrefix+len(cm)+len(r))
	out = append(out, p.ProtocolID[:]...)
	if out, err = appendFrame(out, cm); err != nil {
		return nil, err
	}
	return appendFrame(out, r)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *ShortProof) MarshalBinary() ([]byte, error) {
	if p.Response == nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "incomplete short proof")
	}
	r, err := p.Response.MarshalBinary()
	if err != nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "encoding response: %v", err)
	}
	out := make([]byte, 0, sigma.LabelLength+sigma.ChallengeLength+lengthPrefix+len(r))
	out = append(out, p.ProtocolID[:]...)
	out = append(out, p.Challenge[:]...)
	return appendFrame(out, r)
}

// ProtocolOf returns the protocol_id tag of a serialized proof, so that a
// verifier can pick the matching protocol before parsing further.
func ProtocolOf(data []byte) (sigma.Label, error) {
	var l sigma.Label
	if len(data) < sigma.LabelLength {
		return l, sigma.Errorf(sigma.KindSerialization, "proof of %d bytes has no protocol tag", len(data))
	}
	copy(l[:], data)
	return l, nil
}

// UnmarshalProof parses a serialized Proof of this compiler's protocol.
func (c *Compiler) UnmarshalProof(s sigma.Statement, data []byte) (p *Proof, err error) {
	body, err := c.body(data)
	if err != nil {
		return nil, err
	}
	frames, err := splitFrames(body, 2)
	if err != nil {
		return nil, err
	}
	defer c.recoverParse(&err)
	cm, err := c.protocol.UnmarshalCommitment(s, frames[0])
	if err != nil {
		return nil, asSerialization(err, "commitment")
	}
	r, err := c.protocol.UnmarshalResponse(s, frames[1])
	if err != nil {
		return nil, asSerialization(err, "response")
	}
	return &Proof{ProtocolID: c.protocol.ID(), Commitment: cm, Response: r}, nil
}

// UnmarshalShortProof parses a serialized ShortProof of this compiler's
// protocol.
func (c *Compiler) UnmarshalShortProof(s sigma.Statement, data []byte) (p *ShortProof, err error) {
	body, err := c.body(data)
	if err != nil {
		return nil, err
	}
	if len(body) < sigma.ChallengeLength {
		return nil, sigma.Errorf(sigma.KindSerialization, "truncated challenge")
	}
	var ch sigma.Challenge
	copy(ch[:], body)
	frames, err := splitFrames(body[sigma.ChallengeLength:], 1)
	if err != nil {
		return nil, err
	}
	defer c.recoverParse(&err)
	r, err := c.protocol.UnmarshalResponse(s, frames[0])
	if err != nil {
		return nil, asSerialization(err, "response")
	}
	return &ShortProof{ProtocolID: c.protocol.ID(), Challenge: ch, Response: r}, nil
}

func (c *Compiler) body(data []byte) ([]byte, error) {
	id, err := ProtocolOf(data)
	if err != nil {
		return nil, err
	}
	if id != c.protocol.ID() {
		return nil, sigma.Errorf(sigma.KindSerialization, "proof for protocol %s, expected %s", id, c.protocol.ID())
	}
	return data[sigma.LabelLength:], nil
}

func (c *Compiler) recoverParse(err *error) {
	if r := recover(); r != nil {
		c.log.Errorw("parser panicked", "err", r)
		*err = sigma.Errorf(sigma.KindSerialization, "parser panicked: %v", r)
	}
}

func asSerialization(err error, what string) error {
	if sigma.KindOf(err) == sigma.KindSerialization {
		return err
	}
	return sigma.Errorf(sigma.KindSerialization, "decoding %s: %v", what, err)
}

func appendFrame(out, data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, sigma.Errorf(sigma.KindSerialization, "frame of %d bytes too large", len(data))
	}
	var l [lengthPrefix]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(data)))
	out = append(out, l[:]...)
	return append(out, data...), nil
}

// splitFrames reads exactly n length prefixed frames covering all of data.
func splitFrames(data []byte, n int) ([][]byte, error) {
	frames := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if len(data) < lengthPrefix {
			return nil, sigma.Errorf(sigma.KindSerialization, "truncated length of frame %d", i)
		}
		l := binary.BigEndian.Uint32(data)
		data = data[lengthPrefix:]
		if uint64(len(data)) < uint64(l) {
			return nil, sigma.Errorf(sigma.KindSerialization, "frame %d of %d bytes truncated to %d", i, l, len(data))
		}
		frames = append(frames, data[:l])
		data = data[l:]
	}
	if len(data) != 0 {
		return nil, sigma.Errorf(sigma.KindSerialization, "%d trailing bytes", len(data))
	}
	return frames, nil
}
