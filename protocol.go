// Package sigma defines the contract every Σ-protocol implements, the shared
// error taxonomy and the fixed size values (labels, challenges) exchanged
// between protocols, the transcript hasher and the NIZK compiler.
//
// A Σ-protocol is a three-move public-coin proof of knowledge: the prover
// commits, receives a challenge, and responds. The nizk package replaces the
// verifier's challenge with a hash of the transcript, so protocols are never
// meant to be run interactively.
package sigma

import (
	"crypto/cipher"
	"encoding"
)

// Statement holds the public values of a claim. Its binary encoding must be
// canonical since it is bound into the challenge.
type Statement interface {
	encoding.BinaryMarshaler
}

// Commitment is the prover's first message.
type Commitment interface {
	encoding.BinaryMarshaler
}

// Response is the prover's third message.
type Response interface {
	encoding.BinaryMarshaler
}

// Secret is prover-only material that must be cleared once a proof has been
// produced or has failed.
type Secret interface {
	Zeroize()
}

// Witness is the secret proving a statement. Implementations must never
// include the secret in String or MarshalBinary output.
type Witness interface {
	Secret
	// Clone returns an independent copy; zeroizing one leaves the other intact.
	Clone() Witness
}

// ProtocolChallenge is a challenge mapped into a protocol's own domain, such
// as a scalar of the protocol's group.
type ProtocolChallenge interface{}

// Protocol is the capability set of a Σ-protocol. Implementations are
// stateless with respect to proving sessions and safe for concurrent use.
type Protocol interface {
	// ID identifies the protocol and its parameters. It is bound into every
	// challenge and tags serialized proofs.
	ID() Label
	// ValidateStatement returns ErrInvalidStatement for statements the
	// protocol cannot prove or verify.
	ValidateStatement(s Statement) error
	// Commit draws fresh randomness from rand and returns the commitment with
	// the secret opening needed by Respond. It returns ErrInvalidWitness when
	// w does not satisfy s.
	Commit(w Witness, s Statement, rand cipher.Stream) (Commitment, Secret, error)
	// Respond completes the proof for challenge c. It is deterministic and
	// returns ErrInvalidChallengeEncoding when c cannot be decoded.
	Respond(w Witness, s Statement, state Secret, c Challenge) (Response, error)
	// Verify checks the transcript. It only sees public values and returns
	// false for undecodable challenges and foreign value types. s must have
	// passed ValidateStatement.
	Verify(s Statement, cm Commitment, c Challenge, r Response) bool
	// DecodeChallenge maps the 32 challenge bytes into the protocol's domain.
	// Each protocol documents and tests its own mapping.
	DecodeChallenge(c Challenge) (ProtocolChallenge, error)
	// UnmarshalCommitment parses a commitment for statement s. Malformed input
	// yields ErrSerialization.
	UnmarshalCommitment(s Statement, data []byte) (Commitment, error)
	// UnmarshalResponse parses a response for statement s. Malformed input
	// yields ErrSerialization.
	UnmarshalResponse(s Statement, data []byte) (Response, error)
}

// Simulator is implemented by protocols that can run the honest-verifier
// simulator. The nizk package needs it for short proofs, where the commitment
// is recomputed from the challenge and the response.
type Simulator interface {
	// SimulateResponse draws a uniformly random response.
	SimulateResponse(s Statement, rand cipher.Stream) (Response, error)
	// SimulateCommitment returns the unique commitment making (cm, c, r) an
	// accepting transcript.
	SimulateCommitment(s Statement, c Challenge, r Response) (Commitment, error)
}
