// Package nizk compiles any sigma.Protocol into a non-interactive proof
// system with the Fiat-Shamir transform: the verifier's challenge is replaced
// by a hash of the protocol id, the statement, the commitment and an
// application context.
//
// Proofs come in two shapes. A Proof carries the commitment and the response
// and is the canonical form; its challenge is always recomputed. A ShortProof
// carries the challenge and the response and needs a protocol implementing
// sigma.Simulator to recompute the commitment.
//
// The compiler never retries. When a protocol rejects a challenge, Prove
// returns an error for which IsRetryable is true and the caller decides
// whether to call Prove again, which draws fresh randomness:
//
//	for attempt := 0; attempt < maxAttempts; attempt++ {
//		proof, err = compiler.Prove(witness, statement, ctx)
//		if !nizk.IsRetryable(err) {
//			break
//		}
//	}
package nizk

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/drand/sigma"
	"github.com/drand/sigma/log"
	"github.com/drand/sigma/metrics"
	"github.com/drand/sigma/transcript"
)

// ErrShortProofUnsupported is returned by the short proof methods for
// protocols that do not implement sigma.Simulator.
var ErrShortProofUnsupported = errors.New("protocol cannot simulate commitments")

// Compiler proves and verifies statements of a single protocol. It holds no
// mutable state; concurrent calls are independent.
type Compiler struct {
	protocol sigma.Protocol
	hasher   *transcript.Hasher
	cfg      *config
	log      log.Logger
	name     string
}

// New returns a compiler for p.
func New(p sigma.Protocol, opts ...Option) (*Compiler, error) {
	if p == nil {
		return nil, fmt.Errorf("nil protocol")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = log.DefaultLogger()
	}
	h, err := transcript.New(cfg.policy, cfg.hash, p.ID())
	if err != nil {
		return nil, err
	}
	name := p.ID().String()
	return &Compiler{
		protocol: p,
		hasher:   h,
		cfg:      cfg,
		log:      cfg.log.Named("nizk").With("protocol", name, "hash", string(cfg.hash)),
		name:     name,
	}, nil
}

// Protocol returns the compiled protocol.
func (c *Compiler) Protocol() sigma.Protocol {
	return c.protocol
}

// Hasher returns the transcript hasher deriving this compiler's challenges.
func (c *Compiler) Hasher() *transcript.Hasher {
	return c.hasher
}

// Prove produces a proof that w satisfies s, bound to context. Every failure
// is a *ProverError wrapping the typed cause. The witness is cloned for the
// duration of the call and the clone is zeroized before returning, together
// with the commitment opening; the caller keeps ownership of w.
func (c *Compiler) Prove(w sigma.Witness, s sigma.Statement, context []byte) (*Proof, error) {
	sess, err := c.run(w, s, context)
	if err != nil {
		return nil, err
	}
	defer sess.close()
	proof, err := sess.compile()
	c.proved(sess, err)
	return proof, err
}

// ProveShort is Prove producing a ShortProof.
func (c *Compiler) ProveShort(w sigma.Witness, s sigma.Statement, context []byte) (*ShortProof, error) {
	if _, ok := c.protocol.(sigma.Simulator); !ok {
		return nil, &ProverError{Protocol: c.protocol.ID(), Stage: StageInit, Err: ErrShortProofUnsupported}
	}
	sess, err := c.run(w, s, context)
	if err != nil {
		return nil, err
	}
	defer sess.close()
	proof, err := sess.compileShort()
	c.proved(sess, err)
	return proof, err
}

// run drives a session up to StageResponded. On failure the session is
// already closed.
func (c *Compiler) run(w sigma.Witness, s sigma.Statement, context []byte) (*session, error) {
	sess := newSession(c.protocol, c.hasher, w, s)
	err := sess.commit(c.cfg.newRandom())
	if err == nil {
		err = sess.deriveChallenge(context)
	}
	if err == nil {
		err = sess.respond()
	}
	if err != nil {
		sess.close()
		c.proved(sess, err)
		return nil, err
	}
	return sess, nil
}

func (c *Compiler) proved(sess *session, err error) {
	metrics.Proved(c.name, err)
	if err == nil {
		c.log.Debugw("proof generated")
		return
	}
	if errors.Is(err, sigma.ErrInvalidChallengeEncoding) {
		metrics.ChallengeRejected(c.name)
	}
	c.log.Debugw("proof failed", "stage", sess.stage.String(), "kind", sess.failure.String(), "err", err)
}

// Verify checks proof against s and context. It returns nil for a valid
// proof and sigma.ErrVerificationFailed for a well formed proof that does not
// hold. Malformed input yields sigma.ErrSerialization or
// sigma.ErrInvalidStatement, never ErrVerificationFailed.
func (c *Compiler) Verify(s sigma.Statement, proof *Proof, context []byte) error {
	err := c.verify(s, proof, context)
	c.verified(err)
	return err
}

func (c *Compiler) verify(s sigma.Statement, proof *Proof, context []byte) error {
	if proof == nil || proof.Commitment == nil || proof.Response == nil {
		return sigma.Errorf(sigma.KindSerialization, "incomplete proof")
	}
	if proof.ProtocolID != c.protocol.ID() {
		return sigma.Errorf(sigma.KindSerialization, "proof for protocol %s, expected %s", proof.ProtocolID, c.protocol.ID())
	}
	if err := c.validate(s); err != nil {
		return err
	}
	challenge, err := c.challenge(s, proof.Commitment, context)
	if err != nil {
		return err
	}
	if !c.check(s, proof.Commitment, challenge, proof.Response) {
		return sigma.Errorf(sigma.KindVerificationFailed, "transcript rejected")
	}
	return nil
}

// VerifyBytes parses a serialized proof and verifies it.
func (c *Compiler) VerifyBytes(s sigma.Statement, data []byte, context []byte) error {
	proof, err := c.UnmarshalProof(s, data)
	if err != nil {
		c.verified(err)
		return err
	}
	return c.Verify(s, proof, context)
}

// VerifyShort checks a short proof: the commitment is simulated from the
// challenge and the response, and the proof holds when the challenge derived
// from that commitment is the one in the proof.
func (c *Compiler) VerifyShort(s sigma.Statement, proof *ShortProof, context []byte) error {
	err := c.verifyShort(s, proof, context)
	c.verified(err)
	return err
}

func (c *Compiler) verifyShort(s sigma.Statement, proof *ShortProof, context []byte) error {
	sim, ok := c.protocol.(sigma.Simulator)
	if !ok {
		return ErrShortProofUnsupported
	}
	if proof == nil || proof.Response == nil {
		return sigma.Errorf(sigma.KindSerialization, "incomplete short proof")
	}
	if proof.ProtocolID != c.protocol.ID() {
		return sigma.Errorf(sigma.KindSerialization, "proof for protocol %s, expected %s", proof.ProtocolID, c.protocol.ID())
	}
	if err := c.validate(s); err != nil {
		return err
	}
	cm, err := c.simulate(sim, s, proof)
	if err != nil {
		return err
	}
	challenge, err := c.challenge(s, cm, context)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(challenge[:], proof.Challenge[:]) != 1 {
		return sigma.Errorf(sigma.KindVerificationFailed, "challenge mismatch")
	}
	return nil
}

// simulate recomputes the commitment of a short proof. A challenge outside
// the protocol's domain cannot come from an honest prover, so it makes the
// proof invalid rather than malformed.
func (c *Compiler) simulate(sim sigma.Simulator, s sigma.Statement, proof *ShortProof) (cm sigma.Commitment, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("simulator panicked", "err", r)
			cm, err = nil, sigma.Errorf(sigma.KindVerificationFailed, "simulator panicked")
		}
	}()
	cm, err = sim.SimulateCommitment(s, proof.Challenge, proof.Response)
	switch {
	case errors.Is(err, sigma.ErrInvalidChallengeEncoding):
		return nil, sigma.Errorf(sigma.KindVerificationFailed, "challenge outside the protocol domain: %v", err)
	case err != nil:
		return nil, err
	case cm == nil:
		return nil, sigma.Errorf(sigma.KindVerificationFailed, "no commitment simulated")
	}
	return cm, nil
}

// VerifyShortBytes parses a serialized short proof and verifies it.
func (c *Compiler) VerifyShortBytes(s sigma.Statement, data []byte, context []byte) error {
	proof, err := c.UnmarshalShortProof(s, data)
	if err != nil {
		c.verified(err)
		return err
	}
	return c.VerifyShort(s, proof, context)
}

func (c *Compiler) validate(s sigma.Statement) (err error) {
	if s == nil {
		return sigma.Errorf(sigma.KindInvalidStatement, "nil statement")
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("statement validation panicked", "err", r)
			err = sigma.Errorf(sigma.KindInvalidStatement, "statement validation panicked: %v", r)
		}
	}()
	return validateStatement(c.protocol, s)
}

// validateStatement runs the protocol's statement check, classifying
// unkinded errors as invalid statements.
func validateStatement(p sigma.Protocol, s sigma.Statement) error {
	if err := p.ValidateStatement(s); err != nil {
		if sigma.KindOf(err) == sigma.KindUnknown {
			return sigma.Errorf(sigma.KindInvalidStatement, "%v", err)
		}
		return err
	}
	return nil
}

// challenge hashes a transcript whose elements come from the caller. An
// element that panics while encoding is malformed.
func (c *Compiler) challenge(s sigma.Statement, cm sigma.Commitment, context []byte) (ch sigma.Challenge, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("transcript encoding panicked", "err", r)
			err = sigma.Errorf(sigma.KindSerialization, "cannot encode transcript: %v", r)
		}
	}()
	return c.hasher.Challenge(s, cm, context)
}

// check runs the protocol verifier, treating a panic as a rejection.
func (c *Compiler) check(s sigma.Statement, cm sigma.Commitment, ch sigma.Challenge, r sigma.Response) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Errorw("verifier panicked", "err", rec)
			ok = false
		}
	}()
	return c.protocol.Verify(s, cm, ch, r)
}

func (c *Compiler) verified(err error) {
	outcome := metrics.OutcomeValid
	switch {
	case err == nil:
	case errors.Is(err, sigma.ErrVerificationFailed):
		outcome = metrics.OutcomeInvalid
	default:
		outcome = metrics.OutcomeMalformed
	}
	metrics.Verified(c.name, outcome)
	c.log.Debugw("proof verified", "outcome", outcome, "err", err)
}

// IsRetryable reports whether a prove error was caused by a challenge outside
// the protocol's domain. Such a prove call may be repeated as a whole, which
// draws fresh randomness; a commitment must never be reused.
func IsRetryable(err error) bool {
	return errors.Is(err, sigma.ErrInvalidChallengeEncoding)
}
