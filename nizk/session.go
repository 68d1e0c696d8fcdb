package nizk

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/drand/sigma"
	"github.com/drand/sigma/transcript"
)

// Stage is the state of a proving session:
//
//	Init -> Committed -> Challenged -> Responded -> Compiled
//
// Failed is reachable from every non terminal stage. Compiled and Failed are
// terminal.
type Stage int

const (
	StageInit Stage = iota
	StageCommitted
	StageChallenged
	StageResponded
	StageCompiled
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageCommitted:
		return "committed"
	case StageChallenged:
		return "challenged"
	case StageResponded:
		return "responded"
	case StageCompiled:
		return "compiled"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageCompiled || s == StageFailed
}

// ProverError is returned by every failing prove call. Stage is the last
// stage the session reached before failing, Err the typed cause.
type ProverError struct {
	Protocol sigma.Label
	Stage    Stage
	Err      error
}

func (e *ProverError) Error() string {
	return fmt.Sprintf("prove %s: failed after %s: %v", e.Protocol, e.Stage, e.Err)
}

func (e *ProverError) Unwrap() error {
	return e.Err
}

// Kind classifies the cause.
func (e *ProverError) Kind() sigma.Kind {
	return sigma.KindOf(e.Err)
}

var errTransition = errors.New("invalid session transition")

// session carries one prove call through its stages. It owns a clone of the
// witness and the commitment opening; close zeroizes both.
type session struct {
	protocol sigma.Protocol
	hasher   *transcript.Hasher
	stage    Stage
	failure  sigma.Kind

	statement sigma.Statement
	witness   sigma.Witness
	opening   sigma.Secret

	commitment sigma.Commitment
	challenge  sigma.Challenge
	response   sigma.Response
}

func newSession(p sigma.Protocol, h *transcript.Hasher, w sigma.Witness, s sigma.Statement) *session {
	sess := &session{
		protocol:  p,
		hasher:    h,
		statement: s,
	}
	if w != nil {
		sess.witness = w.Clone()
	}
	return sess
}

func (s *session) fail(err error) error {
	pe := &ProverError{Protocol: s.protocol.ID(), Stage: s.stage, Err: err}
	s.failure = sigma.KindOf(err)
	s.stage = StageFailed
	return pe
}

// advance runs step when the session is in stage from, moving it to the next
// stage on success and to StageFailed otherwise. Panics raised by the
// protocol are turned into errors.
func (s *session) advance(from Stage, step func() error) (err error) {
	if s.stage != from {
		return s.fail(fmt.Errorf("%w: %s, expected %s", errTransition, s.stage, from))
	}
	defer func() {
		if r := recover(); r != nil {
			err = s.fail(fmt.Errorf("protocol panicked: %v", r))
		}
	}()
	if err := step(); err != nil {
		return s.fail(err)
	}
	s.stage = from + 1
	return nil
}

func (s *session) commit(rand cipher.Stream) error {
	return s.advance(StageInit, func() error {
		if s.witness == nil {
			return sigma.Errorf(sigma.KindInvalidWitness, "no witness")
		}
		if err := validateStatement(s.protocol, s.statement); err != nil {
			return err
		}
		cm, opening, err := s.protocol.Commit(s.witness, s.statement, rand)
		if err != nil {
			return err
		}
		if cm == nil {
			return errors.New("protocol returned no commitment")
		}
		s.commitment, s.opening = cm, opening
		return nil
	})
}

func (s *session) deriveChallenge(context []byte) error {
	return s.advance(StageCommitted, func() error {
		c, err := s.hasher.Challenge(s.statement, s.commitment, context)
		if err != nil {
			return err
		}
		s.challenge = c
		return nil
	})
}

func (s *session) respond() error {
	return s.advance(StageChallenged, func() error {
		r, err := s.protocol.Respond(s.witness, s.statement, s.opening, s.challenge)
		if err != nil {
			return err
		}
		if r == nil {
			return errors.New("protocol returned no response")
		}
		s.response = r
		return nil
	})
}

func (s *session) compile() (*Proof, error) {
	var p *Proof
	err := s.advance(StageResponded, func() error {
		p = &Proof{
			ProtocolID: s.protocol.ID(),
			Commitment: s.commitment,
			Response:   s.response,
		}
		return nil
	})
	return p, err
}

func (s *session) compileShort() (*ShortProof, error) {
	var p *ShortProof
	err := s.advance(StageResponded, func() error {
		p = &ShortProof{
			ProtocolID: s.protocol.ID(),
			Challenge:  s.challenge,
			Response:   s.response,
		}
		return nil
	})
	return p, err
}

// close releases the secret material on every exit path.
func (s *session) close() {
	if s.witness != nil {
		s.witness.Zeroize()
		s.witness = nil
	}
	if s.opening != nil {
		s.opening.Zeroize()
		s.opening = nil
	}
}
