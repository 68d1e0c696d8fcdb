// Package schnorr implements the Schnorr proof of knowledge of a discrete
// logarithm as a sigma.Protocol. The prover knows x such that claim = x·base:
//
//	commitment  T = r·base
//	response    z = r + c·x
//	verify      z·base == T + c·claim
//
// Challenges are decoded by rejection sampling (crypto.DecodeChallengeRejection):
// the 32 challenge bytes are masked to the bit length of the group order and
// rejected when not below it. Accepted challenges are uniform scalars; a
// rejected one surfaces as sigma.ErrInvalidChallengeEncoding and the prover
// must start over with fresh randomness. Over ed25519 about half of the
// challenges are rejected, over BLS12-381 about one in eleven.
package schnorr

import (
	"crypto/cipher"

	"github.com/drand/kyber"

	"github.com/drand/sigma"
	"github.com/drand/sigma/crypto"
)

// Statement claims knowledge of the discrete logarithm of Claim in base Base.
type Statement struct {
	Base  kyber.Point
	Claim kyber.Point
}

// MarshalBinary encodes the statement as the named elements "base" and
// "claim".
func (s *Statement) MarshalBinary() ([]byte, error) {
	base, err := s.Base.MarshalBinary()
	if err != nil {
		return nil, err
	}
	claim, err := s.Claim.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return sigma.NamedElements{"base": base, "claim": claim}.MarshalBinary()
}

// Witness is the discrete logarithm x.
type Witness struct {
	X kyber.Scalar
}

// Zeroize implements sigma.Secret.
func (w *Witness) Zeroize() {
	if w.X != nil {
		w.X.Zero()
	}
}

// Clone implements sigma.Witness.
func (w *Witness) Clone() sigma.Witness {
	if w.X == nil {
		return &Witness{}
	}
	return &Witness{X: w.X.Clone()}
}

func (w *Witness) String() string {
	return "schnorr.Witness{...}"
}

// Commitment is T = r·base.
type Commitment struct {
	T kyber.Point
}

// MarshalBinary implements sigma.Commitment.
func (c *Commitment) MarshalBinary() ([]byte, error) {
	return c.T.MarshalBinary()
}

// Response is z = r + c·x.
type Response struct {
	Z kyber.Scalar
}

// MarshalBinary implements sigma.Response.
func (r *Response) MarshalBinary() ([]byte, error) {
	return r.Z.MarshalBinary()
}

type nonce struct {
	r kyber.Scalar
}

func (n *nonce) Zeroize() {
	n.r.Zero()
}

// Protocol is the Schnorr protocol over one suite.
type Protocol struct {
	suite *crypto.Suite
	id    sigma.Label
}

// New returns the protocol over suite, identified as "schnorr-dlog/<suite>".
func New(suite *crypto.Suite) (*Protocol, error) {
	id, err := sigma.NewLabel("schnorr-dlog/" + suite.Name)
	if err != nil {
		return nil, err
	}
	return &Protocol{suite: suite, id: id}, nil
}

// Suite returns the group the protocol works in.
func (p *Protocol) Suite() *crypto.Suite {
	return p.suite
}

// ID implements sigma.Protocol.
func (p *Protocol) ID() sigma.Label {
	return p.id
}

// NewStatement returns a statement for claim in the standard base of the
// group.
func (p *Protocol) NewStatement(claim kyber.Point) *Statement {
	return &Statement{Base: p.suite.Group.Point().Base(), Claim: claim}
}

// KeyPair draws a fresh witness and its statement in the standard base.
func (p *Protocol) KeyPair(rand cipher.Stream) (*Witness, *Statement) {
	x := p.suite.Group.Scalar().Pick(rand)
	return &Witness{X: x}, p.NewStatement(p.suite.Group.Point().Mul(x, nil))
}

// ParseStatement decodes the output of Statement.MarshalBinary.
func (p *Protocol) ParseStatement(data []byte) (*Statement, error) {
	elems, err := sigma.UnmarshalNamedElements(data)
	if err != nil {
		return nil, err
	}
	if len(elems) != 2 {
		return nil, sigma.Errorf(sigma.KindSerialization, "expected 2 statement elements, got %d", len(elems))
	}
	s := &Statement{}
	if s.Base, err = p.suite.UnmarshalPoint(elems["base"]); err != nil {
		return nil, err
	}
	if s.Claim, err = p.suite.UnmarshalPoint(elems["claim"]); err != nil {
		return nil, err
	}
	return s, p.ValidateStatement(s)
}

func (p *Protocol) statement(s sigma.Statement) (*Statement, bool) {
	st, ok := s.(*Statement)
	if !ok || st == nil {
		return nil, false
	}
	return st, crypto.InGroup(p.suite.Group, st.Base) && crypto.InGroup(p.suite.Group, st.Claim)
}

// ValidateStatement implements sigma.Protocol. Neither point may be the
// identity and both must lie in the prime order subgroup.
func (p *Protocol) ValidateStatement(s sigma.Statement) error {
	st, ok := p.statement(s)
	if !ok {
		return sigma.Errorf(sigma.KindInvalidStatement, "not a complete schnorr statement over %s", p.suite)
	}
	if crypto.IsIdentity(p.suite.Group, st.Base) {
		return sigma.Errorf(sigma.KindInvalidStatement, "base is the identity")
	}
	if crypto.IsIdentity(p.suite.Group, st.Claim) {
		return sigma.Errorf(sigma.KindInvalidStatement, "claim is the identity")
	}
	if !p.suite.InSubgroup(st.Base) || !p.suite.InSubgroup(st.Claim) {
		return sigma.Errorf(sigma.KindInvalidStatement, "point outside the prime order subgroup")
	}
	return nil
}

// Commit implements sigma.Protocol.
func (p *Protocol) Commit(w sigma.Witness, s sigma.Statement, rand cipher.Stream) (sigma.Commitment, sigma.Secret, error) {
	st, ok := p.statement(s)
	if !ok {
		return nil, nil, sigma.Errorf(sigma.KindInvalidStatement, "not a complete schnorr statement")
	}
	wt, ok := w.(*Witness)
	if !ok || wt == nil || !crypto.ScalarInGroup(p.suite.Group, wt.X) {
		return nil, nil, sigma.Errorf(sigma.KindInvalidWitness, "not a schnorr witness")
	}
	if !p.suite.Group.Point().Mul(wt.X, st.Base).Equal(st.Claim) {
		return nil, nil, sigma.Errorf(sigma.KindInvalidWitness, "witness is not the discrete log of the claim")
	}
	r := p.suite.Group.Scalar().Pick(rand)
	t := p.suite.Group.Point().Mul(r, st.Base)
	return &Commitment{T: t}, &nonce{r: r}, nil
}

// Respond implements sigma.Protocol.
func (p *Protocol) Respond(w sigma.Witness, s sigma.Statement, state sigma.Secret, c sigma.Challenge) (sigma.Response, error) {
	wt, ok := w.(*Witness)
	if !ok || wt == nil || !crypto.ScalarInGroup(p.suite.Group, wt.X) {
		return nil, sigma.Errorf(sigma.KindInvalidWitness, "not a schnorr witness")
	}
	n, ok := state.(*nonce)
	if !ok {
		return nil, sigma.Errorf(sigma.KindInvalidWitness, "prover state not produced by Commit")
	}
	e, err := p.suite.DecodeChallengeScalar(c)
	if err != nil {
		return nil, err
	}
	z := p.suite.Group.Scalar().Mul(e, wt.X)
	z.Add(z, n.r)
	return &Response{Z: z}, nil
}

// Verify implements sigma.Protocol.
func (p *Protocol) Verify(s sigma.Statement, cm sigma.Commitment, c sigma.Challenge, r sigma.Response) bool {
	st, ok := p.statement(s)
	if !ok {
		return false
	}
	com, ok := cm.(*Commitment)
	if !ok || com == nil || !crypto.InGroup(p.suite.Group, com.T) {
		return false
	}
	resp, ok := r.(*Response)
	if !ok || resp == nil || !crypto.ScalarInGroup(p.suite.Group, resp.Z) {
		return false
	}
	e, err := p.suite.DecodeChallengeScalar(c)
	if err != nil {
		return false
	}
	g := p.suite.Group
	left := g.Point().Mul(resp.Z, st.Base)
	right := g.Point().Mul(e, st.Claim)
	right.Add(right, com.T)
	return left.Equal(right)
}

// DecodeChallenge implements sigma.Protocol; the result is a kyber.Scalar.
func (p *Protocol) DecodeChallenge(c sigma.Challenge) (sigma.ProtocolChallenge, error) {
	return p.suite.DecodeChallengeScalar(c)
}

// UnmarshalCommitment implements sigma.Protocol.
func (p *Protocol) UnmarshalCommitment(_ sigma.Statement, data []byte) (sigma.Commitment, error) {
	t, err := p.suite.UnmarshalPoint(data)
	if err != nil {
		return nil, err
	}
	return &Commitment{T: t}, nil
}

// UnmarshalResponse implements sigma.Protocol.
func (p *Protocol) UnmarshalResponse(_ sigma.Statement, data []byte) (sigma.Response, error) {
	z, err := crypto.UnmarshalScalar(p.suite.Group, data)
	if err != nil {
		return nil, err
	}
	return &Response{Z: z}, nil
}

// SimulateResponse implements sigma.Simulator.
func (p *Protocol) SimulateResponse(_ sigma.Statement, rand cipher.Stream) (sigma.Response, error) {
	return &Response{Z: p.suite.Group.Scalar().Pick(rand)}, nil
}

// SimulateCommitment implements sigma.Simulator: T = z·base - c·claim.
func (p *Protocol) SimulateCommitment(s sigma.Statement, c sigma.Challenge, r sigma.Response) (sigma.Commitment, error) {
	st, ok := p.statement(s)
	if !ok {
		return nil, sigma.Errorf(sigma.KindInvalidStatement, "not a complete schnorr statement")
	}
	resp, ok := r.(*Response)
	if !ok || resp == nil || !crypto.ScalarInGroup(p.suite.Group, resp.Z) {
		return nil, sigma.Errorf(sigma.KindSerialization, "not a schnorr response")
	}
	e, err := p.suite.DecodeChallengeScalar(c)
	if err != nil {
		return nil, err
	}
	g := p.suite.Group
	t := g.Point().Mul(resp.Z, st.Base)
	t.Sub(t, g.Point().Mul(e, st.Claim))
	return &Commitment{T: t}, nil
}
