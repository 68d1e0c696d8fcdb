// Package dleq implements the Chaum-Pedersen proof of discrete logarithm
// equality as a sigma.Protocol. The prover knows x such that a = x·g and
// b = x·h:
//
//	commitment  (T1, T2) = (r·g, r·h)
//	response    z = r + c·x
//	verify      z·g == T1 + c·a  and  z·h == T2 + c·b
//
// Challenges are decoded like in the schnorr package, by rejection sampling
// over the group order.
package dleq

import (
	"crypto/cipher"

	"github.com/drand/kyber"

	"github.com/drand/sigma"
	"github.com/drand/sigma/crypto"
)

// Statement claims log_G(A) == log_H(B).
type Statement struct {
	G, H kyber.Point
	A, B kyber.Point
}

// MarshalBinary encodes the statement as the named elements "a", "b", "g"
// and "h".
func (s *Statement) MarshalBinary() ([]byte, error) {
	elems := sigma.NamedElements{}
	for name, p := range map[string]kyber.Point{"g": s.G, "h": s.H, "a": s.A, "b": s.B} {
		buf, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		elems[name] = buf
	}
	return elems.MarshalBinary()
}

// Witness is the common discrete logarithm x.
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
	return "dleq.Witness{...}"
}

// Commitment is the pair (r·g, r·h).
type Commitment struct {
	T1, T2 kyber.Point
}

// MarshalBinary implements sigma.Commitment as T1 || T2.
func (c *Commitment) MarshalBinary() ([]byte, error) {
	t1, err := c.T1.MarshalBinary()
	if err != nil {
		return nil, err
	}
	t2, err := c.T2.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(t1, t2...), nil
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

// Protocol is the Chaum-Pedersen protocol over one suite.
type Protocol struct {
	suite *crypto.Suite
	id    sigma.Label
}

// New returns the protocol over suite, identified as "dleq/<suite>".
func New(suite *crypto.Suite) (*Protocol, error) {
	id, err := sigma.NewLabel("dleq/" + suite.Name)
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

// NewStatement returns the statement proven by x for the bases g and h.
func (p *Protocol) NewStatement(x kyber.Scalar, g, h kyber.Point) *Statement {
	grp := p.suite.Group
	return &Statement{
		G: g,
		H: h,
		A: grp.Point().Mul(x, g),
		B: grp.Point().Mul(x, h),
	}
}

// RandomStatement draws a fresh witness and second base h; the first base is
// the standard generator.
func (p *Protocol) RandomStatement(rand cipher.Stream) (*Witness, *Statement) {
	grp := p.suite.Group
	x := grp.Scalar().Pick(rand)
	h := grp.Point().Pick(rand)
	return &Witness{X: x}, p.NewStatement(x, grp.Point().Base(), h)
}

// ParseStatement decodes the output of Statement.MarshalBinary.
func (p *Protocol) ParseStatement(data []byte) (*Statement, error) {
	elems, err := sigma.UnmarshalNamedElements(data)
	if err != nil {
		return nil, err
	}
	if len(elems) != 4 {
		return nil, sigma.Errorf(sigma.KindSerialization, "expected 4 statement elements, got %d", len(elems))
	}
	s := &Statement{}
	for name, dst := range map[string]*kyber.Point{"g": &s.G, "h": &s.H, "a": &s.A, "b": &s.B} {
		if *dst, err = p.suite.UnmarshalPoint(elems[name]); err != nil {
			return nil, err
		}
	}
	return s, p.ValidateStatement(s)
}

func (p *Protocol) statement(s sigma.Statement) (*Statement, bool) {
	st, ok := s.(*Statement)
	if !ok || st == nil {
		return nil, false
	}
	g := p.suite.Group
	return st, crypto.InGroup(g, st.G) && crypto.InGroup(g, st.H) &&
		crypto.InGroup(g, st.A) && crypto.InGroup(g, st.B)
}

// ValidateStatement implements sigma.Protocol. None of the points may be the
// identity and all must lie in the prime order subgroup.
func (p *Protocol) ValidateStatement(s sigma.Statement) error {
	st, ok := p.statement(s)
	if !ok {
		return sigma.Errorf(sigma.KindInvalidStatement, "not a complete dleq statement over %s", p.suite)
	}
	for _, e := range []struct {
		name string
		p    kyber.Point
	}{{"g", st.G}, {"h", st.H}, {"a", st.A}, {"b", st.B}} {
		if crypto.IsIdentity(p.suite.Group, e.p) {
			return sigma.Errorf(sigma.KindInvalidStatement, "%s is the identity", e.name)
		}
		if !p.suite.InSubgroup(e.p) {
			return sigma.Errorf(sigma.KindInvalidStatement, "%s is outside the prime order subgroup", e.name)
		}
	}
	return nil
}

// Commit implements sigma.Protocol.
func (p *Protocol) Commit(w sigma.Witness, s sigma.Statement, rand cipher.Stream) (sigma.Commitment, sigma.Secret, error) {
	st, ok := p.statement(s)
	if !ok {
		return nil, nil, sigma.Errorf(sigma.KindInvalidStatement, "not a complete dleq statement")
	}
	wt, ok := w.(*Witness)
	if !ok || wt == nil || !crypto.ScalarInGroup(p.suite.Group, wt.X) {
		return nil, nil, sigma.Errorf(sigma.KindInvalidWitness, "not a dleq witness")
	}
	g := p.suite.Group
	if !g.Point().Mul(wt.X, st.G).Equal(st.A) || !g.Point().Mul(wt.X, st.H).Equal(st.B) {
		return nil, nil, sigma.Errorf(sigma.KindInvalidWitness, "witness is not the common discrete log")
	}
	r := g.Scalar().Pick(rand)
	return &Commitment{T1: g.Point().Mul(r, st.G), T2: g.Point().Mul(r, st.H)}, &nonce{r: r}, nil
}

// Respond implements sigma.Protocol.
func (p *Protocol) Respond(w sigma.Witness, s sigma.Statement, state sigma.Secret, c sigma.Challenge) (sigma.Response, error) {
	wt, ok := w.(*Witness)
	if !ok || wt == nil || !crypto.ScalarInGroup(p.suite.Group, wt.X) {
		return nil, sigma.Errorf(sigma.KindInvalidWitness, "not a dleq witness")
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
	g := p.suite.Group
	com, ok := cm.(*Commitment)
	if !ok || com == nil || !crypto.InGroup(g, com.T1) || !crypto.InGroup(g, com.T2) {
		return false
	}
	resp, ok := r.(*Response)
	if !ok || resp == nil || !crypto.ScalarInGroup(g, resp.Z) {
		return false
	}
	e, err := p.suite.DecodeChallengeScalar(c)
	if err != nil {
		return false
	}
	check := func(base, claim, t kyber.Point) bool {
		right := g.Point().Mul(e, claim)
		right.Add(right, t)
		return g.Point().Mul(resp.Z, base).Equal(right)
	}
	// both equations are evaluated so the outcome does not leak which failed
	ok1 := check(st.G, st.A, com.T1)
	ok2 := check(st.H, st.B, com.T2)
	return ok1 && ok2
}

// DecodeChallenge implements sigma.Protocol; the result is a kyber.Scalar.
func (p *Protocol) DecodeChallenge(c sigma.Challenge) (sigma.ProtocolChallenge, error) {
	return p.suite.DecodeChallengeScalar(c)
}

// UnmarshalCommitment implements sigma.Protocol.
func (p *Protocol) UnmarshalCommitment(_ sigma.Statement, data []byte) (sigma.Commitment, error) {
	n := p.suite.Group.PointLen()
	if len(data) != 2*n {
		return nil, sigma.Errorf(sigma.KindSerialization, "commitment of %d bytes, expected %d", len(data), 2*n)
	}
	t1, err := p.suite.UnmarshalPoint(data[:n])
	if err != nil {
		return nil, err
	}
	t2, err := p.suite.UnmarshalPoint(data[n:])
	if err != nil {
		return nil, err
	}
	return &Commitment{T1: t1, T2: t2}, nil
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

// SimulateCommitment implements sigma.Simulator:
// (T1, T2) = (z·g - c·a, z·h - c·b).
func (p *Protocol) SimulateCommitment(s sigma.Statement, c sigma.Challenge, r sigma.Response) (sigma.Commitment, error) {
	st, ok := p.statement(s)
	if !ok {
		return nil, sigma.Errorf(sigma.KindInvalidStatement, "not a complete dleq statement")
	}
	g := p.suite.Group
	resp, ok := r.(*Response)
	if !ok || resp == nil || !crypto.ScalarInGroup(g, resp.Z) {
		return nil, sigma.Errorf(sigma.KindSerialization, "not a dleq response")
	}
	e, err := p.suite.DecodeChallengeScalar(c)
	if err != nil {
		return nil, err
	}
	t1 := g.Point().Mul(resp.Z, st.G)
	t1.Sub(t1, g.Point().Mul(e, st.A))
	t2 := g.Point().Mul(resp.Z, st.H)
	t2.Sub(t2, g.Point().Mul(e, st.B))
	return &Commitment{T1: t1, T2: t2}, nil
}
