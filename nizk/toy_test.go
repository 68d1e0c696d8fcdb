package nizk

import (
	"crypto/cipher"
	"fmt"
	"sync"

	"github.com/drand/sigma"
)

// toy is a Schnorr-like protocol over the additive group Z_251 with
// generator 3. It is not hiding in any sense but exercises every path of the
// compiler: challenges whose first byte is odd are rejected, and hooks make
// any step fail or panic.
type toy struct {
	mu       sync.Mutex
	id       sigma.Label
	panicAt  string
	errAt    map[string]error
	clones   []*toyWitness
	openings []*toyOpening
}

const toyModulus = 251

func newToy() *toy {
	return &toy{id: sigma.MustLabel("toy/z251"), errAt: map[string]error{}}
}

type toyStatement struct{ y int }

func (s *toyStatement) MarshalBinary() ([]byte, error) {
	return []byte{byte(s.y)}, nil
}

type toyWitness struct {
	owner  *toy
	x      int
	zeroed bool
}

func (w *toyWitness) Zeroize() {
	w.x = 0
	w.zeroed = true
}

func (w *toyWitness) Clone() sigma.Witness {
	c := &toyWitness{owner: w.owner, x: w.x}
	if w.owner != nil {
		w.owner.mu.Lock()
		w.owner.clones = append(w.owner.clones, c)
		w.owner.mu.Unlock()
	}
	return c
}

type toyOpening struct {
	r      int
	zeroed bool
}

func (o *toyOpening) Zeroize() {
	o.r = 0
	o.zeroed = true
}

type toyValue struct{ v int }

func (v *toyValue) MarshalBinary() ([]byte, error) {
	return []byte{byte(v.v)}, nil
}

func (p *toy) witness(x int) (*toyWitness, *toyStatement) {
	return &toyWitness{owner: p, x: x}, &toyStatement{y: (3 * x) % toyModulus}
}

func (p *toy) hook(stage string) error {
	if p.panicAt == stage {
		panic("toy panics at " + stage)
	}
	return p.errAt[stage]
}

func (p *toy) ID() sigma.Label { return p.id }

func (p *toy) ValidateStatement(s sigma.Statement) error {
	if err := p.hook("validate"); err != nil {
		return err
	}
	st, ok := s.(*toyStatement)
	if !ok || st.y <= 0 || st.y >= toyModulus {
		return sigma.Errorf(sigma.KindInvalidStatement, "not a toy statement")
	}
	return nil
}

func (p *toy) Commit(w sigma.Witness, s sigma.Statement, rand cipher.Stream) (sigma.Commitment, sigma.Secret, error) {
	if err := p.hook("commit"); err != nil {
		return nil, nil, err
	}
	wt := w.(*toyWitness)
	if (3*wt.x)%toyModulus != s.(*toyStatement).y {
		return nil, nil, sigma.Errorf(sigma.KindInvalidWitness, "wrong x")
	}
	var b [1]byte
	rand.XORKeyStream(b[:], b[:])
	o := &toyOpening{r: int(b[0]) % toyModulus}
	p.mu.Lock()
	p.openings = append(p.openings, o)
	p.mu.Unlock()
	return &toyValue{v: (3 * o.r) % toyModulus}, o, nil
}

func (p *toy) decode(c sigma.Challenge) (int, error) {
	if c[0]&1 == 1 {
		return 0, sigma.Errorf(sigma.KindInvalidChallengeEncoding, "odd challenge %s", c)
	}
	return int(c[1]) % toyModulus, nil
}

func (p *toy) Respond(w sigma.Witness, s sigma.Statement, state sigma.Secret, c sigma.Challenge) (sigma.Response, error) {
	if err := p.hook("respond"); err != nil {
		return nil, err
	}
	e, err := p.decode(c)
	if err != nil {
		return nil, err
	}
	return &toyValue{v: (state.(*toyOpening).r + e*w.(*toyWitness).x) % toyModulus}, nil
}

func (p *toy) Verify(s sigma.Statement, cm sigma.Commitment, c sigma.Challenge, r sigma.Response) bool {
	if p.panicAt == "verify" {
		panic("toy panics at verify")
	}
	e, err := p.decode(c)
	if err != nil {
		return false
	}
	z := r.(*toyValue).v
	return (3*z)%toyModulus == (cm.(*toyValue).v+e*s.(*toyStatement).y)%toyModulus
}

func (p *toy) DecodeChallenge(c sigma.Challenge) (sigma.ProtocolChallenge, error) {
	return p.decode(c)
}

func (p *toy) unmarshal(data []byte) (*toyValue, error) {
	if p.panicAt == "unmarshal" {
		panic("toy panics at unmarshal")
	}
	if len(data) != 1 || int(data[0]) >= toyModulus {
		return nil, sigma.Errorf(sigma.KindSerialization, "bad toy value %x", data)
	}
	return &toyValue{v: int(data[0])}, nil
}

func (p *toy) UnmarshalCommitment(_ sigma.Statement, data []byte) (sigma.Commitment, error) {
	return p.unmarshal(data)
}

func (p *toy) UnmarshalResponse(_ sigma.Statement, data []byte) (sigma.Response, error) {
	return p.unmarshal(data)
}

func (p *toy) SimulateResponse(_ sigma.Statement, rand cipher.Stream) (sigma.Response, error) {
	var b [1]byte
	rand.XORKeyStream(b[:], b[:])
	return &toyValue{v: int(b[0]) % toyModulus}, nil
}

func (p *toy) SimulateCommitment(s sigma.Statement, c sigma.Challenge, r sigma.Response) (sigma.Commitment, error) {
	e, err := p.decode(c)
	if err != nil {
		return nil, err
	}
	t := (3*r.(*toyValue).v - e*s.(*toyStatement).y) % toyModulus
	if t < 0 {
		t += toyModulus
	}
	return &toyValue{v: t}, nil
}

// clearedAll reports whether every witness clone and opening was zeroized.
func (p *toy) clearedAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.clones {
		if !w.zeroed {
			return fmt.Errorf("witness clone %d not zeroized", i)
		}
	}
	for i, o := range p.openings {
		if !o.zeroed {
			return fmt.Errorf("opening %d not zeroized", i)
		}
	}
	return nil
}

// commitOnly hides the simulator of a protocol.
type commitOnly struct {
	sigma.Protocol
}
