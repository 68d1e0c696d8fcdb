package crypto

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/group/edwards25519"

	"github.com/drand/sigma"
)

// Suite is a prime order group usable by the reference protocols, together
// with its order, which kyber does not expose generically.
//
// Note: Suite is not meant to be marshaled directly. Refer to it by Name and
// use SuiteFromName.
type Suite struct {
	// Name of the suite, used in protocol labels and key files.
	Name string
	// Group provides scalars and points.
	Group kyber.Group
	// Order of the group, i.e. the modulus of its scalars.
	Order *big.Int
}

func (s *Suite) String() string {
	if s != nil {
		return s.Name
	}
	return ""
}

const (
	// Ed25519ID is the prime order subgroup of edwards25519.
	Ed25519ID = "ed25519"
	// BLS12381G1ID is the G1 group of BLS12-381.
	BLS12381G1ID = "bls12381-g1"
	// BLS12381G2ID is the G2 group of BLS12-381.
	BLS12381G2ID = "bls12381-g2"
)

// DefaultSuiteID is used when nothing else is configured.
const DefaultSuiteID = Ed25519ID

func mustOrder(dec string) *big.Int {
	o, ok := new(big.Int).SetString(dec, 10)
	if !ok {
		panic("invalid group order " + dec)
	}
	return o
}

var (
	// 2^252 + 27742317777372353535851937790883648493
	ed25519Order = mustOrder("7237005577332262213973186563042994240857116359379907606001950938285454250989")
	// 0x73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001
	bls12381Order = mustOrder("52435875175126190479447740508185965837690552500527637822603658699938581184513")
)

// NewEd25519 returns the edwards25519 suite.
func NewEd25519() *Suite {
	return &Suite{
		Name:  Ed25519ID,
		Group: edwards25519.NewBlakeSHA256Ed25519(),
		Order: new(big.Int).Set(ed25519Order),
	}
}

// NewBLS12381G1 returns the G1 group of BLS12-381; points are 48 bytes.
func NewBLS12381G1() *Suite {
	return &Suite{
		Name:  BLS12381G1ID,
		Group: bls.NewBLS12381Suite().G1(),
		Order: new(big.Int).Set(bls12381Order),
	}
}

// NewBLS12381G2 returns the G2 group of BLS12-381; points are 96 bytes.
func NewBLS12381G2() *Suite {
	return &Suite{
		Name:  BLS12381G2ID,
		Group: bls.NewBLS12381Suite().G2(),
		Order: new(big.Int).Set(bls12381Order),
	}
}

// InSubgroup reports whether p is a point of s whose order divides the group
// order. edwards25519 decodes points with a small order component, which
// have no discrete logarithm in the scalar field.
func (s *Suite) InSubgroup(p kyber.Point) bool {
	if !InGroup(s.Group, p) {
		return false
	}
	if p.Equal(s.Group.Point().Base()) {
		return true
	}
	acc := s.Group.Point().Null()
	for i := s.Order.BitLen() - 1; i >= 0; i-- {
		acc = s.Group.Point().Add(acc, acc)
		if s.Order.Bit(i) == 1 {
			acc = s.Group.Point().Add(acc, p)
		}
	}
	return IsIdentity(s.Group, acc)
}

// UnmarshalPoint is UnmarshalPoint over s.Group, additionally rejecting points
// outside the prime order subgroup.
func (s *Suite) UnmarshalPoint(data []byte) (kyber.Point, error) {
	p, err := UnmarshalPoint(s.Group, data)
	if err != nil {
		return nil, err
	}
	if !s.InSubgroup(p) {
		return nil, sigma.Errorf(sigma.KindSerialization, "point outside the prime order subgroup")
	}
	return p, nil
}

var suites = map[string]func() *Suite{
	Ed25519ID:    NewEd25519,
	BLS12381G1ID: NewBLS12381G1,
	BLS12381G2ID: NewBLS12381G2,
}

// SuiteFromName returns a fresh suite for a known name.
func SuiteFromName(name string) (*Suite, error) {
	ctor, ok := suites[name]
	if !ok {
		return nil, fmt.Errorf("unknown suite %q", name)
	}
	return ctor(), nil
}

// ListSuites returns the names of all suites, sorted.
func ListSuites() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
