package crypto

import (
	"bytes"
	"math/big"
	"reflect"

	"github.com/drand/kyber"

	"github.com/drand/sigma"
)

// UnmarshalPoint parses a point of g, accepting only the canonical encoding of
// the expected length. Failures wrap sigma.ErrSerialization.
func UnmarshalPoint(g kyber.Group, data []byte) (kyber.Point, error) {
	if len(data) != g.PointLen() {
		return nil, sigma.Errorf(sigma.KindSerialization, "point of %d bytes, expected %d", len(data), g.PointLen())
	}
	p := g.Point()
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "invalid point: %v", err)
	}
	back, err := p.MarshalBinary()
	if err != nil || !bytes.Equal(back, data) {
		return nil, sigma.Errorf(sigma.KindSerialization, "non canonical point encoding")
	}
	return p, nil
}

// UnmarshalScalar parses a scalar of g, accepting only reduced values of the
// expected length. Failures wrap sigma.ErrSerialization.
func UnmarshalScalar(g kyber.Group, data []byte) (kyber.Scalar, error) {
	if len(data) != g.ScalarLen() {
		return nil, sigma.Errorf(sigma.KindSerialization, "scalar of %d bytes, expected %d", len(data), g.ScalarLen())
	}
	s := g.Scalar()
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, sigma.Errorf(sigma.KindSerialization, "invalid scalar: %v", err)
	}
	// adding zero reduces modulo the group order
	reduced := g.Scalar().Add(s, g.Scalar().Zero())
	back, err := reduced.MarshalBinary()
	if err != nil || !bytes.Equal(back, data) {
		return nil, sigma.Errorf(sigma.KindSerialization, "non canonical scalar encoding")
	}
	return s, nil
}

// ScalarFromBig returns v as a scalar of g. v must be non negative; it is
// reduced modulo the group order by the scalar arithmetic. The conversion
// does not depend on the byte order of g's scalar encoding.
func ScalarFromBig(g kyber.Group, v *big.Int) kyber.Scalar {
	radix := g.Scalar().SetInt64(256)
	digit := g.Scalar()
	s := g.Scalar().Zero()
	for _, b := range v.Bytes() {
		s.Mul(s, radix)
		s.Add(s, digit.SetInt64(int64(b)))
	}
	digit.Zero()
	return s
}

// InGroup reports whether p is a point implementation of g. Points of other
// groups cannot be mixed with g's: kyber panics on such arithmetic.
func InGroup(g kyber.Group, p kyber.Point) bool {
	return p != nil && reflect.TypeOf(p) == reflect.TypeOf(g.Point()) && p.MarshalSize() == g.PointLen()
}

// ScalarInGroup reports whether s is a scalar implementation of g.
func ScalarInGroup(g kyber.Group, s kyber.Scalar) bool {
	return s != nil && reflect.TypeOf(s) == reflect.TypeOf(g.Scalar())
}

// IsIdentity reports whether p is the neutral element of g.
func IsIdentity(g kyber.Group, p kyber.Point) bool {
	return p.Equal(g.Point().Null())
}
