package key

import (
	"encoding/hex"

	"github.com/drand/kyber"

	"github.com/drand/sigma/crypto"
)

// PointToString returns a hex-encoded string representation of the given point.
func PointToString(p kyber.Point) string {
	buff, _ := p.MarshalBinary()
	return hex.EncodeToString(buff)
}

// ScalarToString returns a hex-encoded string representation of the given scalar.
func ScalarToString(s kyber.Scalar) string {
	buff, _ := s.MarshalBinary()
	return hex.EncodeToString(buff)
}

// StringToPoint unmarshals a point of the given suite from the given string.
// Only canonical encodings of prime order subgroup points are accepted.
func StringToPoint(suite *crypto.Suite, s string) (kyber.Point, error) {
	buff, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return suite.UnmarshalPoint(buff)
}

// StringToScalar unmarshals a scalar in the given group from the given string.
// Only reduced scalars are accepted.
func StringToScalar(g kyber.Group, s string) (kyber.Scalar, error) {
	buff, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return crypto.UnmarshalScalar(g, buff)
}
