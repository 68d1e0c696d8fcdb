package crypto

import (
	"math/big"

	"github.com/drand/kyber"

	"github.com/drand/sigma"
)

// DecodeChallengeRejection maps a challenge to an integer in [0, order) by
// rejection sampling. The challenge is read as a big endian integer, masked
// to order.BitLen() bits, and rejected with sigma.ErrInvalidChallengeEncoding
// when the masked value is not below order. Accepted values are uniform on
// [0, order) for orders of at most 256 bits; no modular reduction is applied,
// so there is no reduction bias. The rejection rate is 1 - order/2^BitLen().
//
// For orders larger than 2^256 every challenge is accepted and the result is
// uniform on [0, 2^256) only.
func DecodeChallengeRejection(c sigma.Challenge, order *big.Int) (*big.Int, error) {
	v := new(big.Int).SetBytes(c[:])
	bits := order.BitLen()
	if bits < 8*sigma.ChallengeLength {
		mask := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		mask.Sub(mask, big.NewInt(1))
		v.And(v, mask)
	}
	if v.Cmp(order) >= 0 {
		return nil, sigma.Errorf(sigma.KindInvalidChallengeEncoding, "masked challenge %s exceeds the group order", c)
	}
	return v, nil
}

// DecodeChallengeScalar is DecodeChallengeRejection for the scalars of s.
func (s *Suite) DecodeChallengeScalar(c sigma.Challenge) (kyber.Scalar, error) {
	v, err := DecodeChallengeRejection(c, s.Order)
	if err != nil {
		return nil, err
	}
	return ScalarFromBig(s.Group, v), nil
}
