package crypto

import (
	"math/big"
	"testing"

	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/drand/sigma"
)

// Every masked value below the order is hit by exactly the same number of
// inputs, so the accepted output is uniform.
func TestDecodeRejectionExactUniformity(t *testing.T) {
	order := big.NewInt(5)
	counts := make(map[int64]int)
	rejected := 0
	for b := 0; b < 256; b++ {
		var c sigma.Challenge
		c[sigma.ChallengeLength-1] = byte(b)
		c[0] = byte(b) // high bits are masked away
		v, err := DecodeChallengeRejection(c, order)
		if err != nil {
			require.ErrorIs(t, err, sigma.ErrInvalidChallengeEncoding)
			rejected++
			continue
		}
		counts[v.Int64()]++
	}
	require.Len(t, counts, 5)
	for v, n := range counts {
		require.Equal(t, 32, n, "value %d", v)
	}
	require.Equal(t, 96, rejected)
}

func TestDecodeRejectionRange(t *testing.T) {
	for _, s := range []*Suite{NewEd25519(), NewBLS12381G1()} {
		t.Run(s.Name, func(t *testing.T) {
			const draws = 4000
			stream := random.New()
			accepted := 0
			for i := 0; i < draws; i++ {
				var c sigma.Challenge
				stream.XORKeyStream(c[:], c[:])
				v, err := DecodeChallengeRejection(c, s.Order)
				if err != nil {
					require.ErrorIs(t, err, sigma.ErrInvalidChallengeEncoding)
					continue
				}
				accepted++
				require.True(t, v.Sign() >= 0)
				require.True(t, v.Cmp(s.Order) < 0)
			}

			// expected acceptance rate is order / 2^bitlen
			rate, _ := new(big.Float).Quo(
				new(big.Float).SetInt(s.Order),
				new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), uint(s.Order.BitLen()))),
			).Float64()
			expected := rate * draws
			require.InDelta(t, expected, float64(accepted), 0.06*draws)
		})
	}
}

func TestDecodeRejectionBoundaries(t *testing.T) {
	s := NewEd25519()

	var zero sigma.Challenge
	v, err := DecodeChallengeRejection(zero, s.Order)
	require.NoError(t, err)
	require.Equal(t, 0, v.Sign())

	var c sigma.Challenge
	below := new(big.Int).Sub(s.Order, big.NewInt(1))
	below.FillBytes(c[:])
	v, err = DecodeChallengeRejection(c, s.Order)
	require.NoError(t, err)
	require.Equal(t, 0, v.Cmp(below))

	s.Order.FillBytes(c[:])
	_, err = DecodeChallengeRejection(c, s.Order)
	require.ErrorIs(t, err, sigma.ErrInvalidChallengeEncoding)

	sc, err := s.DecodeChallengeScalar(zero)
	require.NoError(t, err)
	require.True(t, sc.Equal(s.Group.Scalar().Zero()))
}
