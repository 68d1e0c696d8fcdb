// Package key holds the long term key pairs used as witnesses and statements
// by the command line tool, and their TOML file representation.
package key

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/drand/kyber"

	"github.com/drand/sigma/crypto"
)

// Pair is a secret scalar and its public key in one suite.
type Pair struct {
	Key    kyber.Scalar
	Public *Public
}

// Public is the public key Key = secret·base of a suite.
type Public struct {
	Suite *crypto.Suite
	Key   kyber.Point
}

// NewKeyPair draws a fresh key pair in suite.
func NewKeyPair(suite *crypto.Suite, rand cipher.Stream) *Pair {
	secret := suite.Group.Scalar().Pick(rand)
	return &Pair{
		Key: secret,
		Public: &Public{
			Suite: suite,
			Key:   suite.Group.Point().Mul(secret, nil),
		},
	}
}

// Equal returns true if the public keys match.
func (p *Public) Equal(p2 *Public) bool {
	return p.Suite.Name == p2.Suite.Name && p.Key.Equal(p2.Key)
}

// Tomler represents any struct that can be (un)marshalled into/from toml format
type Tomler interface {
	TOML() interface{}
	FromTOML(i interface{}) error
	TOMLValue() interface{}
}

// PairTOML is the TOML-able version of a private key
type PairTOML struct {
	Suite string
	Key   string
}

// PublicTOML is the TOML-able version of a public key
type PublicTOML struct {
	Suite string
	Key   string
}

// TOML returns a struct that can be marshalled using a TOML-encoding library
func (p *Pair) TOML() interface{} {
	return &PairTOML{
		Suite: p.Public.Suite.Name,
		Key:   ScalarToString(p.Key),
	}
}

// FromTOML constructs the private key from an unmarshalled structure from
// TOML. The public part is recomputed from the secret.
func (p *Pair) FromTOML(i interface{}) error {
	ptoml, ok := i.(*PairTOML)
	if !ok {
		return errors.New("private can't decode toml from non PairTOML struct")
	}
	suite, err := crypto.SuiteFromName(ptoml.Suite)
	if err != nil {
		return err
	}
	p.Key, err = StringToScalar(suite.Group, ptoml.Key)
	if err != nil {
		return fmt.Errorf("private key: %w", err)
	}
	p.Public = &Public{
		Suite: suite,
		Key:   suite.Group.Point().Mul(p.Key, nil),
	}
	return nil
}

// TOMLValue returns an empty TOML-compatible interface value
func (p *Pair) TOMLValue() interface{} {
	return &PairTOML{}
}

// TOML returns the TOML-compatible version of the public key
func (p *Public) TOML() interface{} {
	return &PublicTOML{
		Suite: p.Suite.Name,
		Key:   PointToString(p.Key),
	}
}

// FromTOML loads reads the TOML description of the public key
func (p *Public) FromTOML(i interface{}) error {
	ptoml, ok := i.(*PublicTOML)
	if !ok {
		return errors.New("public can't decode from non PublicTOML struct")
	}
	suite, err := crypto.SuiteFromName(ptoml.Suite)
	if err != nil {
		return err
	}
	p.Suite = suite
	p.Key, err = StringToPoint(suite, ptoml.Key)
	if err != nil {
		return fmt.Errorf("public key: %w", err)
	}
	return nil
}

// TOMLValue returns a TOML-compatible interface value
func (p *Public) TOMLValue() interface{} {
	return &PublicTOML{}
}
