package sigma

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

const (
	// LabelLength is the length of a protocol identifier in bytes.
	LabelLength = 32
	// ChallengeLength is the length of a challenge in bytes.
	ChallengeLength = 32
)

// DomainSeparator is bound into every transcript, ahead of the protocol and
// application identifiers.
var DomainSeparator = []byte("zkpstd/sigma/0.1")

// Label identifies a protocol instantiation, e.g. Schnorr over ed25519. It is
// the protocol_id tag of serialized proofs.
type Label [LabelLength]byte

// NewLabel builds a label from a printable name, right padded with zeros.
func NewLabel(name string) (Label, error) {
	var l Label
	if len(name) == 0 || len(name) > LabelLength {
		return l, fmt.Errorf("label %q must be between 1 and %d bytes", name, LabelLength)
	}
	copy(l[:], name)
	return l, nil
}

// MustLabel is NewLabel for package level constants.
func MustLabel(name string) Label {
	l, err := NewLabel(name)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the printable name for labels built with NewLabel, and the
// hex encoding otherwise.
func (l Label) String() string {
	name := bytes.TrimRight(l[:], "\x00")
	for _, c := range name {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(l[:])
		}
	}
	return string(name)
}

// Challenge is the fixed size Fiat-Shamir challenge. Its wire format does not
// depend on any protocol; protocols map it into their own domain with
// Protocol.DecodeChallenge.
type Challenge [ChallengeLength]byte

func (c Challenge) String() string {
	return hex.EncodeToString(c[:])
}
