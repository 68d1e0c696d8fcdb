package sigma

import (
	"errors"
	"fmt"
)

// Kind classifies every failure surfaced by the sigma packages.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = iota
	KindInvalidWitness
	KindInvalidStatement
	KindInvalidChallengeEncoding
	KindHashFunctionNotAllowed
	KindSerialization
	KindVerificationFailed
)

var (
	// ErrInvalidWitness is returned when a witness does not satisfy the
	// relation of the statement it is used with.
	ErrInvalidWitness = errors.New("invalid witness")
	// ErrInvalidStatement is returned for statements a protocol cannot accept:
	// missing elements, foreign types or degenerate values.
	ErrInvalidStatement = errors.New("invalid statement")
	// ErrInvalidChallengeEncoding is returned when the 32 challenge bytes do not
	// map into a protocol's challenge domain. The prover must start over with
	// fresh randomness.
	ErrInvalidChallengeEncoding = errors.New("invalid challenge encoding")
	// ErrHashFunctionNotAllowed is returned when the hash policy rejects the
	// configured hash function.
	ErrHashFunctionNotAllowed = errors.New("hash function not allowed")
	// ErrSerialization is returned for malformed encodings: truncated input,
	// bad length prefixes, trailing bytes or invalid group elements.
	ErrSerialization = errors.New("serialization error")
	// ErrVerificationFailed is the expected outcome of verifying a well formed
	// proof that does not hold. It never denotes malformed input.
	ErrVerificationFailed = errors.New("verification failed")
)

var kinds = []struct {
	kind Kind
	err  error
}{
	{KindInvalidWitness, ErrInvalidWitness},
	{KindInvalidStatement, ErrInvalidStatement},
	{KindInvalidChallengeEncoding, ErrInvalidChallengeEncoding},
	{KindHashFunctionNotAllowed, ErrHashFunctionNotAllowed},
	{KindSerialization, ErrSerialization},
	{KindVerificationFailed, ErrVerificationFailed},
}

// Err returns the sentinel error of k, nil for KindUnknown.
func (k Kind) Err() error {
	for _, e := range kinds {
		if e.kind == k {
			return e.err
		}
	}
	return nil
}

func (k Kind) String() string {
	if err := k.Err(); err != nil {
		return err.Error()
	}
	return "unknown"
}

// KindOf returns the kind of the first sentinel found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, e := range kinds {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindUnknown
}

// Errorf formats a message and wraps the sentinel of kind so that errors.Is
// and KindOf recognize the result.
func Errorf(kind Kind, format string, args ...interface{}) error {
	sentinel := kind.Err()
	if sentinel == nil {
		return fmt.Errorf(format, args...)
	}
	return &kindError{sentinel: sentinel, err: fmt.Errorf(format, args...)}
}

type kindError struct {
	sentinel error
	err      error
}

func (e *kindError) Error() string {
	return e.sentinel.Error() + ": " + e.err.Error()
}

// Is matches the sentinel, Unwrap exposes the formatted cause.
func (e *kindError) Is(target error) bool {
	return target == e.sentinel
}

func (e *kindError) Unwrap() error {
	return e.err
}
