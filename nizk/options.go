package nizk

import (
	"crypto/cipher"

	"github.com/drand/kyber/util/random"

	"github.com/drand/sigma/hashes"
	"github.com/drand/sigma/log"
)

// DefaultHash is the transcript hash function used when none is configured.
const DefaultHash = hashes.SHA3_256

type config struct {
	hash      hashes.ID
	policy    hashes.Registry
	log       log.Logger
	newRandom func() cipher.Stream
}

// Option configures a Compiler.
type Option func(*config)

// WithHash selects the transcript hash function.
func WithHash(id hashes.ID) Option {
	return func(c *config) {
		c.hash = id
	}
}

// WithPolicy sets the hash policy consulted by the transcript hasher.
func WithPolicy(p hashes.Registry) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithLogger sets the logger. Secrets are never logged.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithRandomness sets the source of commitment randomness. The function is
// called once per prove call and must return an independent stream each time.
func WithRandomness(f func() cipher.Stream) Option {
	return func(c *config) {
		c.newRandom = f
	}
}

func defaultConfig() *config {
	return &config{
		hash:   DefaultHash,
		policy: hashes.DefaultPolicy(),
		newRandom: func() cipher.Stream {
			return random.New()
		},
	}
}
