package hashes

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// PolicyTOML is the file form of a Policy:
//
//	default = "sha3-256"
//	allowed = ["sha3-256", "blake2b-512"]
type PolicyTOML struct {
	Default string   `toml:"default"`
	Allowed []string `toml:"allowed"`
}

// Config is a loaded policy together with the hash function to use when the
// caller does not pick one.
type Config struct {
	Policy  *Policy
	Default ID
}

// PolicyFromTOML decodes a policy. An empty allow-list falls back to
// DefaultIDs; the default must be allowed.
func PolicyFromTOML(data []byte) (*Config, error) {
	var pt PolicyTOML
	md, err := toml.Decode(string(data), &pt)
	if err != nil {
		return nil, fmt.Errorf("decoding hash policy: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown hash policy keys: %v", undecoded)
	}

	ids := DefaultIDs
	if len(pt.Allowed) > 0 {
		ids = make([]ID, 0, len(pt.Allowed))
		for _, a := range pt.Allowed {
			ids = append(ids, ID(a))
		}
	}
	policy, err := NewPolicy(ids...)
	if err != nil {
		return nil, err
	}

	def := SHA3_256
	if pt.Default != "" {
		def = ID(pt.Default)
	}
	if !policy.IsAllowed(def) {
		return nil, fmt.Errorf("default hash %q is not allowed by the policy", def)
	}
	return &Config{Policy: policy, Default: def}, nil
}

// LoadPolicy reads a TOML policy file.
func LoadPolicy(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return PolicyFromTOML(data)
}

// TOML returns the file form of c.
func (c *Config) TOML() *PolicyTOML {
	pt := &PolicyTOML{Default: string(c.Default)}
	for _, id := range c.Policy.Allowed() {
		pt.Allowed = append(pt.Allowed, string(id))
	}
	return pt
}
