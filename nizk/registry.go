package nizk

import (
	"fmt"
	"sort"
	"sync"

	"github.com/drand/sigma"
)

// Registry selects the compiler of a serialized proof from its protocol tag.
type Registry struct {
	sync.RWMutex
	compilers map[sigma.Label]*Compiler
}

// NewRegistry returns a registry holding cs.
func NewRegistry(cs ...*Compiler) (*Registry, error) {
	r := &Registry{compilers: make(map[sigma.Label]*Compiler, len(cs))}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds c. Two compilers of the same protocol id cannot coexist.
func (r *Registry) Register(c *Compiler) error {
	r.Lock()
	defer r.Unlock()
	id := c.protocol.ID()
	if _, exists := r.compilers[id]; exists {
		return fmt.Errorf("protocol %s already registered", id)
	}
	r.compilers[id] = c
	return nil
}

// Lookup returns the compiler registered for id.
func (r *Registry) Lookup(id sigma.Label) (*Compiler, bool) {
	r.RLock()
	defer r.RUnlock()
	c, ok := r.compilers[id]
	return c, ok
}

// Protocols returns the registered protocol ids, sorted by name.
func (r *Registry) Protocols() []sigma.Label {
	r.RLock()
	defer r.RUnlock()
	ids := make([]sigma.Label, 0, len(r.compilers))
	for id := range r.compilers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Select returns the compiler matching the tag of a serialized proof. An
// unknown tag is a serialization error.
func (r *Registry) Select(data []byte) (*Compiler, error) {
	id, err := ProtocolOf(data)
	if err != nil {
		return nil, err
	}
	c, ok := r.Lookup(id)
	if !ok {
		return nil, sigma.Errorf(sigma.KindSerialization, "unknown protocol %s", id)
	}
	return c, nil
}

// VerifyBytes selects the compiler of data and verifies the proof with it.
func (r *Registry) VerifyBytes(s sigma.Statement, data []byte, context []byte) error {
	c, err := r.Select(data)
	if err != nil {
		return err
	}
	return c.VerifyBytes(s, data, context)
}
