// Package entropy lets users feed their own entropy into the commitment
// randomness of the prover.
package entropy

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/drand/kyber"
	"github.com/drand/kyber/util/random"
	"github.com/drand/kyber/xof/blake2xb"
)

// ScriptReader reads entropy from the standard output of an executable.
type ScriptReader struct {
	Path string
}

var _ io.Reader = &ScriptReader{}

// Read calls the executable as many times needed to fill the array p
// n == len(p) if and only if err == nil
func (r *ScriptReader) Read(p []byte) (n int, err error) {
	if r.Path == "" {
		return 0, errors.New("no reader was provided")
	}
	read := 0
	for read < len(p) {
		var b bytes.Buffer
		cmd := exec.Command(r.Path) // #nosec
		cmd.Stdout = &b
		if err := cmd.Run(); err != nil {
			return read, fmt.Errorf("entropy: running %s: %w", r.Path, err)
		}
		if b.Len() == 0 {
			return read, fmt.Errorf("entropy: %s produced no output", r.Path)
		}
		read += copy(p[read:], b.Bytes())
	}
	return len(p), nil
}

// GetPath returns the path of the script
func (r *ScriptReader) GetPath() string {
	return r.Path
}

// NewScriptReader creates a new ScriptReader struct
func NewScriptReader(path string) *ScriptReader {
	return &ScriptReader{path}
}

// NewStream returns a constructor of randomness streams seeded from source.
// Unless userOnly is set the seed also includes crypto/rand output, so a weak
// source cannot make the stream weaker than the system generator.
//
// With userOnly the source is the only entropy. Each stream is an XOF seeded
// once from 32 bytes of the source, the time, the process id and a process
// wide counter, so no two streams repeat even when the source does.
func NewStream(source io.Reader, userOnly bool) func() cipher.Stream {
	if !userOnly {
		return func() cipher.Stream {
			return random.New(rand.Reader, source)
		}
	}
	return func() cipher.Stream {
		salt := make([]byte, saltLen)
		binary.BigEndian.PutUint64(salt[0:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(salt[8:16], uint64(os.Getpid()))
		binary.BigEndian.PutUint64(salt[16:24], atomic.AddUint64(&streams, 1))
		return &userStream{source: source, salt: salt}
	}
}

const (
	sourceSeedLen = 32
	saltLen       = 24
)

// streams counts the user streams of the process.
var streams uint64

// userStream reads its seed on first use, so that a failing source panics
// inside the caller's sampling rather than at construction.
type userStream struct {
	source io.Reader
	salt   []byte
	xof    kyber.XOF
}

func (u *userStream) XORKeyStream(dst, src []byte) {
	if u.xof == nil {
		seed := make([]byte, sourceSeedLen, sourceSeedLen+len(u.salt))
		if _, err := io.ReadFull(u.source, seed); err != nil {
			panic(fmt.Errorf("entropy: reading user source: %w", err))
		}
		u.xof = blake2xb.New(append(seed, u.salt...))
	}
	u.xof.XORKeyStream(dst, src)
}
