package entropy

import (
	"crypto/cipher"
	"os"
	"path"
	"testing"

	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/drand/sigma/crypto"
	"github.com/drand/sigma/nizk"
	"github.com/drand/sigma/protocols/schnorr"
)

func script(t *testing.T, body string) string {
	t.Helper()
	file := path.Join(t.TempDir(), "entropy.sh")
	require.NoError(t, os.WriteFile(file, []byte("#!/bin/sh\n"+body+"\n"), 0700))
	return file
}

func TestScriptReader(t *testing.T) {
	r := NewScriptReader(script(t, "printf 0123456789"))
	buff := make([]byte, 25)
	n, err := r.Read(buff)
	require.NoError(t, err)
	require.Equal(t, 25, n)
	require.Equal(t, "0123456789012345678901234", string(buff))

	_, err = NewScriptReader("").Read(buff)
	require.Error(t, err)
	_, err = NewScriptReader(script(t, "exit 1")).Read(buff)
	require.Error(t, err)
	_, err = NewScriptReader(script(t, "true")).Read(buff)
	require.Error(t, err)
}

// constant is a user source that always yields the same bytes.
type constant byte

func (c constant) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

func draw(stream cipher.Stream) []byte {
	out := make([]byte, 32)
	stream.XORKeyStream(out, out)
	return out
}

func TestUserStreams(t *testing.T) {
	first, second := NewStream(constant(1), true), NewStream(constant(1), true)
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		for _, stream := range []cipher.Stream{first(), second()} {
			out := draw(stream)
			require.False(t, seen[string(out)])
			seen[string(out)] = true
			// later draws of one stream keep changing
			require.NotEqual(t, out, draw(stream))
		}
	}

	failing := NewStream(NewScriptReader(""), true)()
	require.Panics(t, func() { draw(failing) })
}

func TestMixedStreams(t *testing.T) {
	source := NewScriptReader(script(t, "printf abcdefgh"))
	mixed := NewStream(source, false)
	require.NotEqual(t, draw(mixed()), draw(mixed()))
}

func TestUserStreamsNeverRepeatCommitments(t *testing.T) {
	for _, src := range []constant{0, 1} {
		p, err := schnorr.New(crypto.NewEd25519())
		require.NoError(t, err)
		w, s := p.KeyPair(random.New())

		commitments := map[string]bool{}
		for _, appContext := range []string{"context a", "context b"} {
			c, err := nizk.New(p, nizk.WithRandomness(NewStream(src, true)))
			require.NoError(t, err)
			var proof *nizk.Proof
			for attempt := 0; attempt < 64; attempt++ {
				proof, err = c.Prove(w, s, []byte(appContext))
				if !nizk.IsRetryable(err) {
					break
				}
			}
			require.NoError(t, err)
			require.NoError(t, c.Verify(s, proof, []byte(appContext)))
			cm, err := proof.Commitment.MarshalBinary()
			require.NoError(t, err)
			require.False(t, commitments[string(cm)])
			commitments[string(cm)] = true
		}
	}
}
