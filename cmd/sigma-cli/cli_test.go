package sigmacli

import (
	"bytes"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drand/sigma"
	"github.com/drand/sigma/crypto"
	"github.com/drand/sigma/key"
)

// run executes the app with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buff bytes.Buffer
	output = &buff
	defer func() { output = os.Stdout }()
	err := CLI().Run(append([]string{"sigma"}, args...))
	return buff.String(), err
}

func lines(out string) []string {
	return strings.Split(strings.TrimSpace(out), "\n")
}

func TestKeyGen(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp, "--suite", crypto.BLS12381G1ID)
	require.NoError(t, err)

	store, err := key.NewFileStore(tmp)
	require.NoError(t, err)
	pair, err := store.LoadKeyPair()
	require.NoError(t, err)
	require.Equal(t, crypto.BLS12381G1ID, pair.Public.Suite.Name)

	// an existing key pair is never overwritten, even when unreadable
	_, err = run(t, "keygen", "--folder", tmp)
	require.Error(t, err)
	private := path.Join(tmp, key.KeyFolderName, "sigma_id.private")
	require.NoError(t, os.WriteFile(private, []byte("garbage"), 0600))
	_, err = run(t, "keygen", "--folder", tmp)
	require.Error(t, err)
	content, err := os.ReadFile(private)
	require.NoError(t, err)
	require.Equal(t, "garbage", string(content))

	_, err = run(t, "keygen", "--folder", t.TempDir(), "--suite", "p256")
	require.Error(t, err)
}

func TestProveVerify(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp)
	require.NoError(t, err)

	out, err := run(t, "prove", "--folder", tmp, "--context", "login")
	require.NoError(t, err)
	proof := lines(out)[0]

	out, err = run(t, "verify", "--folder", tmp, "--context", "login", "--proof", proof)
	require.NoError(t, err)
	require.Contains(t, out, "proof valid")

	out, err = run(t, "verify", "--folder", tmp, "--context", "logout", "--proof", proof)
	require.ErrorIs(t, err, sigma.ErrVerificationFailed)
	require.Contains(t, out, "proof invalid")

	out, err = run(t, "verify", "--folder", tmp, "--context", "login", "--proof", proof[:len(proof)-2])
	require.ErrorIs(t, err, sigma.ErrSerialization)
	require.Contains(t, out, "proof malformed")

	_, err = run(t, "verify", "--folder", tmp, "--proof", "not hex")
	require.ErrorIs(t, err, sigma.ErrSerialization)

	_, err = run(t, "verify", "--folder", tmp)
	require.Error(t, err)

	// the public key file alone is enough
	other := t.TempDir()
	_, err = run(t, "keygen", "--folder", other)
	require.NoError(t, err)
	public := path.Join(tmp, key.KeyFolderName, "sigma_id.public")
	out, err = run(t, "verify", "--folder", other, "--public", public, "--context", "login", "--proof", proof)
	require.NoError(t, err)
	require.Contains(t, out, "proof valid")
	_, err = run(t, "verify", "--folder", other, "--context", "login", "--proof", proof)
	require.ErrorIs(t, err, sigma.ErrVerificationFailed)
}

func TestShortProof(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp, "--suite", crypto.BLS12381G2ID)
	require.NoError(t, err)

	out, err := run(t, "prove", "--folder", tmp, "--short")
	require.NoError(t, err)
	proof := lines(out)[0]

	_, err = run(t, "verify", "--folder", tmp, "--short", "--proof", proof)
	require.NoError(t, err)
	// a short proof is not a batchable proof
	_, err = run(t, "verify", "--folder", tmp, "--proof", proof)
	require.ErrorIs(t, err, sigma.ErrSerialization)
}

func TestStoredProofs(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp)
	require.NoError(t, err)

	out, err := run(t, "prove", "--folder", tmp, "--context", "stored", "--store")
	require.NoError(t, err)
	outLines := lines(out)
	require.Len(t, outLines, 2)
	id := strings.TrimPrefix(outLines[1], "stored proof ")

	out, err = run(t, "verify", "--folder", tmp, "--id", id)
	require.NoError(t, err)
	require.Contains(t, out, "proof valid")

	out, err = run(t, "list", "--folder", tmp)
	require.NoError(t, err)
	require.Contains(t, out, id)
	require.Contains(t, out, "schnorr-dlog/ed25519")

	out, err = run(t, "prove", "--folder", tmp, "--short", "--store")
	require.NoError(t, err)
	shortID := strings.TrimPrefix(lines(out)[1], "stored proof ")
	out, err = run(t, "verify", "--folder", tmp, "--id", shortID)
	require.NoError(t, err)
	require.Contains(t, out, "proof valid")

	_, err = run(t, "verify", "--folder", tmp, "--id", strings.Repeat("00", 32))
	require.Error(t, err)

	// the stored proof tag selects the suite of the record
	bls := t.TempDir()
	_, err = run(t, "keygen", "--folder", bls, "--suite", crypto.BLS12381G2ID)
	require.NoError(t, err)
	out, err = run(t, "prove", "--folder", bls, "--store")
	require.NoError(t, err)
	blsID := strings.TrimPrefix(lines(out)[1], "stored proof ")
	out, err = run(t, "verify", "--folder", bls, "--id", blsID)
	require.NoError(t, err)
	require.Contains(t, out, "proof valid")
}

func TestHashPolicy(t *testing.T) {
	tmp := t.TempDir()
	policy := path.Join(tmp, "policy.toml")
	require.NoError(t, os.WriteFile(policy, []byte("default = \"blake2b-512\"\nallowed = [\"blake2b-512\", \"sha512\"]\n"), 0600))

	out, err := run(t, "hashes", "--policy", policy)
	require.NoError(t, err)
	require.Contains(t, out, "blake2b-512")
	require.Regexp(t, `sha3-256 .* denied`, out)

	_, err = run(t, "keygen", "--folder", tmp)
	require.NoError(t, err)
	out, err = run(t, "prove", "--folder", tmp, "--policy", policy)
	require.NoError(t, err)
	proof := lines(out)[0]

	_, err = run(t, "verify", "--folder", tmp, "--policy", policy, "--proof", proof)
	require.NoError(t, err)
	_, err = run(t, "verify", "--folder", tmp, "--hash", "blake2b-512", "--proof", proof)
	require.NoError(t, err)
	_, err = run(t, "verify", "--folder", tmp, "--proof", proof)
	require.ErrorIs(t, err, sigma.ErrVerificationFailed)

	_, err = run(t, "prove", "--folder", tmp, "--policy", policy, "--hash", "sha3-256")
	require.ErrorIs(t, err, sigma.ErrHashFunctionNotAllowed)
}

func TestUserEntropy(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp)
	require.NoError(t, err)
	source := path.Join(tmp, "entropy.sh")
	require.NoError(t, os.WriteFile(source, []byte("#!/bin/sh\nprintf 'not so random'\n"), 0700))

	prove := func(args ...string) string {
		out, err := run(t, append([]string{"prove", "--folder", tmp}, args...)...)
		require.NoError(t, err)
		return lines(out)[0]
	}
	// a constant source never makes two runs share a commitment
	p1 := prove("--source", source, "--user-source-only")
	p2 := prove("--source", source, "--user-source-only")
	require.NotEqual(t, p1, p2)
	_, err = run(t, "verify", "--folder", tmp, "--proof", p2)
	require.NoError(t, err)
	require.NotEqual(t, prove("--source", source), prove("--source", source))

	_, err = run(t, "verify", "--folder", tmp, "--proof", p1)
	require.NoError(t, err)

	_, err = run(t, "prove", "--folder", tmp, "--user-source-only")
	require.Error(t, err)
}

func TestMetricsFile(t *testing.T) {
	tmp := t.TempDir()
	_, err := run(t, "keygen", "--folder", tmp)
	require.NoError(t, err)
	file := path.Join(tmp, "sigma.prom")
	_, err = run(t, "--metrics-file", file, "prove", "--folder", tmp)
	require.NoError(t, err)

	buff, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(buff), `sigma_prove_total{outcome="ok",protocol="schnorr-dlog/ed25519"}`)
}
