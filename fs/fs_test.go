package fs

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureDirCreated(t *testing.T) {
	tmpPath := path.Join(t.TempDir(), "config")
	folder, err := CreateSecureFolder(tmpPath)
	require.NoError(t, err)
	require.Equal(t, tmpPath, folder)

	// a second call accepts the folder it created
	folder, err = CreateSecureFolder(tmpPath)
	require.NoError(t, err)
	require.Equal(t, tmpPath, folder)
}

func TestSecureDirAlreadyHereWrongPerm(t *testing.T) {
	tmpPath := path.Join(t.TempDir(), "config")
	require.NoError(t, os.Mkdir(tmpPath, 0700))
	folder, err := CreateSecureFolder(tmpPath)
	require.Error(t, err)
	require.Equal(t, "", folder)
}

func TestSecureFile(t *testing.T) {
	tmp := t.TempDir()
	file := path.Join(tmp, "secret")
	fd, err := CreateSecureFile(file)
	require.NoError(t, err)
	_, err = fd.WriteString("secret")
	require.NoError(t, err)
	require.NoError(t, fd.Close())

	info, err := os.Stat(file)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	require.True(t, FileExists(tmp, "secret"))
	require.False(t, FileExists(tmp, "public"))

	exists, err := Exists(file)
	require.NoError(t, err)
	require.True(t, exists)
}
