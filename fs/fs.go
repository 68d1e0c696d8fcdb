// Package fs holds some utilities for manipulating the file system
package fs

import (
	"fmt"
	"os"
	"os/user"
	"path"
)

const defaultDirectoryPermission = 0740

// HomeFolder returns the home folder of the current user
func HomeFolder() string {
	u, err := user.Current()
	if err != nil {
		panic(err)
	}
	return u.HomeDir
}

// CreateSecureFolder checks if the folder exists and has the appropriate
// permission rights. If the folder doesn't exist it creates it. An existing
// folder with other permissions is rejected.
func CreateSecureFolder(folder string) (string, error) {
	exists, err := Exists(folder)
	if err != nil {
		return "", err
	}
	if !exists {
		if err := os.MkdirAll(folder, defaultDirectoryPermission); err != nil {
			return "", err
		}
		// MkdirAll is subject to the umask
		return folder, os.Chmod(folder, defaultDirectoryPermission)
	}
	// the folder exists already
	info, err := os.Lstat(folder)
	if err != nil {
		return "", err
	}
	if perm := info.Mode().Perm(); perm != defaultDirectoryPermission {
		return "", fmt.Errorf("folder %s has permission %#o, expected %#o", folder, perm, defaultDirectoryPermission)
	}
	return folder, nil
}

// Exists returns whether the given file or directory exists.
func Exists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return true, err
}

// CreateSecureFile creates a file with wr permission for user only and returns
// the file handle.
func CreateSecureFile(file string) (*os.File, error) {
	fd, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	fd.Close()
	if err := os.Chmod(file, 0600); err != nil {
		return nil, err
	}
	return os.OpenFile(file, os.O_RDWR|os.O_TRUNC, 0600)
}

// Files returns the list of file names included in the given path or error if
// any.
func Files(folderPath string) ([]string, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range entries {
		if !f.IsDir() {
			files = append(files, path.Join(folderPath, f.Name()))
		}
	}
	return files, nil
}

// FileExists returns true if the given name is a file in the given path. name
// must be the "basename" of the file and path must be the folder where it lies.
func FileExists(filePath, name string) bool {
	list, err := Files(filePath)
	if err != nil {
		return false
	}

	for _, l := range list {
		if l == path.Join(filePath, name) {
			return true
		}
	}

	return false
}
