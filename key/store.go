package key

import (
	"errors"
	"os"
	"path"

	"github.com/BurntSushi/toml"

	"github.com/drand/sigma/fs"
)

// Store abstracts the loading and saving of key material. Only a file based
// store is implemented.
type Store interface {
	// SaveKeyPair saves the private key in a file with tight permissions and
	// the public part in another file.
	SaveKeyPair(p *Pair) error
	// LoadKeyPair loads the private key and checks the public file against it.
	LoadKeyPair() (*Pair, error)
	// LoadPublic loads the public key only.
	LoadPublic() (*Public, error)
	// KeyPairExists reports whether a private key file is present, readable
	// or not.
	KeyPairExists() bool
}

// ErrPublicMismatch is returned when the public key file does not belong to
// the private key.
var ErrPublicMismatch = errors.New("public key file does not match the private key")

// KeyFolderName is the name of the folder where the key pair is stored.
const KeyFolderName = "key"

const keyFileName = "sigma_id"
const privateExtension = ".private"
const publicExtension = ".public"

type fileStore struct {
	baseFolder     string
	keyFolder      string
	privateKeyFile string
	publicKeyFile  string
}

// NewFileStore returns a Store saving keys under baseFolder/key.
func NewFileStore(baseFolder string) (Store, error) {
	keyFolder, err := fs.CreateSecureFolder(path.Join(baseFolder, KeyFolderName))
	if err != nil {
		return nil, err
	}
	return &fileStore{
		baseFolder:     baseFolder,
		keyFolder:      keyFolder,
		privateKeyFile: path.Join(keyFolder, keyFileName) + privateExtension,
		publicKeyFile:  path.Join(keyFolder, keyFileName) + publicExtension,
	}, nil
}

func (f *fileStore) SaveKeyPair(p *Pair) error {
	if err := Save(f.privateKeyFile, p, true); err != nil {
		return err
	}
	return Save(f.publicKeyFile, p.Public, false)
}

func (f *fileStore) LoadKeyPair() (*Pair, error) {
	p := new(Pair)
	if err := Load(f.privateKeyFile, p); err != nil {
		return nil, err
	}
	pub, err := f.LoadPublic()
	if err != nil {
		return nil, err
	}
	if !pub.Equal(p.Public) {
		return nil, ErrPublicMismatch
	}
	return p, nil
}

func (f *fileStore) KeyPairExists() bool {
	return fs.FileExists(f.keyFolder, keyFileName+privateExtension)
}

func (f *fileStore) LoadPublic() (*Public, error) {
	p := new(Public)
	return p, Load(f.publicKeyFile, p)
}

// Save writes the TOML form of t to filePath, with user only permissions when
// secure is set.
func Save(filePath string, t Tomler, secure bool) error {
	var fd *os.File
	var err error
	if secure {
		fd, err = fs.CreateSecureFile(filePath)
	} else {
		fd, err = os.Create(filePath)
	}
	if err != nil {
		return err
	}
	defer fd.Close()
	return toml.NewEncoder(fd).Encode(t.TOML())
}

// Load decodes the TOML file at filePath into t.
func Load(filePath string, t Tomler) error {
	tomlValue := t.TOMLValue()
	if _, err := toml.DecodeFile(filePath, tomlValue); err != nil {
		return err
	}
	return t.FromTOML(tomlValue)
}
