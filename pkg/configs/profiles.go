package configs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hectane/go-acl"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrCannotCreateProfileStore = errors.New("cannot create profile store")
var ErrCannotUpdateProfileStore = errors.New("cannot update profile store")
var ErrProfileNotFound = errors.New("profile is not found")

// DefaultProfile is the name of profile used when none is specified.
const DefaultProfile = "default"

// DefaultProfileStorePath is ~/.dhcore/profiles.yaml
func DefaultProfileStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dhcore", "profiles.yaml"), nil
}

// ProfileStore is a map from profile name to Credentials.
type ProfileStore map[string]*Credentials

// Get the profile named name.
//
// # Returns
//
// - Credentials
//
// - error: ErrProfileNotFound if there is no such profile.
func (ps ProfileStore) Get(name string) (Credentials, error) {
	c, ok := ps[name]
	if !ok || c == nil {
		return Credentials{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return *c, nil
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(path string) (ProfileStore, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, path)
		}
		return nil, err
	}
	return Unmarshall(buf)
}

// Unmarshall profile store from yaml in byte array.
func Unmarshall(buf []byte) (ProfileStore, error) {
	ret := map[string]*Credentials{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file, which only the owner can read.
//
// The previous content is kept at path + ".backup" until saving is done.
// If saving fails, the backup remains.
func (ps ProfileStore) Save(path string) error {
	saving := false

	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	bkpath := path + ".backup"
	bk, err := newSafeFile(bkpath)
	if err != nil {
		return err
	}
	defer func() {
		if !saving {
			os.Remove(bkpath)
		}
	}()
	defer bk.Close()

	f, err := os.OpenFile(path, os.O_RDWR, os.FileMode(0600))
	if err == nil {
		// existing file may have loose permissions.
		if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
			f.Close()
			return err
		}
	} else {
		switch {
		case os.IsPermission(err):
			return fmt.Errorf(
				"%w, because no permission to write file at %s", ErrCannotUpdateProfileStore, path,
			)
		case os.IsNotExist(err):
			f_, err_ := newSafeFile(path)
			if err_ != nil {
				return fmt.Errorf("%w: cannot create a file at %s", ErrCannotCreateProfileStore, path)
			}
			f = f_
		default:
			return err
		}
	}
	defer f.Close()

	if _, err := io.Copy(bk, f); err != nil {
		return err
	}

	saving = true
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	buf, err := yaml.Marshal(map[string]*Credentials(ps))
	if err != nil {
		return err
	}
	if _, err := f.Write(buf); err != nil {
		return err
	}
	saving = false
	return nil
}
