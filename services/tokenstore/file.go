package tokenstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/masomo/dashboard/core/session"
)

// FileStore keeps the credential in a single 0600 file under dir.
type FileStore struct {
	path string
}

var _ session.TokenStore = (*FileStore)(nil)

// NewFileStore stores the token in dir, or in the user config dir when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return nil, errors.Wrap(err, "locating user config dir")
		}
		dir = filepath.Join(cfgDir, "masomo")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &FileStore{path: filepath.Join(dir, session.TokenKey)}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(_ context.Context, token string) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, "writing token")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing token")
}

func (s *FileStore) Load(_ context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "reading token")
	}
	return string(data), true, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing token")
	}
	return nil
}
