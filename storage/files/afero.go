package filestore

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/edubridge/backoffice/core"
)

type aferoStore struct {
	fs afero.Fs
}

var _ core.FileStore = (*aferoStore)(nil) // interface compliance check

// NewLocalStore returns a FileStore rooted at dir on the local disk.
func NewLocalStore(dir string) (core.FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &aferoStore{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}, nil
}

// NewMemStore returns an in-memory FileStore, for tests.
func NewMemStore() core.FileStore {
	return &aferoStore{fs: afero.NewMemMapFs()}
}

// NewStore wraps any afero.Fs.
func NewStore(fs afero.Fs) core.FileStore {
	return &aferoStore{fs: fs}
}

func (s *aferoStore) Exists(p string) (bool, error) {
	return afero.Exists(s.fs, clean(p))
}

func (s *aferoStore) MkdirAll(p string) error {
	return s.fs.MkdirAll(clean(p), 0o755)
}

func (s *aferoStore) Rename(oldPath, newPath string) error {
	return s.fs.Rename(clean(oldPath), clean(newPath))
}

func (s *aferoStore) Remove(p string) error {
	return s.fs.Remove(clean(p))
}

func (s *aferoStore) ReadDir(p string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, clean(p))
}

func (s *aferoStore) Write(p string, r io.Reader) error {
	p = clean(p)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteReader(s.fs, p, r)
}

func clean(p string) string {
	return path.Clean("/" + p)
}
