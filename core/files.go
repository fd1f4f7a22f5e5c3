package core

import (
	"io"
	"os"
)

// FileStore is the storage backend uploaded files live on.
// Paths are slash separated and relative to the store root, eg. "/documents/brochure/x/y.pdf".
type FileStore interface {
	Exists(path string) (bool, error)
	MkdirAll(path string) error
	Rename(oldPath, newPath string) error
	Remove(path string) error
	ReadDir(path string) ([]os.FileInfo, error)
	Write(path string, r io.Reader) error
}
