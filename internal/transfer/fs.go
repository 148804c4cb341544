package transfer

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// LocalFS is the local filesystem collaborator of a copy run.
type LocalFS interface {
	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
}

// OSFS is the LocalFS backed by the os package.
type OSFS struct{}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (OSFS) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OSFS) Create(path string) (io.WriteCloser, error) {
	return os.Create(path)
}
