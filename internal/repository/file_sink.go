package repository

import (
	"context"
	"errors"
	"io/fs"

	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

// FileSink keeps each collection as <dir>/<collection>.json.
type FileSink struct {
	files *storage.LocalStorage
}

// NewFileSink creates dir if needed.
func NewFileSink(dir string) (*FileSink, error) {
	files, err := storage.NewLocalStorage(dir)
	if err != nil {
		return nil, err
	}
	return &FileSink{files: files}, nil
}

func fileName(c Collection) string { return string(c) + ".json" }

// Load reads the collection document; a missing file is not an error.
func (s *FileSink) Load(ctx context.Context, collection Collection) ([]byte, error) {
	data, err := s.files.Read(fileName(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save atomically replaces the collection document.
func (s *FileSink) Save(ctx context.Context, collection Collection, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.files.Save(fileName(collection), payload)
	return err
}

// Path returns the file backing a collection.
func (s *FileSink) Path(collection Collection) string {
	return s.files.Path(fileName(collection))
}
