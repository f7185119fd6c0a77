package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileOpener opens local files.
type FileOpener struct{}

// Open opens the file at loc.Path.
func (FileOpener) Open(_ context.Context, loc Locator) (io.ReadCloser, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NotFoundError{Message: fmt.Sprintf("file not found: %s", loc.Path)}
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, AuthenticationError{Message: fmt.Sprintf("permission denied: %s", loc.Path)}
		}
		return nil, fmt.Errorf("open %s: %w", loc.Path, err)
	}
	return f, nil
}

// StdinOpener reads from a fixed reader, normally os.Stdin.
type StdinOpener struct {
	In io.Reader
}

// Open returns the reader without taking ownership of it.
func (s StdinOpener) Open(_ context.Context, _ Locator) (io.ReadCloser, error) {
	in := s.In
	if in == nil {
		in = os.Stdin
	}
	return io.NopCloser(in), nil
}
