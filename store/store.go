// Package store reads static files from a billy filesystem.
package store

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-billy/v5"
)

// TimeFormat is the RFC 1123 layout used for Last-Modified, always in GMT.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// ErrNotFound is returned for any file that cannot be served: missing,
// unreadable, a directory, or outside the filesystem root. The wrapped error
// keeps the actual cause for logging.
var ErrNotFound = errors.New("not found")

// File is a file read from disk for a single request.
type File struct {
	Body    []byte
	ModTime time.Time
}

// LastModified formats the modification time for a Last-Modified header.
func (f *File) LastModified() string {
	return f.ModTime.UTC().Format(TimeFormat)
}

// Store serves files relative to the root of fs. Nothing is cached; every
// Open goes back to the filesystem.
type Store struct {
	fs billy.Basic
}

func New(fs billy.Basic) *Store {
	return &Store{fs: fs}
}

// Open reads name in full. Every failure is reported as ErrNotFound.
func (s *Store) Open(name string) (*File, error) {
	fi, err := s.fs.Stat(name)
	if err != nil {
		return nil, notFound(name, err)
	}
	if fi.IsDir() {
		return nil, notFound(name, errors.New("is a directory"))
	}
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, notFound(name, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, notFound(name, err)
	}
	return &File{Body: body, ModTime: fi.ModTime()}, nil
}

func notFound(name string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrNotFound, name, cause)
}
