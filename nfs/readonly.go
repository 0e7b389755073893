package nfs

import (
	"os"

	"github.com/go-git/go-billy/v5"
)

const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_APPEND | os.O_CREATE | os.O_TRUNC

// readOnlyFS rejects every call that would modify the wrapped filesystem.
type readOnlyFS struct {
	billy.Filesystem
}

// ReadOnly wraps fs so that mutating calls fail with billy.ErrReadOnly.
func ReadOnly(fs billy.Filesystem) billy.Filesystem {
	return &readOnlyFS{Filesystem: fs}
}

func (fs *readOnlyFS) Create(filename string) (billy.File, error) {
	return nil, billy.ErrReadOnly
}

func (fs *readOnlyFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&writeFlags != 0 {
		return nil, billy.ErrReadOnly
	}
	return fs.Filesystem.OpenFile(filename, flag, perm)
}

func (fs *readOnlyFS) Rename(oldpath, newpath string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) Remove(filename string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrReadOnly
}

func (fs *readOnlyFS) MkdirAll(filename string, perm os.FileMode) error {
	return billy.ErrReadOnly
}

func (fs *readOnlyFS) Symlink(target, link string) error { return billy.ErrReadOnly }

func (fs *readOnlyFS) Chroot(path string) (billy.Filesystem, error) {
	sub, err := fs.Filesystem.Chroot(path)
	if err != nil {
		return nil, err
	}
	return ReadOnly(sub), nil
}
