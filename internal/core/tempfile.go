package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// TempFile is the on-disk buffer for one upload. It exists from the start
// of a request until Release, which closes and removes it exactly once.
type TempFile struct {
	f    *os.File
	size int64
	once sync.Once
	err  error
}

// NewTempFile creates an empty buffer file in dir (os.TempDir when empty).
func NewTempFile(dir string) (*TempFile, error) {
	f, err := os.CreateTemp(dir, "salesdash-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create upload buffer: %w", err)
	}
	return &TempFile{f: f}, nil
}

// Path returns the file location on disk.
func (t *TempFile) Path() string {
	return t.f.Name()
}

// Size returns the number of bytes spooled so far.
func (t *TempFile) Size() int64 {
	return t.size
}

// Spool copies r into the buffer, failing with ErrFileTooLarge once more
// than limit bytes arrive. limit <= 0 disables the check.
func (t *TempFile) Spool(r io.Reader, limit int64) error {
	lr := NewSizeLimitReader(r, limit)
	n, err := io.Copy(t.f, lr)
	t.size += n
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return err
		}
		return fmt.Errorf("spool upload: %w", err)
	}
	return nil
}

// Reader rewinds the buffer and returns it for reading.
func (t *TempFile) Reader() (io.Reader, error) {
	if _, err := t.f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload buffer: %w", err)
	}
	return t.f, nil
}

// Release closes and deletes the buffer. Later calls return the first result.
func (t *TempFile) Release() error {
	t.once.Do(func() {
		closeErr := t.f.Close()
		removeErr := os.Remove(t.f.Name())
		if errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		t.err = errors.Join(closeErr, removeErr)
	})
	return t.err
}
