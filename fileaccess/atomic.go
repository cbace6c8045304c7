package fileaccess

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Some references:
// - https://www.slideshare.net/nan1nan1/eat-my-data
// - https://lwn.net/Articles/457667/

var (
	// ErrAborted is returned by calls after Abort()
	ErrAborted = errors.New("aborted")

	_ io.WriteCloser = &AtomicWriter{}
)

// AtomicWriter writes to a temporary file in the destination directory
// and renames it to destination on Close. If anything fails, the
// temporary file is removed and destination is left untouched.
type AtomicWriter struct {
	// Perm is applied to the file before rename
	Perm os.FileMode

	dstPath string
	dir     string
	tmpFile *os.File
	tmpPath string
	err     error
}

// NewAtomicWriter creates a temporary file next to path
func NewAtomicWriter(path string) (*AtomicWriter, error) {
	dir, fName := filepath.Split(path)
	if fName == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp(dir, "."+fName+".tmp*")
	if err != nil {
		return nil, err
	}
	return &AtomicWriter{
		Perm:    0644,
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (w *AtomicWriter) handleError(err error) error {
	if err == nil {
		return nil
	}
	// remember the first error
	if w.err == nil {
		w.err = err
	}
	// removes the temporary file
	_ = w.Close()
	return err
}

// Write writes data to the temporary file
func (w *AtomicWriter) Write(d []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.tmpFile.Write(d)
	return n, w.handleError(err)
}

// WriteString writes s to the temporary file
func (w *AtomicWriter) WriteString(s string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.tmpFile.WriteString(s)
	return n, w.handleError(err)
}

func (w *AtomicWriter) closed() bool {
	return w.tmpFile == nil
}

// Abort removes the temporary file without touching the destination.
// It's a no-op after Close so it can be deferred.
func (w *AtomicWriter) Abort() {
	if w == nil || w.closed() {
		return
	}
	w.err = ErrAborted
	_ = w.Close()
}

// Close commits the data to destination path. Can be called
// multiple times, returns the first error.
func (w *AtomicWriter) Close() error {
	if w.closed() {
		return w.err
	}
	tmpFile := w.tmpFile
	w.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	didRename := false
	defer func() {
		if !didRename {
			_ = os.Remove(w.tmpPath)
		}
	}()

	if w.err != nil {
		return w.err
	}

	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = os.Chmod(w.tmpPath, w.Perm)
	}
	if err == nil {
		// over-writes dstPath if it exists
		err = os.Rename(w.tmpPath, w.dstPath)
		didRename = err == nil
		// sync directory so that rename survives a crash
		if fdir, _ := os.Open(w.dir); fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}
	w.err = err
	return err
}
