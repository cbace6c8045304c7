// Package fileaccess opens paths for sequential reading or writing.
//
// A Provider hides where the bytes live: local disk (Local), memory
// (Memory), a web server (HTTP), an S3 compatible bucket (S3) or a
// server reachable over ssh (SFTP). Compressed wraps any Provider and
// transparently (de)compresses based on file extension.
//
// Data written to a stream returned by OpenWrite is only guaranteed
// to be stored after Close returned nil.
package fileaccess

import (
	"io"
	"os"
	"path/filepath"
)

// Provider opens streams for a path
type Provider interface {
	OpenRead(path string) (io.ReadCloser, error)
	OpenWrite(path string) (io.WriteCloser, error)
}

var (
	_ Provider = Local{}
	_ Provider = &Memory{}
	_ Provider = Compressed{}
	_ Provider = &HTTP{}
	_ Provider = &S3{}
	_ Provider = &SFTP{}
)

// Local reads and writes files on local disk.
// Writes are atomic: data goes to a temporary file which is renamed
// to destination on successful Close.
type Local struct {
	// Perm is used for created files, 0644 if not set
	Perm os.FileMode
}

// OpenRead opens a local file for reading
func (Local) OpenRead(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// OpenWrite creates parent directories if needed and returns
// an atomic writer for path
func (l Local) OpenWrite(path string) (io.WriteCloser, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	w, err := NewAtomicWriter(path)
	if err != nil {
		return nil, err
	}
	if l.Perm != 0 {
		w.Perm = l.Perm
	}
	return w, nil
}

// OrLocal returns p or Local{} if p is nil
func OrLocal(p Provider) Provider {
	if p == nil {
		return Local{}
	}
	return p
}

// ReadFile reads the whole content of path
func ReadFile(p Provider, path string) ([]byte, error) {
	rc, err := OrLocal(p).OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// WriteFile writes d to path
func WriteFile(p Provider, path string, d []byte) error {
	wc, err := OrLocal(p).OpenWrite(path)
	if err != nil {
		return err
	}
	_, err = wc.Write(d)
	if err != nil {
		if a, ok := wc.(interface{ Abort() }); ok {
			a.Abort()
			return err
		}
		wc.Close()
		return err
	}
	return wc.Close()
}
