package fileaccess

import (
	"bytes"
	"io"
	"io/fs"
	"sync"
)

// Memory keeps files in memory. Useful for tests and tools that
// convert between formats. The zero value is ready to use.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
	open  int
}

// NewMemory creates Memory pre-populated with files
func NewMemory(files map[string][]byte) *Memory {
	m := &Memory{}
	for k, v := range files {
		m.Put(k, v)
	}
	return m
}

// Put sets content of a file
func (m *Memory) Put(path string, d []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = append([]byte{}, d...)
}

// Get returns content of a file
func (m *Memory) Get(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[path]
	return d, ok
}

// OpenHandles returns number of streams opened and not yet closed
func (m *Memory) OpenHandles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

type memReader struct {
	*bytes.Reader
	m      *Memory
	closed bool
}

func (r *memReader) Close() error {
	if !r.closed {
		r.closed = true
		r.m.mu.Lock()
		r.m.open--
		r.m.mu.Unlock()
	}
	return nil
}

// OpenRead returns a reader over a snapshot of the file
func (m *Memory) OpenRead(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	m.open++
	return &memReader{Reader: bytes.NewReader(d), m: m}, nil
}

type memWriter struct {
	bytes.Buffer
	m       *Memory
	path    string
	closed  bool
	aborted bool
}

// Abort discards written data
func (w *memWriter) Abort() {
	w.aborted = true
	w.Close()
}

func (w *memWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if !w.aborted {
		w.m.Put(w.path, w.Bytes())
	}
	w.m.mu.Lock()
	w.m.open--
	w.m.mu.Unlock()
	return nil
}

// OpenWrite returns a writer. The file is replaced on Close.
func (m *Memory) OpenWrite(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrInvalid}
	}
	m.mu.Lock()
	m.open++
	m.mu.Unlock()
	return &memWriter{m: m, path: path}, nil
}
