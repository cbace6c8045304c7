package fileaccess

import (
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compressed (de)compresses data of another Provider based on extension
// of the path: .gz (gzip), .zst or .zstd (zstd), .br (brotli).
// Other paths are passed through unchanged.
type Compressed struct {
	// Provider is the underlying provider, Local{} if nil
	Provider Provider
}

// CompressionFor returns name of compression used for path or ""
func CompressionFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	case ".br":
		return "brotli"
	}
	return ""
}

// implements io.ReadCloser where Read goes to a decompressor
// and Close releases the decompressor and the underlying stream
type decompressingReader struct {
	r       io.Reader
	closeFn func()
	rc      io.ReadCloser
}

func (d *decompressingReader) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *decompressingReader) Close() error {
	if d.closeFn != nil {
		d.closeFn()
	}
	return d.rc.Close()
}

// OpenRead opens path and wraps it with a decompressor
func (c Compressed) OpenRead(path string) (io.ReadCloser, error) {
	rc, err := OrLocal(c.Provider).OpenRead(path)
	if err != nil {
		return nil, err
	}
	switch CompressionFor(path) {
	case "gzip":
		r, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &decompressingReader{r: r, closeFn: func() { r.Close() }, rc: rc}, nil
	case "zstd":
		r, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &decompressingReader{r: r, closeFn: r.Close, rc: rc}, nil
	case "brotli":
		return &decompressingReader{r: brotli.NewReader(rc), rc: rc}, nil
	}
	return rc, nil
}

// implements io.WriteCloser where Write goes to a compressor
// and Close flushes the compressor and closes the underlying stream
type compressingWriter struct {
	w      io.WriteCloser
	wc     io.WriteCloser
	closed bool
	err    error
}

func (c *compressingWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Abort discards the data. The compressed stream is not finished
// so nothing reaches the underlying writer, which is aborted too.
func (c *compressingWriter) Abort() {
	if c.closed {
		return
	}
	c.closed = true
	c.err = ErrAborted
	// release compressor without writing its trailer to c.wc
	if r, ok := c.w.(interface{ Reset(io.Writer) }); ok {
		r.Reset(io.Discard)
		_ = c.w.Close()
	}
	if a, ok := c.wc.(interface{ Abort() }); ok {
		a.Abort()
		return
	}
	_ = c.wc.Close()
}

func (c *compressingWriter) Close() error {
	if c.closed {
		return c.err
	}
	c.closed = true
	c.err = c.finish()
	return c.err
}

func (c *compressingWriter) finish() error {
	err := c.w.Close()
	if err != nil {
		// don't commit truncated data
		if a, ok := c.wc.(interface{ Abort() }); ok {
			a.Abort()
			return err
		}
	}
	errClose := c.wc.Close()
	if err == nil {
		err = errClose
	}
	return err
}

// OpenWrite opens path and wraps it with a compressor
func (c Compressed) OpenWrite(path string) (io.WriteCloser, error) {
	wc, err := OrLocal(c.Provider).OpenWrite(path)
	if err != nil {
		return nil, err
	}
	switch CompressionFor(path) {
	case "gzip":
		return &compressingWriter{w: gzip.NewWriter(wc), wc: wc}, nil
	case "zstd":
		w, err := zstd.NewWriter(wc)
		if err != nil {
			if a, ok := wc.(interface{ Abort() }); ok {
				a.Abort()
			} else {
				wc.Close()
			}
			return nil, err
		}
		return &compressingWriter{w: w, wc: wc}, nil
	case "brotli":
		return &compressingWriter{w: brotli.NewWriter(wc), wc: wc}, nil
	}
	return wc, nil
}
