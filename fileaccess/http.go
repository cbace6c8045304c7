package fileaccess

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
)

// HTTP reads files with GET and writes them with PUT relative
// to BaseURL, e.g. a WebDAV share or a small config service.
type HTTP struct {
	BaseURL string
	// if set, sent as X-Api-Key header
	APIKey string
	// per request, 30 seconds if not set
	Timeout time.Duration
	// http.DefaultClient if nil
	Client *http.Client
}

func (h *HTTP) url(path string) string {
	return strings.TrimSuffix(h.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (h *HTTP) builder(path string) *requests.Builder {
	rb := requests.URL(h.url(path))
	if h.Client != nil {
		rb = rb.Client(h.Client)
	}
	if h.APIKey != "" {
		rb = rb.Header("X-Api-Key", h.APIKey)
	}
	return rb
}

func (h *HTTP) ctx() (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// OpenRead downloads the file. 404 is reported as fs.ErrNotExist.
func (h *HTTP) OpenRead(path string) (io.ReadCloser, error) {
	if h.BaseURL == "" {
		return nil, errors.New("fileaccess: HTTP.BaseURL is not set")
	}
	ctx, cancel := h.ctx()
	defer cancel()
	var buf bytes.Buffer
	err := h.builder(path).ToBytesBuffer(&buf).Fetch(ctx)
	if requests.HasStatusErr(err, http.StatusNotFound) {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

type httpWriter struct {
	bytes.Buffer
	h       *HTTP
	path    string
	closed  bool
	aborted bool
	err     error
}

func (w *httpWriter) Abort() {
	w.aborted = true
	w.Close()
}

// Close uploads buffered data
func (w *httpWriter) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.aborted {
		return nil
	}
	ctx, cancel := w.h.ctx()
	defer cancel()
	w.err = w.h.builder(w.path).
		Put().
		BodyBytes(w.Bytes()).
		ContentType("text/plain; charset=utf-8").
		Fetch(ctx)
	return w.err
}

// OpenWrite buffers data and uploads it with PUT on Close
func (h *HTTP) OpenWrite(path string) (io.WriteCloser, error) {
	if h.BaseURL == "" {
		return nil, errors.New("fileaccess: HTTP.BaseURL is not set")
	}
	return &httpWriter{h: h, path: path}, nil
}
