package encfile

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/alecthomas/assert"
)

// in-memory io.WriteCloser / io.ReadCloser that remembers Close
type memStream struct {
	bytes.Buffer
	closed int
}

func (m *memStream) Close() error {
	m.closed++
	return nil
}

func init() {
	// keep tests fast, files still record the cost they were written with
	PasswordCost = 10
}

func encrypt(t *testing.T, key []byte, pass string, data string) []byte {
	t.Helper()
	dst := &memStream{}
	var w *Writer
	var err error
	if key != nil {
		w, err = NewWriter(dst, key)
	} else {
		w, err = NewWriterPassword(dst, pass)
	}
	assert.NoError(t, err)
	_, err = w.WriteString(data)
	assert.NoError(t, err)
	assert.Equal(t, 0, dst.Len(), "nothing should be written before Close")
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Equal(t, 1, dst.closed)
	return dst.Bytes()
}

func TestKeyRoundtrip(t *testing.T) {
	key, err := GenerateKey()
	assert.NoError(t, err)
	enc := encrypt(t, key, "", "[s]\n\nk=1\n")
	assert.False(t, bytes.Contains(enc, []byte("k=1")))

	src := &memStream{}
	src.Write(enc)
	r, err := NewReader(src, key)
	assert.NoError(t, err)
	d, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "[s]\n\nk=1\n", string(d))
	assert.NoError(t, r.Close())
	assert.Equal(t, 1, src.closed)
}

func TestPasswordRoundtrip(t *testing.T) {
	enc := encrypt(t, nil, "pw", "hello")
	// same password, different salt and nonce
	enc2 := encrypt(t, nil, "pw", "hello")
	assert.False(t, bytes.Equal(enc, enc2))

	r, err := NewReaderPassword(io.NopCloser(bytes.NewReader(enc)), "pw")
	assert.NoError(t, err)
	d, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(d))
}

func TestEmptyPlaintext(t *testing.T) {
	enc := encrypt(t, nil, "pw", "")
	r, err := NewReaderPassword(io.NopCloser(bytes.NewReader(enc)), "pw")
	assert.NoError(t, err)
	d, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(d))
}

func TestInitErrors(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	withKey := encrypt(t, key, "", "secret")
	withPass := encrypt(t, nil, "pw", "secret")

	open := func(d []byte, key []byte, pass string) error {
		src := &memStream{}
		src.Write(d)
		var err error
		if key != nil {
			_, err = NewReader(src, key)
		} else {
			_, err = NewReaderPassword(src, pass)
		}
		// failed open doesn't take ownership of the stream
		assert.Equal(t, 0, src.closed)
		return err
	}

	otherKey := bytes.Repeat([]byte{8}, KeySize)
	corrupted := append([]byte{}, withKey...)
	corrupted[len(corrupted)-1] ^= 1
	badHeader := append([]byte{}, withPass...)
	badHeader[5] = 40

	errs := []error{
		open(withKey, otherKey, ""),
		open(withKey, nil, "pw"),
		open(withPass, nil, "wrong-pw"),
		open(withPass, key, ""),
		open(withPass, nil, ""),
		open(corrupted, key, ""),
		open(badHeader, nil, "pw"),
		open([]byte("[s]\n\nk=1\n"), key, ""),
		open(nil, nil, "pw"),
		open(withKey, []byte("short"), ""),
	}
	for i, err := range errs {
		assert.True(t, errors.Is(err, ErrInit), "case %d: expected ErrInit, got %v", i, err)
	}
	assert.True(t, errors.Is(errs[len(errs)-1], ErrKeySize))
}

func TestWriterInitErrors(t *testing.T) {
	dst := &memStream{}
	_, err := NewWriter(dst, make([]byte, 16))
	assert.True(t, errors.Is(err, ErrKeySize))
	assert.True(t, errors.Is(err, ErrInit))
	_, err = NewWriterPassword(dst, "")
	assert.True(t, errors.Is(err, ErrInit))
	assert.Equal(t, 0, dst.closed)
	assert.Equal(t, 0, dst.Len())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
func (failingReader) Close() error             { return nil }

func TestReadErrorIsNotInitError(t *testing.T) {
	_, err := NewReaderPassword(failingReader{}, "pw")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInit))
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewWriter(&memStream{}, make([]byte, KeySize))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	assert.Error(t, err)
}
