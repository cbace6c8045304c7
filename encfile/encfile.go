// Package encfile wraps a stream with AES-256-GCM encryption.
//
// The key is either 32 raw bytes or derived from a password with scrypt.
//
// Encrypted file layout:
//
//	"KCF1"          magic
//	mode            1 byte, 0: raw key, 1: password
//	log2(N)         1 byte, scrypt cost (0 for raw key)
//	salt            16 bytes
//	nonce           12 bytes
//	ciphertext      sealed data followed by 16 bytes of GCM tag
//
// The header is authenticated as additional data.
//
// Writer buffers the plaintext and seals it on Close. Reader reads
// and authenticates the whole stream when it's created, so a wrong key,
// a wrong password or a corrupted file is reported by NewReader /
// NewReaderPassword (as ErrInit) and never as bad data later.
//
// When NewReader / NewWriter fails, the underlying stream is not closed.
// After they succeed, Close of the returned value closes it.
package encfile

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeySize is the size of a raw key
	KeySize = 32

	magic      = "KCF1"
	saltSize   = 16
	nonceSize  = 12
	headerSize = len(magic) + 2 + saltSize + nonceSize

	modeKey      byte = 0
	modePassword byte = 1

	scryptR = 8
	scryptP = 1
	// reject files asking for absurd amount of memory
	maxPasswordCost = 22
)

var (
	// ErrInit is returned when encrypted stream can't be set up:
	// bad key size, empty password, wrong key or password,
	// corrupted or not encrypted data
	ErrInit = errors.New("encfile: failed to initialize encrypted stream")

	// ErrKeySize is returned (wrapped in ErrInit) when key is not KeySize bytes
	ErrKeySize = errors.New("encfile: key must be 32 bytes")

	// PasswordCost is log2 of scrypt N parameter used when writing
	// password-protected files. Readers use the cost stored in the file.
	PasswordCost byte = 15

	_ io.WriteCloser = &Writer{}
	_ io.ReadCloser  = &Reader{}
)

func initErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInit, fmt.Sprintf(format, args...))
}

func deriveKey(pass string, salt []byte, cost byte) ([]byte, error) {
	return scrypt.Key([]byte(pass), salt, 1<<cost, scryptR, scryptP, KeySize)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %w (got %d)", ErrInit, ErrKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Writer encrypts data written to it
type Writer struct {
	w      io.WriteCloser
	aead   cipher.AEAD
	header []byte
	buf    bytes.Buffer
	closed bool
	err    error
}

func newWriter(w io.WriteCloser, key []byte, mode byte, cost byte, salt []byte) (*Writer, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, mode, cost)
	header = append(header, salt...)
	nonce := make([]byte, nonceSize)
	if _, err = rand.Read(nonce); err != nil {
		return nil, err
	}
	header = append(header, nonce...)
	return &Writer{
		w:      w,
		aead:   aead,
		header: header,
	}, nil
}

func randomSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	_, err := rand.Read(salt)
	return salt, err
}

// NewWriter returns a Writer that encrypts with a raw 32 byte key
func NewWriter(w io.WriteCloser, key []byte) (*Writer, error) {
	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}
	return newWriter(w, key, modeKey, 0, salt)
}

// NewWriterPassword returns a Writer that encrypts with a key derived
// from pass
func NewWriterPassword(w io.WriteCloser, pass string) (*Writer, error) {
	if pass == "" {
		return nil, initErr("empty password")
	}
	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}
	key, err := deriveKey(pass, salt, PasswordCost)
	if err != nil {
		return nil, initErr("%s", err)
	}
	return newWriter(w, key, modePassword, PasswordCost, salt)
}

// Write buffers plaintext. Nothing is written to the underlying
// stream until Close.
func (w *Writer) Write(d []byte) (int, error) {
	if w.closed {
		return 0, errors.New("encfile: write after close")
	}
	return w.buf.Write(d)
}

// WriteString is like Write
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close encrypts buffered data, writes it and closes the underlying
// stream. It can be called multiple times.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	nonce := w.header[len(w.header)-nonceSize:]
	plain := w.buf.Bytes()
	out := make([]byte, 0, len(w.header)+len(plain)+w.aead.Overhead())
	out = append(out, w.header...)
	out = w.aead.Seal(out, nonce, plain, w.header)
	_, errWrite := w.w.Write(out)
	errClose := w.w.Close()
	w.buf.Reset()

	w.err = errWrite
	if w.err == nil {
		w.err = errClose
	}
	return w.err
}

// Reader returns decrypted data
type Reader struct {
	rc io.ReadCloser
	r  *bytes.Reader
}

func readHeader(rc io.Reader) ([]byte, []byte, error) {
	d, err := io.ReadAll(rc)
	if err != nil {
		return nil, nil, err
	}
	if len(d) < headerSize || string(d[:len(magic)]) != magic {
		return nil, nil, initErr("not an encrypted file")
	}
	return d[:headerSize], d[headerSize:], nil
}

func openSealed(rc io.ReadCloser, key []byte, header, sealed []byte) (*Reader, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := header[headerSize-nonceSize:]
	plain, err := aead.Open(nil, nonce, sealed, header)
	if err != nil {
		return nil, initErr("wrong key or corrupted data")
	}
	return &Reader{
		rc: rc,
		r:  bytes.NewReader(plain),
	}, nil
}

// NewReader decrypts data from rc encrypted with a raw 32 byte key
func NewReader(rc io.ReadCloser, key []byte) (*Reader, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %w (got %d)", ErrInit, ErrKeySize, len(key))
	}
	header, sealed, err := readHeader(rc)
	if err != nil {
		return nil, err
	}
	if header[len(magic)] != modeKey {
		return nil, initErr("file is encrypted with a password, not a key")
	}
	return openSealed(rc, key, header, sealed)
}

// NewReaderPassword decrypts data from rc encrypted with a password
func NewReaderPassword(rc io.ReadCloser, pass string) (*Reader, error) {
	if pass == "" {
		return nil, initErr("empty password")
	}
	header, sealed, err := readHeader(rc)
	if err != nil {
		return nil, err
	}
	if header[len(magic)] != modePassword {
		return nil, initErr("file is encrypted with a key, not a password")
	}
	cost := header[len(magic)+1]
	if cost == 0 || cost > maxPasswordCost {
		return nil, initErr("invalid password cost %d", cost)
	}
	salt := header[len(magic)+2 : len(magic)+2+saltSize]
	key, err := deriveKey(pass, salt, cost)
	if err != nil {
		return nil, initErr("%s", err)
	}
	return openSealed(rc, key, header, sealed)
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// Close closes the underlying stream
func (r *Reader) Close() error {
	return r.rc.Close()
}

// GenerateKey returns a random key of KeySize bytes
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
