package fileaccess

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

// SFTPConfig describes how to reach a server over ssh
type SFTPConfig struct {
	User string
	// Host is ip address or host name, port 22 is used
	Host string
	// path to private key, "~/" is expanded
	KeyPath       string
	KeyPassphrase string
}

// SFTP reads and writes files on a remote server.
// Writes go to a temporary file that is renamed on Close.
type SFTP struct {
	ssh  *goph.Client
	sftp *sftp.Client
}

func expandTildeInPath(s string) string {
	if strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, s[2:])
		}
	}
	return s
}

func (c *SFTPConfig) validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.User == "" || c.Host == "" || c.KeyPath == "" {
		return errors.New("must provide User, Host and KeyPath in config")
	}
	return nil
}

// DialSFTP connects to the server. Call Close when done.
func DialSFTP(c *SFTPConfig) (*SFTP, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	keyPath := expandTildeInPath(c.KeyPath)
	auth, err := goph.Key(keyPath, c.KeyPassphrase)
	if err != nil {
		return nil, fmt.Errorf("goph.Key('%s') failed with '%w'", keyPath, err)
	}
	client, err := goph.New(c.User, c.Host, auth)
	if err != nil {
		return nil, err
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, err
	}
	return &SFTP{
		ssh:  client,
		sftp: sc,
	}, nil
}

// Close closes sftp session and ssh connection
func (s *SFTP) Close() error {
	err := s.sftp.Close()
	errSSH := s.ssh.Close()
	if err == nil {
		err = errSSH
	}
	return err
}

// OpenRead opens a remote file
func (s *SFTP) OpenRead(p string) (io.ReadCloser, error) {
	if s.sftp == nil {
		return nil, errors.New("fileaccess: SFTP is not connected")
	}
	return s.sftp.Open(p)
}

type sftpWriter struct {
	s       *SFTP
	f       *sftp.File
	tmpPath string
	dstPath string
	err     error
}

func (w *sftpWriter) Write(d []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.f.Write(d)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *sftpWriter) Abort() {
	if w.f == nil {
		return
	}
	if w.err == nil {
		w.err = ErrAborted
	}
	w.Close()
}

func (w *sftpWriter) Close() error {
	if w.f == nil {
		return w.err
	}
	f := w.f
	w.f = nil
	errClose := f.Close()
	if w.err == nil {
		w.err = errClose
	}
	if w.err == nil {
		w.err = w.s.sftp.PosixRename(w.tmpPath, w.dstPath)
	}
	if w.err != nil {
		_ = w.s.sftp.Remove(w.tmpPath)
	}
	return w.err
}

// OpenWrite creates parent directories and a temporary file next to p
func (s *SFTP) OpenWrite(p string) (io.WriteCloser, error) {
	if s.sftp == nil {
		return nil, errors.New("fileaccess: SFTP is not connected")
	}
	if err := s.sftp.MkdirAll(path.Dir(p)); err != nil {
		return nil, err
	}
	tmpPath := p + ".tmp"
	f, err := s.sftp.Create(tmpPath)
	if err != nil {
		return nil, err
	}
	return &sftpWriter{
		s:       s,
		f:       f,
		tmpPath: tmpPath,
		dstPath: p,
	}, nil
}
