package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kjk/configfile/configfile"
	"github.com/kjk/configfile/encfile"
	"github.com/kjk/configfile/fileaccess"
	"golang.org/x/term"
)

const passwordEnv = "CFGTOOL_PASSWORD"

// App holds state shared across commands
type App struct {
	Out io.Writer
	Err io.Writer

	// set from global flags
	UsePassword bool
	KeyFile     string
	Verbose     bool
	LogDir      string

	// ReadPassword returns the password for --password mode
	ReadPassword func() (string, error)

	password string
	key      []byte
}

func newApp() *App {
	return &App{
		Out:          os.Stdout,
		Err:          os.Stderr,
		ReadPassword: readPassword,
	}
}

func readPassword() (string, error) {
	if s := os.Getenv(passwordEnv); s != "" {
		return s, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password: set %s or run in a terminal", passwordEnv)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	d, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(d), nil
}

// readKeyFile accepts a raw 32 byte key or its hex encoding
func readKeyFile(path string) ([]byte, error) {
	d, err := fileaccess.ReadFile(fileaccess.Local{}, path)
	if err != nil {
		return nil, err
	}
	if len(d) == encfile.KeySize {
		return d, nil
	}
	s := string(bytes.TrimSpace(d))
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != encfile.KeySize {
		return nil, fmt.Errorf("key file '%s' must contain %d bytes or %d hex characters", path, encfile.KeySize, encfile.KeySize*2)
	}
	return key, nil
}

func (a *App) encrypted() bool {
	return a.UsePassword || a.KeyFile != ""
}

// resolveSecret reads key file or password once
func (a *App) resolveSecret() error {
	if a.UsePassword && a.KeyFile != "" {
		return errors.New("--password and --key-file are mutually exclusive")
	}
	if a.KeyFile != "" && a.key == nil {
		key, err := readKeyFile(a.KeyFile)
		if err != nil {
			return err
		}
		a.key = key
	}
	if a.UsePassword && a.password == "" {
		pass, err := a.ReadPassword()
		if err != nil {
			return err
		}
		if pass == "" {
			return errors.New("empty password")
		}
		a.password = pass
	}
	return nil
}

// writeKeyFile writes key hex encoded, readable only by the owner
func writeKeyFile(path string, key []byte) error {
	d := []byte(hex.EncodeToString(key) + "\n")
	return fileaccess.WriteFile(fileaccess.Local{Perm: 0600}, path, d)
}

func newConfig() *configfile.ConfigFile {
	return &configfile.ConfigFile{Provider: fileaccess.Compressed{}}
}

func (a *App) loadPlain(path string) (*configfile.ConfigFile, error) {
	c := newConfig()
	return c, c.Load(path)
}

func (a *App) loadEncrypted(path string) (*configfile.ConfigFile, error) {
	if err := a.resolveSecret(); err != nil {
		return nil, err
	}
	c := newConfig()
	if a.key != nil {
		return c, c.LoadEncrypted(path, a.key)
	}
	return c, c.LoadEncryptedPass(path, a.password)
}

// load reads path, decrypting it if --password or --key-file was given
func (a *App) load(path string) (*configfile.ConfigFile, error) {
	if a.encrypted() {
		return a.loadEncrypted(path)
	}
	return a.loadPlain(path)
}

// loadOrNew is like load but a missing file is an empty config
func (a *App) loadOrNew(path string) (*configfile.ConfigFile, error) {
	c, err := a.load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return newConfig(), nil
	}
	return c, err
}

func (a *App) savePlain(c *configfile.ConfigFile, path string) error {
	return c.Save(path)
}

func (a *App) saveEncrypted(c *configfile.ConfigFile, path string) error {
	if err := a.resolveSecret(); err != nil {
		return err
	}
	if a.key != nil {
		return c.SaveEncrypted(path, a.key)
	}
	return c.SaveEncryptedPass(path, a.password)
}

func (a *App) save(c *configfile.ConfigFile, path string) error {
	if a.encrypted() {
		return a.saveEncrypted(c, path)
	}
	return a.savePlain(c, path)
}

func (a *App) requireEncryption() error {
	if !a.encrypted() {
		return errors.New("need --password or --key-file")
	}
	return nil
}
