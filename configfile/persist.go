package configfile

import (
	"bytes"
	"errors"
	"io"

	"github.com/kjk/configfile/encfile"
	"github.com/kjk/configfile/fileaccess"
	"github.com/kjk/configfile/log"
	"github.com/kjk/configfile/variant"
)

type wrapWriterFunc func(io.WriteCloser) (io.WriteCloser, error)
type wrapReaderFunc func(io.ReadCloser) (io.ReadCloser, error)

func (c *ConfigFile) provider() fileaccess.Provider {
	return fileaccess.OrLocal(c.Provider)
}

// abort discards partially written data if the writer supports it
func abort(w io.WriteCloser) {
	if a, ok := w.(interface{ Abort() }); ok {
		a.Abort()
		return
	}
	_ = w.Close()
}

// AppendText appends the text representation of c to buf
func (c *ConfigFile) AppendText(buf []byte) []byte {
	first := true
	for name, sec := range c.sections().All() {
		if !first {
			buf = append(buf, '\n')
		}
		first = false
		buf = append(buf, '[')
		buf = append(buf, variant.FormatSection(name)...)
		buf = append(buf, "]\n\n"...)
		for k, v := range sec.All() {
			buf = append(buf, variant.FormatKey(k)...)
			buf = append(buf, '=')
			buf = variant.AppendLiteral(buf, v)
			buf = append(buf, '\n')
		}
	}
	return buf
}

// Marshal returns c in text format
func (c *ConfigFile) Marshal() []byte {
	return c.AppendText(nil)
}

// WriteTo writes c in text format to w
func (c *ConfigFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Marshal())
	return int64(n), err
}

func (c *ConfigFile) save(path string, wrap wrapWriterFunc) error {
	log.Verbosef("ConfigFile.Save: '%s'\n", path)
	raw, err := c.provider().OpenWrite(path)
	if err != nil {
		return err
	}
	w := raw
	if wrap != nil {
		w, err = wrap(raw)
		if err != nil {
			abort(raw)
			return err
		}
	}
	if _, err = c.WriteTo(w); err != nil {
		abort(raw)
		return err
	}
	return w.Close()
}

// Save writes c to path in text format
func (c *ConfigFile) Save(path string) error {
	return c.save(path, nil)
}

// SaveEncrypted writes c to path encrypted with a 32 byte key
func (c *ConfigFile) SaveEncrypted(path string, key []byte) error {
	return c.save(path, func(w io.WriteCloser) (io.WriteCloser, error) {
		return encfile.NewWriter(w, key)
	})
}

// SaveEncryptedPass writes c to path encrypted with a password
func (c *ConfigFile) SaveEncryptedPass(path string, pass string) error {
	return c.save(path, func(w io.WriteCloser) (io.WriteCloser, error) {
		return encfile.NewWriterPassword(w, pass)
	})
}

// ReadFrom parses text format from r and adds the values to c.
// name is only used in error messages.
// On error values parsed before the malformed line stay in c.
func (c *ConfigFile) ReadFrom(name string, r io.Reader) error {
	p := variant.NewParser(r)
	sectionName := ""
	for {
		st, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			line, msg := p.Line(), err.Error()
			var perr *variant.ParseError
			if errors.As(err, &perr) {
				perr.Path = name
				line, msg = perr.Line, perr.Msg
			}
			log.Errorf("ConfigFile.Load: %s:%d error: %s", name, line, msg)
			return err
		}
		switch st.Kind {
		case variant.StatementAssign:
			c.SetValue(sectionName, st.Name, st.Value)
		case variant.StatementTag:
			sectionName = st.Name
		}
	}
}

func (c *ConfigFile) load(path string, wrap wrapReaderFunc) error {
	log.Verbosef("ConfigFile.Load: '%s'\n", path)
	raw, err := c.provider().OpenRead(path)
	if err != nil {
		return err
	}
	r := raw
	if wrap != nil {
		r, err = wrap(raw)
		if err != nil {
			raw.Close()
			return err
		}
	}
	defer r.Close()
	return c.ReadFrom(path, r)
}

// Load reads path and adds its values to c.
// If the file is malformed, values before the error are kept and
// *variant.ParseError is returned.
func (c *ConfigFile) Load(path string) error {
	return c.load(path, nil)
}

// LoadEncrypted is like Load for files written by SaveEncrypted
func (c *ConfigFile) LoadEncrypted(path string, key []byte) error {
	return c.load(path, func(rc io.ReadCloser) (io.ReadCloser, error) {
		return encfile.NewReader(rc, key)
	})
}

// LoadEncryptedPass is like Load for files written by SaveEncryptedPass
func (c *ConfigFile) LoadEncryptedPass(path string, pass string) error {
	return c.load(path, func(rc io.ReadCloser) (io.ReadCloser, error) {
		return encfile.NewReaderPassword(rc, pass)
	})
}

// LoadAtomic is like Load but replaces content of c only if
// the whole file was parsed successfully
func (c *ConfigFile) LoadAtomic(path string) error {
	fresh := &ConfigFile{Provider: c.Provider}
	if err := fresh.Load(path); err != nil {
		return err
	}
	c.values = fresh.values
	return nil
}

// Parse parses text format
func Parse(d []byte) (*ConfigFile, error) {
	c := New()
	if err := c.ReadFrom("", bytes.NewReader(d)); err != nil {
		return nil, err
	}
	return c, nil
}
