// Package configfile is an ordered store of sections of typed values,
// persisted in a human readable INI-like text format.
//
//	[display]
//
//	width=1920
//	fullscreen=true
//
// Sections and keys keep their first-insertion order which is also
// the order in which they are saved. Files can optionally be encrypted
// with a key or a password (see package encfile).
package configfile

import (
	"fmt"

	"github.com/kjk/configfile/fileaccess"
	"github.com/kjk/configfile/omap"
	"github.com/kjk/configfile/variant"
)

type section = omap.Map[string, variant.Value]

// ConfigFile is not safe for concurrent use.
// Zero value is an empty, usable store.
type ConfigFile struct {
	// Provider opens files for Save and Load, local disk if nil
	Provider fileaccess.Provider

	values *omap.Map[string, *section]
}

// New returns an empty ConfigFile
func New() *ConfigFile {
	return &ConfigFile{}
}

func (c *ConfigFile) sections() *omap.Map[string, *section] {
	if c.values == nil {
		c.values = omap.New[string, *section]()
	}
	return c.values
}

// SetValue sets key in section to v, creating the section if needed.
// Setting a nil value deletes the key and removes the section
// if it becomes empty.
func (c *ConfigFile) SetValue(sectionName, key string, v variant.Value) {
	secs := c.sections()
	sec, ok := secs.Get(sectionName)
	if v.IsNil() {
		if !ok {
			return
		}
		sec.Delete(key)
		if sec.Len() == 0 {
			secs.Delete(sectionName)
		}
		return
	}
	if !ok {
		sec = omap.New[string, variant.Value]()
		secs.Set(sectionName, sec)
	}
	sec.Set(key, v)
}

func (c *ConfigFile) lookup(sectionName, key string) (variant.Value, bool) {
	sec, ok := c.sections().Get(sectionName)
	if !ok {
		return variant.Value{}, false
	}
	return sec.Get(key)
}

// GetValue returns the value of key in section or def if it doesn't exist.
// Returns ErrNoDefault if the key doesn't exist and def is nil.
func (c *ConfigFile) GetValue(sectionName, key string, def variant.Value) (variant.Value, error) {
	if v, ok := c.lookup(sectionName, key); ok {
		return v, nil
	}
	if def.IsNil() {
		return variant.Value{}, fmt.Errorf("%w: section '%s', key '%s'", ErrNoDefault, sectionName, key)
	}
	return def, nil
}

// GetString returns a string value or def if missing or not a string
func (c *ConfigFile) GetString(sectionName, key string, def string) string {
	v, _ := c.lookup(sectionName, key)
	if s, ok := v.Str(); ok {
		return s
	}
	return def
}

// GetInt returns an int value or def if missing or not an int
func (c *ConfigFile) GetInt(sectionName, key string, def int64) int64 {
	v, _ := c.lookup(sectionName, key)
	if v.Kind() != variant.Int {
		return def
	}
	i, _ := v.Int()
	return i
}

// GetFloat returns a number as float64 or def if missing or not a number.
// Ints are converted.
func (c *ConfigFile) GetFloat(sectionName, key string, def float64) float64 {
	v, _ := c.lookup(sectionName, key)
	if f, ok := v.Float(); ok {
		return f
	}
	return def
}

// GetBool returns a bool value or def if missing or not a bool
func (c *ConfigFile) GetBool(sectionName, key string, def bool) bool {
	v, _ := c.lookup(sectionName, key)
	if b, ok := v.Bool(); ok {
		return b
	}
	return def
}

func (c *ConfigFile) HasSection(sectionName string) bool {
	return c.sections().Has(sectionName)
}

func (c *ConfigFile) HasSectionKey(sectionName, key string) bool {
	_, ok := c.lookup(sectionName, key)
	return ok
}

// Sections returns section names in order
func (c *ConfigFile) Sections() []string {
	return c.sections().Keys()
}

// SectionKeys returns keys of a section in order.
// Returns ErrNoSuchSection if the section doesn't exist.
func (c *ConfigFile) SectionKeys(sectionName string) ([]string, error) {
	sec, ok := c.sections().Get(sectionName)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNoSuchSection, sectionName)
	}
	return sec.Keys(), nil
}

// EraseSection removes a section with all its keys. No-op if it
// doesn't exist.
func (c *ConfigFile) EraseSection(sectionName string) {
	c.sections().Delete(sectionName)
}

// EraseSectionKey removes key from section. Returns ErrNoSuchSection
// if the section doesn't exist.
// Unlike SetValue with a nil value it leaves an emptied section in place.
func (c *ConfigFile) EraseSectionKey(sectionName, key string) error {
	sec, ok := c.sections().Get(sectionName)
	if !ok {
		return fmt.Errorf("%w: can't erase key '%s' from '%s'", ErrNoSuchSection, key, sectionName)
	}
	sec.Delete(key)
	return nil
}

// Clear removes all sections
func (c *ConfigFile) Clear() {
	c.sections().Clear()
}

// Len returns number of sections
func (c *ConfigFile) Len() int {
	return c.sections().Len()
}

// Equal returns true if both have the same sections, keys and values
// in the same order
func (c *ConfigFile) Equal(other *ConfigFile) bool {
	if c.Len() != other.Len() {
		return false
	}
	names, otherNames := c.Sections(), other.Sections()
	for i, name := range names {
		if otherNames[i] != name {
			return false
		}
		sec, _ := c.sections().Get(name)
		otherSec, _ := other.sections().Get(name)
		if sec.Len() != otherSec.Len() {
			return false
		}
		keys, otherKeys := sec.Keys(), otherSec.Keys()
		for j, k := range keys {
			if otherKeys[j] != k {
				return false
			}
			v, _ := sec.Get(k)
			ov, _ := otherSec.Get(k)
			if !variant.Equal(v, ov) {
				return false
			}
		}
	}
	return true
}
