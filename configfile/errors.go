package configfile

import "errors"

var (
	// ErrNoDefault is returned by GetValue when the key doesn't exist
	// and no default was given
	ErrNoDefault = errors.New("configfile: key doesn't exist and no default value")

	// ErrNoSuchSection is returned by operations that require
	// an existing section
	ErrNoSuchSection = errors.New("configfile: no such section")
)
