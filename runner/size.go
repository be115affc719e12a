package runner

import (
	"github.com/dustin/go-humanize"
)

// Size stores number of byte for the object. E.g. Memory.
// Maximum size is bounded by 64-bit limit
type Size uint64

// String stringer interface for print
func (s Size) String() string {
	return humanize.IBytes(uint64(s))
}

// Set parse the size value from string (e.g. 256m, 64MiB, 1g)
func (s *Size) Set(str string) error {
	t, err := humanize.ParseBytes(binarySuffix(str))
	if err != nil {
		return err
	}
	*s = Size(t)
	return nil
}

// UnmarshalText decodes the size from profiles (e.g. "256m")
func (s *Size) UnmarshalText(b []byte) error {
	return s.Set(string(b))
}

// Type is used by pflag to show the value type
func (s *Size) Type() string {
	return "size"
}

// binarySuffix reads single letter suffix k / m / g as power of 2
func binarySuffix(str string) string {
	if str == "" {
		return str
	}
	switch str[len(str)-1] {
	case 'k', 'K', 'm', 'M', 'g', 'G', 't', 'T':
		return str + "iB"
	}
	return str
}

// Byte return size in bytes
func (s Size) Byte() uint64 {
	return uint64(s)
}

// KiB return size in KiB
func (s Size) KiB() uint64 {
	return uint64(s) >> 10
}

// MiB return size in MiB
func (s Size) MiB() uint64 {
	return uint64(s) >> 20
}

// GiB return size in GiB
func (s Size) GiB() uint64 {
	return uint64(s) >> 30
}
