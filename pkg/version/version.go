// Package version provides bus protocol version parsing and comparison.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the bus protocol version implemented by this module.
const Current = "1.0"

// txtKey is the mDNS TXT record key carrying the broker's protocol
// version.
const txtKey = "v"

// ErrMalformed is returned for version strings that are not
// "major.minor" with numeric components.
var ErrMalformed = errors.New("malformed protocol version")

// Version is a parsed "major.minor" protocol version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, fmt.Errorf("%w: %q wants major.minor", ErrMalformed, s)
	}

	major, err := strconv.ParseUint(majorStr, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("%w: major %q", ErrMalformed, majorStr)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("%w: minor %q", ErrMalformed, minorStr)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether both sides speak the same major version.
// Minor revisions are additive and never break the wire contract.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// TXTRecord returns the mDNS TXT entry advertising the current
// protocol version.
func TXTRecord() string {
	return txtKey + "=" + Current
}

// FromTXT extracts the protocol version from mDNS TXT records. The
// second return is false when no version entry is present.
func FromTXT(txt []string) (Version, bool, error) {
	for _, entry := range txt {
		value, found := strings.CutPrefix(entry, txtKey+"=")
		if !found {
			continue
		}
		v, err := Parse(value)
		if err != nil {
			return Version{}, true, err
		}
		return v, true, nil
	}
	return Version{}, false, nil
}
