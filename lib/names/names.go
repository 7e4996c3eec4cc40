package names

import (
	"errors"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Constants and Errors
// --------------------------------------------------------------------------

const (
	// Sigil is the prefix marking a global (persisted) variable name.
	Sigil = '^'

	// ReservedPrefix marks the driver-private local bookkeeping namespace.
	// Locals with this prefix are rejected on input and skipped during
	// top-level local iteration.
	ReservedPrefix = "v4w"
)

var (
	// ErrInvalidName is returned when a name is empty, malformed, or contains
	// subscript-delimiter characters (the caller supplied a full reference
	// instead of a bare name).
	ErrInvalidName = errors.New("invalid name")

	// ErrReservedName is returned when a local name starts with the
	// driver-private bookkeeping prefix.
	ErrReservedName = errors.New("reserved name")
)

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

// Globalize prepends the sigil if name lacks one. Idempotent.
func Globalize(name string) string {
	if strings.HasPrefix(name, string(Sigil)) {
		return name
	}
	return string(Sigil) + name
}

// Localize strips exactly one leading sigil if present. Idempotent for
// unprefixed names.
func Localize(name string) string {
	if strings.HasPrefix(name, string(Sigil)) {
		return name[1:]
	}
	return name
}

// IsGlobal reports whether name carries the sigil.
func IsGlobal(name string) bool {
	return strings.HasPrefix(name, string(Sigil))
}

// --------------------------------------------------------------------------
// Validation
// --------------------------------------------------------------------------

// Validate checks a bare global or local name (the sigil, if any, is ignored).
// It fails with ErrInvalidName when the name is empty, contains
// subscript-delimiter characters, or is not a legal variable name, and with
// ErrReservedName when a local name starts with ReservedPrefix.
func Validate(name string) error {
	bare := Localize(name)
	if bare == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}

	if i := strings.IndexAny(bare, `(),"`); i >= 0 {
		return fmt.Errorf("%w: %q contains subscript delimiter %q (pass a bare name, not a reference)", ErrInvalidName, name, bare[i])
	}

	if !IsLegal(bare) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if !IsGlobal(name) && strings.HasPrefix(bare, ReservedPrefix) {
		return fmt.Errorf("%w: the %q prefix is reserved for driver bookkeeping", ErrReservedName, ReservedPrefix)
	}

	return nil
}

// IsLegal checks the engine's variable-name grammar: a letter or '%'
// followed by letters and digits.
func IsLegal(bare string) bool {
	if bare == "" {
		return false
	}
	for i := 0; i < len(bare); i++ {
		c := bare[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c == '%' && i == 0:
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
