package names

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Extended References
// --------------------------------------------------------------------------

// DirectorySelector is the slice of the engine ABI needed to swap the active
// global-directory selector while an extended reference is in effect.
type DirectorySelector interface {
	IntrinsicGet(name string) (string, engine.Status)
	IntrinsicSet(name string, value string) engine.Status
}

// ResolveExtendedReference recognizes the two alternate-global-directory
// syntaxes, "^[dir]name" and "^|dir|name". When name matches, it reads the
// current directory selector, overwrites it with the parsed directory token,
// and returns the plain reference together with a restore function the caller
// MUST invoke exactly once after the engine call completes - on the error
// path too. For plain names it returns name unchanged and a nil restore.
//
// Both syntaxes share one set of delimiter checks: the directory token may be
// quoted, must be non-empty, and must not itself contain a delimiter.
func ResolveExtendedReference(name string, sel DirectorySelector) (plain string, restore func() error, err error) {
	var dir, rest string

	switch {
	case strings.HasPrefix(name, "^["):
		dir, rest, err = splitExtended(name[2:], ']')
	case strings.HasPrefix(name, "^|"):
		dir, rest, err = splitExtended(name[2:], '|')
	default:
		return name, nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	prev, st := sel.IntrinsicGet(engine.ISVGlobalDirectory)
	if st != engine.StatusOK {
		return "", nil, fmt.Errorf("%w: cannot read directory selector (status %d)", ErrInvalidName, st)
	}

	if st := sel.IntrinsicSet(engine.ISVGlobalDirectory, dir); st != engine.StatusOK {
		return "", nil, fmt.Errorf("%w: cannot select directory %q (status %d)", ErrInvalidName, dir, st)
	}

	// From here on the selector is overwritten: the single restore below is
	// the only way back, so it is handed to the caller unconditionally.
	restore = func() error {
		if st := sel.IntrinsicSet(engine.ISVGlobalDirectory, prev); st != engine.StatusOK {
			return fmt.Errorf("failed to restore directory selector to %q (status %d)", prev, st)
		}
		return nil
	}

	return string(Sigil) + rest, restore, nil
}

// splitExtended splits "dir<close>name" into its directory token and the
// remaining bare name, applying the shared delimiter-validity checks.
func splitExtended(s string, close byte) (dir, rest string, err error) {
	i := strings.IndexByte(s, close)
	if i < 0 {
		return "", "", fmt.Errorf("%w: unterminated extended reference (missing %q)", ErrInvalidName, close)
	}

	dir, rest = s[:i], s[i+1:]

	// the directory token may be quoted
	if len(dir) >= 2 && dir[0] == '"' && dir[len(dir)-1] == '"' {
		dir = dir[1 : len(dir)-1]
	}

	if dir == "" {
		return "", "", fmt.Errorf("%w: empty directory in extended reference", ErrInvalidName)
	}
	if strings.ContainsAny(dir, `[]|"`) {
		return "", "", fmt.Errorf("%w: directory %q contains a delimiter", ErrInvalidName, dir)
	}
	if rest == "" {
		return "", "", fmt.Errorf("%w: extended reference names no global", ErrInvalidName)
	}

	return dir, rest, nil
}
