package names

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// fakeSelector records directory-selector reads and writes.
type fakeSelector struct {
	dir  string
	sets []string
}

func (f *fakeSelector) IntrinsicGet(name string) (string, engine.Status) {
	if name != engine.ISVGlobalDirectory {
		return "", engine.StatusNoIntrinsic
	}
	return f.dir, engine.StatusOK
}

func (f *fakeSelector) IntrinsicSet(name string, value string) engine.Status {
	if name != engine.ISVGlobalDirectory {
		return engine.StatusNoIntrinsic
	}
	f.dir = value
	f.sets = append(f.sets, value)
	return engine.StatusOK
}

func TestResolveExtendedReference(t *testing.T) {
	for _, name := range []string{"^[other]acct", "^|other|acct", `^["other"]acct`} {
		sel := &fakeSelector{dir: "default"}

		plain, restore, err := ResolveExtendedReference(name, sel)
		if err != nil {
			t.Fatalf("ResolveExtendedReference(%q): %v", name, err)
		}
		if plain != "^acct" {
			t.Errorf("%q: expected plain ^acct, got %q", name, plain)
		}
		if sel.dir != "other" {
			t.Errorf("%q: expected selector other, got %q", name, sel.dir)
		}

		// restore puts the previous selector back
		if restore == nil {
			t.Fatalf("%q: expected a restore function", name)
		}
		if err := restore(); err != nil {
			t.Fatalf("%q: restore failed: %v", name, err)
		}
		if sel.dir != "default" {
			t.Errorf("%q: expected selector restored to default, got %q", name, sel.dir)
		}
	}
}

func TestResolveExtendedReferencePlain(t *testing.T) {
	sel := &fakeSelector{dir: "default"}

	plain, restore, err := ResolveExtendedReference("^acct", sel)
	if err != nil || plain != "^acct" || restore != nil {
		t.Errorf("Plain names must pass through untouched: %q, %p, %v", plain, restore, err)
	}
	if len(sel.sets) != 0 {
		t.Errorf("Plain names must not touch the selector")
	}
}

func TestResolveExtendedReferenceInvalid(t *testing.T) {
	// both syntaxes share the delimiter checks
	invalid := []string{
		"^[other",      // unterminated
		"^|other",      // unterminated
		"^[]acct",      // empty directory
		"^||acct",      // empty directory
		`^[""]acct`,    // empty quoted directory
		"^[other]",     // no global named
		"^|other|",     // no global named
		`^[a"b]acct`,   // delimiter inside directory
		"^|a[b|acct",   // delimiter inside directory
	}
	for _, name := range invalid {
		sel := &fakeSelector{dir: "default"}
		if _, _, err := ResolveExtendedReference(name, sel); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ResolveExtendedReference(%q): expected ErrInvalidName, got %v", name, err)
		}
		if len(sel.sets) != 0 {
			t.Errorf("ResolveExtendedReference(%q): selector touched on the error path", name)
		}
	}
}
