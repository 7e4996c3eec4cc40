package names

import (
	"errors"
	"testing"
)

func TestGlobalizeLocalize(t *testing.T) {
	if got := Globalize("acct"); got != "^acct" {
		t.Errorf("Globalize(acct): got %q", got)
	}
	if got := Localize("^acct"); got != "acct" {
		t.Errorf("Localize(^acct): got %q", got)
	}

	// both directions are idempotent
	if got := Globalize(Globalize("acct")); got != "^acct" {
		t.Errorf("Globalize must be idempotent, got %q", got)
	}
	if got := Localize(Localize("acct")); got != "acct" {
		t.Errorf("Localize must be idempotent, got %q", got)
	}

	// round trips are stable
	if got := Localize(Globalize("acct")); got != "acct" {
		t.Errorf("Localize(Globalize(acct)): got %q", got)
	}
	if got := Globalize(Localize("^acct")); got != "^acct" {
		t.Errorf("Globalize(Localize(^acct)): got %q", got)
	}
}

func TestIsGlobal(t *testing.T) {
	if !IsGlobal("^acct") {
		t.Errorf("^acct must be global")
	}
	if IsGlobal("acct") {
		t.Errorf("acct must not be global")
	}
}

func TestValidate(t *testing.T) {
	valid := []string{"acct", "^acct", "%sys", "^%sys", "a1", "^A9z"}
	for _, n := range valid {
		if err := Validate(n); err != nil {
			t.Errorf("Validate(%q): unexpected error %v", n, err)
		}
	}

	invalid := []string{"", "^", "1acct", "^1acct", "a-b", "a%b", `acct("1")`, "a,b", "a(b)"}
	for _, n := range invalid {
		if err := Validate(n); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Validate(%q): expected ErrInvalidName, got %v", n, err)
		}
	}

	// the bookkeeping prefix is rejected for locals only
	if err := Validate("v4wTest"); !errors.Is(err, ErrReservedName) {
		t.Errorf("Validate(v4wTest): expected ErrReservedName, got %v", err)
	}
	if err := Validate("^v4wTest"); err != nil {
		t.Errorf("Validate(^v4wTest): globals may use the prefix, got %v", err)
	}
}

func TestIsLegal(t *testing.T) {
	if IsLegal("") {
		t.Errorf("Empty name must be illegal")
	}
	if !IsLegal("%a1") {
		t.Errorf("%%a1 must be legal")
	}
	if IsLegal("a%b") {
		t.Errorf("'%%' is only legal in the first position")
	}
	if IsLegal("1a") {
		t.Errorf("Names must not start with a digit")
	}
}
