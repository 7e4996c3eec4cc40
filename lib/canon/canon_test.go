package canon

import (
	"sort"
	"testing"

	"github.com/ValentinKolb/gKV/lib/engine"
)

func TestIsNumericText(t *testing.T) {
	numeric := []string{
		"0", "1", "42", "-3", ".5", "-.5", "3.14", "-2.5",
		"123456789012345", // 15 chars
		"1234567890123456", // exactly 16 chars
	}
	for _, s := range numeric {
		if !IsNumericText(s) {
			t.Errorf("Expected %q to classify as numeric", s)
		}
	}

	notNumeric := []string{
		"", "-", ".", "-.", "1.", "00", "01", "-007", "0.50", "3.0",
		"1.2.3", "--1", "1-", "1e5", " 1", "abc", `"1"`,
		"12345678901234567", // 17 chars: over the precision cap
		"0.5",               // canonical text is ".5"
	}
	for _, s := range notNumeric {
		if IsNumericText(s) {
			t.Errorf("Expected %q to classify as string", s)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:     "0",
		42:    "42",
		-3:    "-3",
		0.5:   ".5",
		-0.5:  "-.5",
		2.5:   "2.5",
		1e3:   "1000",
		0.125: ".125",
	}
	for f, want := range cases {
		if got := FormatNumber(f); got != want {
			t.Errorf("FormatNumber(%v): expected %q, got %q", f, want, got)
		}
	}
}

func TestStripLeadingZero(t *testing.T) {
	cases := map[string]string{
		"0.5":   ".5",
		"-0.5":  "-.5",
		"0":     "0",
		"10.5":  "10.5",
		"-10.5": "-10.5",
		".5":    ".5",
		"abc":   "abc",
	}
	for in, want := range cases {
		if got := StripLeadingZero(in); got != want {
			t.Errorf("StripLeadingZero(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNumberText(t *testing.T) {
	if s, ok := NumberText(42); !ok || s != "42" {
		t.Errorf("NumberText(42): got %q, %v", s, ok)
	}
	if s, ok := NumberText(uint16(7)); !ok || s != "7" {
		t.Errorf("NumberText(uint16(7)): got %q, %v", s, ok)
	}
	if s, ok := NumberText(0.5); !ok || s != ".5" {
		t.Errorf("NumberText(0.5): got %q, %v", s, ok)
	}
	if _, ok := NumberText("42"); ok {
		t.Errorf("NumberText must reject strings")
	}
	if _, ok := NumberText(nil); ok {
		t.Errorf("NumberText must reject nil")
	}
}

func TestSurface(t *testing.T) {
	// canonical mode: numeric text becomes a float64
	if v := Surface("2.5", engine.ModeCanonical); v != 2.5 {
		t.Errorf("Expected 2.5, got %v (%T)", v, v)
	}
	if v := Surface("42", engine.ModeCanonical); v != float64(42) {
		t.Errorf("Expected 42, got %v (%T)", v, v)
	}

	// 16 digits surface as a number, 17 stay text
	if v := Surface("1234567890123456", engine.ModeCanonical); v != float64(1234567890123456) {
		t.Errorf("16-digit text must surface numeric, got %v (%T)", v, v)
	}
	if v := Surface("12345678901234567", engine.ModeCanonical); v != "12345678901234567" {
		t.Errorf("17-digit text must stay a string, got %v (%T)", v, v)
	}

	// non-canonical shapes stay text even in canonical mode
	if v := Surface("007", engine.ModeCanonical); v != "007" {
		t.Errorf("Expected 007 as string, got %v (%T)", v, v)
	}

	// string mode never converts
	if v := Surface("2.5", engine.ModeString); v != "2.5" {
		t.Errorf("String mode must keep text, got %v (%T)", v, v)
	}
}

func TestCompare(t *testing.T) {
	// numerics in numeric order before strings in byte order
	in := []string{"banana", "10", "2", "apple", "-3", ".5"}
	want := []string{"-3", ".5", "2", "10", "apple", "banana"}

	sort.Slice(in, func(i, j int) bool { return Compare(in[i], in[j]) < 0 })
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("Collation order: expected %v, got %v", want, in)
		}
	}

	if Compare("2", "2") != 0 {
		t.Errorf("Equal numerics must compare equal")
	}
	if Compare("a", "a") != 0 {
		t.Errorf("Equal strings must compare equal")
	}

	// numeric ordering follows the text's shape even past the precision cap
	if Compare("123456789012345678", "223456789012345678") >= 0 {
		t.Errorf("Long canonical numerics must still order numerically")
	}
	if Compare("123456789012345678", "apple") >= 0 {
		t.Errorf("Long canonical numerics must order before strings")
	}
}
