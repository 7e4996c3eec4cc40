package encoding

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ValentinKolb/gKV/lib/engine"
)

func TestEncodeCallIn(t *testing.T) {
	cases := []struct {
		name string
		args []interface{}
		want string
	}{
		{"Empty", nil, ""},
		{"Nil", []interface{}{nil}, "0:"},
		{"Int", []interface{}{42}, "2:42"},
		{"Float", []interface{}{2.5}, "3:2.5"},
		{"Fraction", []interface{}{0.5}, "2:.5"},
		{"Negative", []interface{}{-3}, "2:-3"},
		{"String", []interface{}{"abc"}, `5:"abc"`},
		{"EmptyString", []interface{}{""}, `2:""`},
		{"AccountKey", []interface{}{"1001", 42}, `6:"1001"2:42`},
		{"Reference", []interface{}{Reference{Name: "^acct"}}, "6:.^acct"},
		{"LocalReference", []interface{}{Reference{Name: "out"}}, "4:.out"},
		{"Variable", []interface{}{Variable{Name: "flag"}}, "4:flag"},
		{"NestedValue", []interface{}{Value{V: 42}}, "2:42"},
		{"Mixed", []interface{}{1, "a", nil}, `1:13:"a"0:`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := EncodeCallIn(c.args)
			if err != nil {
				t.Fatalf("EncodeCallIn(%v): %v", c.args, err)
			}
			if got != c.want {
				t.Errorf("EncodeCallIn(%v): expected %q, got %q", c.args, c.want, got)
			}
		})
	}
}

func TestEncodeCallInErrors(t *testing.T) {
	// nested directives are invalid
	if _, err := EncodeCallIn([]interface{}{Value{V: Reference{Name: "x"}}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Nested reference: expected ErrInvalidArgument, got %v", err)
	}

	// unsupported shapes
	if _, err := EncodeCallIn([]interface{}{map[string]int{"a": 1}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Map argument: expected ErrInvalidArgument, got %v", err)
	}

	// invalid directive names
	if _, err := EncodeCallIn([]interface{}{Reference{Name: "1bad"}}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Bad reference name: expected ErrInvalidArgument, got %v", err)
	}

	// subscript count cap
	many := make([]interface{}, engine.MaxSubscripts+1)
	for i := range many {
		many[i] = i
	}
	if _, err := EncodeCallIn(many); !errors.Is(err, ErrTooManySubs) {
		t.Errorf("Expected ErrTooManySubs, got %v", err)
	}
}

func TestCallInRoundTrip(t *testing.T) {
	// plain values survive encode/decode unchanged (numbers come back float64)
	args := []interface{}{float64(1), "a", 2.5, nil, Reference{Name: "acct"}}

	stream, err := EncodeCallIn(args)
	if err != nil {
		t.Fatalf("EncodeCallIn: %v", err)
	}

	back, err := DecodeCallIn(stream)
	if err != nil {
		t.Fatalf("DecodeCallIn(%q): %v", stream, err)
	}

	if len(back) != len(args) {
		t.Fatalf("Round trip length: expected %d, got %d", len(args), len(back))
	}
	for i := range args {
		if back[i] != args[i] {
			t.Errorf("Round trip position %d: expected %#v, got %#v", i, args[i], back[i])
		}
	}
}

func TestDecodeCallInErrors(t *testing.T) {
	for _, stream := range []string{"2", "x:ab", "-1:", "5:abc"} {
		if _, err := DecodeCallIn(stream); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("DecodeCallIn(%q): expected ErrInvalidArgument, got %v", stream, err)
		}
	}
}

func TestEncodeBuffers(t *testing.T) {
	// records are independent, not token-joined
	recs, err := EncodeBuffers([]interface{}{"1001", 42, 2.5}, engine.ModeCanonical)
	if err != nil {
		t.Fatalf("EncodeBuffers: %v", err)
	}
	want := [][]byte{[]byte("1001"), []byte("42"), []byte("2.5")}
	if len(recs) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(recs))
	}
	for i := range want {
		if !bytes.Equal(recs[i], want[i]) {
			t.Errorf("Record %d: expected %q, got %q", i, want[i], recs[i])
		}
	}
}

func TestEncodeBuffersModes(t *testing.T) {
	// canonical mode rewrites fractional numerics, string mode keeps them
	recs, err := EncodeBuffers([]interface{}{0.5}, engine.ModeCanonical)
	if err != nil {
		t.Fatalf("EncodeBuffers: %v", err)
	}
	if string(recs[0]) != ".5" {
		t.Errorf("Canonical mode: expected .5, got %q", recs[0])
	}

	recs, err = EncodeBuffers([]interface{}{0.5}, engine.ModeString)
	if err != nil {
		t.Fatalf("EncodeBuffers: %v", err)
	}
	if string(recs[0]) != "0.5" {
		t.Errorf("String mode: expected 0.5, got %q", recs[0])
	}

	// string subscripts pass through byte-exact in both modes
	recs, _ = EncodeBuffers([]interface{}{"0.5"}, engine.ModeCanonical)
	if string(recs[0]) != "0.5" {
		t.Errorf("String subscripts are never rewritten, got %q", recs[0])
	}
}

func TestEncodeBuffersErrors(t *testing.T) {
	if _, err := EncodeBuffers([]interface{}{Reference{Name: "x"}}, engine.ModeCanonical); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Reference subscript: expected ErrInvalidArgument, got %v", err)
	}

	many := make([]interface{}, engine.MaxSubscripts+1)
	for i := range many {
		many[i] = "s"
	}
	if _, err := EncodeBuffers(many, engine.ModeCanonical); !errors.Is(err, ErrTooManySubs) {
		t.Errorf("Expected ErrTooManySubs, got %v", err)
	}
}
