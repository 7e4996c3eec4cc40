package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/gKV/lib/canon"
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/names"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrInvalidArgument is returned for value shapes the engine protocols
	// cannot carry (nested objects, maps, unrecognized directive types, ...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTooManySubs is returned when the subscript count exceeds the
	// engine's maximum.
	ErrTooManySubs = errors.New("too many subscripts")
)

// --------------------------------------------------------------------------
// Structured Directives
// --------------------------------------------------------------------------

// Reference directs the encoder to pass a glvn by reference. The name is
// normalized through the names package and carries the '.' marker on the wire.
type Reference struct {
	Name string
}

// Variable directs the encoder to pass a resolved variable name, unprefixed.
type Variable struct {
	Name string
}

// Value wraps a nested plain value inside a directive position.
type Value struct {
	V interface{}
}

// --------------------------------------------------------------------------
// Protocol A - string call-in token stream
// --------------------------------------------------------------------------

// EncodeCallIn builds the engine's call-in token stream: every argument
// becomes a "<byte-length>:<body>" token, joined with no separator.
//
//	nil / absent      -> "0:"
//	number            -> bare digits
//	string            -> quoted, length includes the two quote characters
//	Reference{n}      -> '.' marker + normalized name
//	Variable{n}       -> resolved name, unprefixed
//	Value{v}          -> the number/string rule applied to v
//
// Any other shape fails with ErrInvalidArgument.
func EncodeCallIn(args []interface{}) (string, error) {
	if len(args) > engine.MaxSubscripts {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManySubs, len(args), engine.MaxSubscripts)
	}

	var sb strings.Builder
	for i, arg := range args {
		tok, err := encodeToken(arg, true)
		if err != nil {
			return "", fmt.Errorf("argument %d: %w", i, err)
		}
		sb.WriteString(tok)
	}
	return sb.String(), nil
}

// encodeToken encodes a single argument. directives controls whether the
// structured directive types are accepted at this nesting level.
func encodeToken(arg interface{}, directives bool) (string, error) {
	if arg == nil {
		return "0:", nil
	}

	if num, ok := canon.NumberText(arg); ok {
		return token(num), nil
	}

	switch v := arg.(type) {
	case string:
		return token(`"` + v + `"`), nil
	case Reference:
		if !directives {
			return "", fmt.Errorf("%w: nested reference directive", ErrInvalidArgument)
		}
		name, err := resolveDirectiveName(v.Name)
		if err != nil {
			return "", err
		}
		return token("." + name), nil
	case Variable:
		if !directives {
			return "", fmt.Errorf("%w: nested variable directive", ErrInvalidArgument)
		}
		name, err := resolveDirectiveName(v.Name)
		if err != nil {
			return "", err
		}
		return token(name), nil
	case Value:
		if !directives {
			return "", fmt.Errorf("%w: nested value directive", ErrInvalidArgument)
		}
		return encodeToken(v.V, false)
	default:
		return "", fmt.Errorf("%w: unsupported value of type %T", ErrInvalidArgument, arg)
	}
}

// token renders body as a length-prefixed token.
func token(body string) string {
	if len(body) > engine.MaxStringLen {
		// callers validate lengths before encoding; this is the backstop
		body = body[:engine.MaxStringLen]
	}
	return strconv.Itoa(len(body)) + ":" + body
}

// resolveDirectiveName validates and normalizes the glvn a directive names.
func resolveDirectiveName(name string) (string, error) {
	if err := names.Validate(name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if names.IsGlobal(name) {
		return names.Globalize(name), nil
	}
	return name, nil
}

// --------------------------------------------------------------------------
// Protocol A - decoding
// --------------------------------------------------------------------------

// DecodeCallIn parses a call-in token stream back into host values. Used by
// tests and the debug trace path; the inverse of EncodeCallIn for plain
// values ("0:" -> nil, quoted -> string, numeric -> float64, '.'-marked ->
// Reference, anything else -> Variable).
func DecodeCallIn(stream string) ([]interface{}, error) {
	var out []interface{}

	for pos := 0; pos < len(stream); {
		colon := strings.IndexByte(stream[pos:], ':')
		if colon < 0 {
			return nil, fmt.Errorf("%w: missing length separator at offset %d", ErrInvalidArgument, pos)
		}
		n, err := strconv.Atoi(stream[pos : pos+colon])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad token length at offset %d", ErrInvalidArgument, pos)
		}
		pos += colon + 1
		if pos+n > len(stream) {
			return nil, fmt.Errorf("%w: truncated token at offset %d", ErrInvalidArgument, pos)
		}
		body := stream[pos : pos+n]
		pos += n

		out = append(out, decodeBody(body))
	}
	return out, nil
}

func decodeBody(body string) interface{} {
	switch {
	case body == "":
		return nil
	case len(body) >= 2 && body[0] == '"' && body[len(body)-1] == '"':
		return body[1 : len(body)-1]
	// numbers win over the '.' reference marker (".5" is a fraction)
	case canon.IsNumericText(body):
		f, _ := strconv.ParseFloat(body, 64)
		return f
	case body[0] == '.':
		return Reference{Name: body[1:]}
	default:
		return Variable{Name: body}
	}
}

// --------------------------------------------------------------------------
// Protocol B - direct buffer records
// --------------------------------------------------------------------------

// EncodeBuffers builds the direct-buffer argument array: every subscript
// becomes an independent length+data record, no token joining. In canonical
// mode numeric source values are rewritten to the engine's canonical number
// text (a leading "0." becomes ".", "-0." becomes "-."). Value shapes are
// restricted exactly as in EncodeCallIn.
func EncodeBuffers(subs []interface{}, mode engine.Mode) ([][]byte, error) {
	if len(subs) > engine.MaxSubscripts {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySubs, len(subs), engine.MaxSubscripts)
	}

	out := make([][]byte, 0, len(subs))
	for i, sub := range subs {
		rec, err := encodeRecord(sub, mode)
		if err != nil {
			return nil, fmt.Errorf("subscript %d: %w", i, err)
		}
		if len(rec) > engine.MaxStringLen {
			return nil, fmt.Errorf("subscript %d: %w: %d bytes exceeds the engine maximum", i, ErrInvalidArgument, len(rec))
		}
		out = append(out, rec)
	}
	return out, nil
}

func encodeRecord(sub interface{}, mode engine.Mode) ([]byte, error) {
	if sub == nil {
		return []byte{}, nil
	}

	if num, ok := plainNumberText(sub); ok {
		if mode == engine.ModeCanonical {
			num = canon.StripLeadingZero(num)
		}
		return []byte(num), nil
	}

	switch v := sub.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case Value:
		return encodeRecord(v.V, mode)
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrInvalidArgument, sub)
	}
}

// plainNumberText renders numeric types without the canonical leading-zero
// rewrite (string mode passes "0.5" through unchanged).
func plainNumberText(v interface{}) (string, bool) {
	switch n := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return canon.NumberText(v)
	}
}
