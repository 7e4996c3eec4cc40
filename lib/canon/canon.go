package canon

import (
	"strconv"
	"strings"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// maxNumericLen is the longest engine text still surfaced as a number.
// The engine's native numeric precision (about 18 significant digits) exceeds
// float64's exact round-trip precision, so longer numeric-looking text is
// surfaced as a string to avoid silent precision loss.
const maxNumericLen = 16

// --------------------------------------------------------------------------
// Classification
// --------------------------------------------------------------------------

// IsNumericText reports whether s is canonical engine number text that can be
// surfaced as a float64 without precision loss.
//
// The rules: only digits, at most one leading '-', at most one '.'; at least
// one digit; no trailing '.'; no superfluous leading zero ("0" followed by
// another digit); no trailing zero right of the decimal point; at most
// 16 characters.
func IsNumericText(s string) bool {
	return len(s) <= maxNumericLen && canonicalShape(s)
}

// canonicalShape checks the canonical-number rules without the length cap.
// Collation uses it directly: numeric ordering follows the shape of the text
// even when it is too long to surface as a float64.
func canonicalShape(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[len(s)-1] == '.' {
		return false
	}

	dot := -1
	digits := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '-':
			if i != 0 {
				return false
			}
		case c == '.':
			if dot >= 0 {
				return false
			}
			dot = i
		case c >= '0' && c <= '9':
			digits++
		default:
			return false
		}
	}
	if digits == 0 {
		return false
	}

	// superfluous leading zero ("01", "0.5", "-007", ...): a leading '0'
	// is canonical only as the whole number "0"
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if len(s) > start+1 && s[start] == '0' {
		return false
	}

	// trailing zero right of the decimal point ("1.50", "3.0", ...)
	if dot >= 0 && s[len(s)-1] == '0' {
		return false
	}

	return true
}

// --------------------------------------------------------------------------
// Formatting
// --------------------------------------------------------------------------

// FormatNumber renders f as canonical engine number text: no exponent, no
// superfluous digits, and no leading zero before the decimal point
// (0.5 -> ".5", -0.5 -> "-.5").
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return StripLeadingZero(s)
}

// StripLeadingZero rewrites "0.x" to ".x" and "-0.x" to "-.x", matching the
// engine's canonical number text. Any other input is returned unchanged.
func StripLeadingZero(s string) string {
	if strings.HasPrefix(s, "0.") {
		return s[1:]
	}
	if strings.HasPrefix(s, "-0.") {
		return "-" + s[2:]
	}
	return s
}

// NumberText renders a typed host value as engine number text.
// The second return value is false if v is not a numeric type.
func NumberText(v interface{}) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return FormatNumber(float64(n)), true
	case float64:
		return FormatNumber(n), true
	default:
		return "", false
	}
}

// --------------------------------------------------------------------------
// Surfacing
// --------------------------------------------------------------------------

// Surface converts raw engine result text into the host value the caller
// sees: a float64 when the mode is canonical and the text classifies as
// numeric, otherwise the text itself.
func Surface(text string, mode engine.Mode) interface{} {
	if mode == engine.ModeCanonical && IsNumericText(text) {
		// IsNumericText guarantees ParseFloat succeeds
		f, err := strconv.ParseFloat(text, 64)
		if err == nil {
			return f
		}
	}
	return text
}

// --------------------------------------------------------------------------
// Collation
// --------------------------------------------------------------------------

// Compare orders two subscript texts in the engine's native collation:
// canonical numeric subscripts in numeric order before subscripts that are
// not canonical numbers, which collate in byte order.
func Compare(a, b string) int {
	an, aNum := parseCollating(a)
	bn, bNum := parseCollating(b)

	switch {
	case aNum && bNum:
		if an < bn {
			return -1
		}
		if an > bn {
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// parseCollating parses a as a canonical number for collation purposes.
func parseCollating(s string) (float64, bool) {
	if !canonicalShape(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
