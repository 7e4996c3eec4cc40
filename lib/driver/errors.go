package driver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the structured error surfaced for every failed driver operation.
// It wraps the engine status, the numeric code parsed from the engine's
// out-of-band error text and the cleaned message.
type Error struct {
	Status engine.Status // the engine status that raised the error
	Code   int32         // numeric code parsed from the error text
	Msg    string        // the cleaned error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("EngineError (code %d): %s", e.Code, e.Msg)
}

// Fatal reports whether the error means the engine process state is no longer
// usable and the connection must be shut down. Interrupt traps raised inside
// the engine leave the call-in interface in an undefined state.
func (e *Error) Fatal() bool {
	for _, trap := range fatalTraps {
		if strings.Contains(e.Msg, trap) {
			return true
		}
	}
	return false
}

// fatalTraps are the engine condition mnemonics after which no further
// call-in may be issued.
var fatalTraps = []string{"CTRAP", "JOBINTRRUPT"}

// newError builds a driver error directly, without engine text.
func newError(st engine.Status, format string, args ...interface{}) *Error {
	return &Error{Status: st, Code: int32(st), Msg: fmt.Sprintf(format, args...)}
}

// --------------------------------------------------------------------------
// Engine Error Decoding
// --------------------------------------------------------------------------

// decodeEngineError turns a hard engine status into a structured *Error by
// retrieving and parsing the out-of-band error text. The text has the shape
// "code,message"; a missing or malformed prefix falls back to the status
// value, and surrounding comma/percent noise is trimmed from the message.
func decodeEngineError(e engine.Engine, st engine.Status) *Error {
	text := e.ErrorText(st)
	if len(text) > engine.MaxErrorLen {
		text = text[:engine.MaxErrorLen]
	}

	code := int32(st)
	msg := text
	if i := strings.IndexByte(text, ','); i >= 0 {
		if n, err := strconv.ParseInt(text[:i], 10, 32); err == nil {
			code = int32(n)
			msg = text[i+1:]
		}
	}
	msg = strings.Trim(msg, ",% \n")
	if msg == "" {
		msg = fmt.Sprintf("engine call failed with status %d", st)
	}

	return &Error{Status: st, Code: code, Msg: msg}
}
