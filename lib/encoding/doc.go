// Package encoding implements the two argument-encoding protocols of the
// engine ABI.
//
// Protocol A is the string call-in token stream: every argument becomes a
// length-prefixed token ("<byte-length>:<body>") and the tokens are joined
// with no separator. Plain numbers encode as bare canonical digits, strings
// are quoted (the length covers the quotes), and three structured directives
// are recognized: Reference (pass a glvn by reference, '.'-marked), Variable
// (pass a resolved name) and Value (a nested plain value).
//
// Protocol B is the direct-buffer array: every subscript becomes an
// independent length+data record with no joining, as consumed by the engine's
// buffer-based API. In canonical mode numeric records are rewritten to the
// engine's canonical number text (no leading zero before the decimal point).
//
// Both protocols cap the subscript count at engine.MaxSubscripts and reject
// unsupported value shapes with ErrInvalidArgument before any engine call is
// made.
package encoding
