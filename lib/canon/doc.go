// Package canon decides how engine text and host values map onto each other.
//
// The package focuses on:
//   - IsNumericText: whether engine result text may be surfaced as a number
//     without precision loss (the 16-character rule)
//   - FormatNumber/NumberText: rendering host numbers as the engine's
//     canonical number text (no exponent, no leading zero before the point)
//   - Surface: applying the canonical-vs-string result mode
//   - Compare: the engine's native subscript collation (canonical numerics
//     in numeric order before everything else)
package canon
