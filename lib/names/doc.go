// Package names implements global/local variable name validation and sigil
// normalization for the gKV driver.
//
// The package focuses on:
//   - Globalize/Localize: idempotent addition and removal of the '^' sigil
//   - Validate: rejecting references passed as names (subscript delimiters),
//     illegal name shapes, and the driver-private reserved local prefix
//   - ResolveExtendedReference: the "^[dir]name" and "^|dir|name"
//     alternate-global-directory syntaxes, including the symmetric
//     overwrite/restore protocol for the engine's directory selector
//
// Every name handed to the engine passes through this package first: global
// names carry exactly one leading sigil, local names never carry the
// reserved bookkeeping prefix.
package names
