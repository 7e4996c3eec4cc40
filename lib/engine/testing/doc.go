// Package testing provides a standardised conformance suite for engine
// bindings that satisfy the engine.Engine interface.
//
// The suite validates the full entry-point contract: node access, $DATA
// semantics, collation-ordered iteration, depth-first traversal, incremental
// locks, merge, routines, directories, intrinsics and transactions.
//
// This package is particularly useful for:
//   - Engine developers implementing a new binding (in-process or remote)
//   - Verifying that a remote binding behaves byte-for-byte like the
//     in-process reference engine
//
// Example usage:
//
//	// Creating a factory function for your binding
//	factory := func() engine.Engine {
//		return cedar.New(nil)
//	}
//
//	// Running the standard conformance suite
//	enginetest.RunEngineTests(t, "cedar", factory)
package testing
