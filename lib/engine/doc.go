// Package engine defines the call-in boundary between the gKV driver and a
// hierarchical key/value database engine.
//
// The package focuses on:
//   - A single Engine interface mirroring the engine's fixed call-in entry
//     points (data, get, set, kill, order, node traversal, increment, lock,
//     merge, routine calls, transactions, directories, intrinsics)
//   - Integer statuses with an explicit split between soft outcomes
//     (undefined node, end of tree, lock not acquired) and hard failures
//   - The configuration consumed at open time and the engine limits
//     (maximum subscript count, maximum string length)
//
// Two functionally equivalent bindings implement the interface:
//
//   - The cedar package (github.com/ValentinKolb/gKV/lib/engine/cedar)
//     provides an in-process, in-memory reference engine with native
//     collation, an incremental lock table and snapshot transactions. This is
//     the resolved-handle variant: bound once at Open, called directly.
//
//   - The remote client (github.com/ValentinKolb/gKV/remote/client) ships
//     every call as a framed message to a gKV server. This is the by-name
//     variant: each call is resolved on the server side.
//
// All entry points are synchronous and singly-reentrant. Callers must
// serialize access; the driver package wraps every call in its serialization
// gate and is the only intended consumer of this interface.
//
// The testing package (github.com/ValentinKolb/gKV/lib/engine/testing)
// provides a standardized conformance suite for Engine implementations.
package engine
