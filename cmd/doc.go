// Package cmd implements the command-line interface for the gKV hierarchical
// key-value engine. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for node operations (get, set, kill, order, merge, etc.)
//   - lock: Commands for session-scoped lock operations (try, hold)
//   - serve: Commands for starting and configuring the gKV server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See gkv -help for a list of all commands.
package cmd
