// Package rpc provides the remote binding of the gKV engine. It acts as the
// communication layer between the driver and an engine server, enabling the
// full engine interface across network boundaries.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets). One connection carries one engine
//     session.
//
//   - serializer: Message serialization with multiple format options (Binary,
//     JSON, GOB) plus an optional s2 compression wrapper.
//
//   - client: The remote engine.Engine implementation, allowing the driver to
//     work against a server exactly as it does against the in-process engine.
//
//   - server: The engine server that serves a cedar environment, one session
//     per connection.
package rpc
