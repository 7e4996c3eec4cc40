// Package base provides a foundation for transport layers of the gKV remote
// engine binding, implementing core functionality for RPC communication
// independent of the specific network protocol (TCP, Unix sockets, etc.). It
// serves as a base layer that can be extended with protocol-specific
// connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - A frame protocol with request correlation and payload checksums
//   - One session per connection with open/close lifecycle hooks
//   - Buffer reuse on the server to reduce GC pressure
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - clientTransport: Core client implementation owning a single connection.
//     Responses are correlated to requests via unique request IDs, so several
//     goroutines may have calls in flight at once even though the server
//     handles them in order. There is deliberately no connection pool and no
//     request retry: the server keeps session state (locals, locks, directory
//     selector) per connection, and engine operations are not idempotent.
//
//   - serverTransport: Core server implementation that accepts connections,
//     assigns each one a session ID and handles its requests sequentially.
//
// Wire Format:
//
//	Each frame is a 20 byte header followed by the payload: the request ID
//	(8 bytes), the payload length (4 bytes) and an xxh3 checksum of the
//	payload (8 bytes), all big endian. The checksum is verified on every
//	read; a mismatch poisons the connection.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic
//	operations and mutexes to ensure concurrent access safety, while the
//	server creates a dedicated goroutine for each connection.
package base
