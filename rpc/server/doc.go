// Package server implements the gKV engine server. It serves a cedar
// environment over a server transport, giving every client connection its
// own engine session while all sessions share globals, locks and routines.
//
// The package focuses on:
//   - Server-side request handling for every engine entry point
//   - Adapter pattern to decouple engine semantics from RPC mechanisms
//   - Session lifecycle bound to the connection lifecycle
//   - Lock and local cleanup when a client disconnects
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for server adapters,
//     with the Handle method that processes one request against an
//     engine.Engine session.
//
//   - NewEngineServerAdapter: Factory function creating the adapter that maps
//     wire messages onto engine entry points. Hard statuses carry their error
//     text in the response, soft statuses travel as plain status codes.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified environment, transport and serializer. A nil environment
//     creates a fresh one; passing an environment lets the caller register
//     routines before serving.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Endpoint:        "0.0.0.0:8080",
//	  TimeoutSecond:   5,
//	  Serializer:      "binary",
//	  GlobalDirectory: "default",
//	  LogLevel:        "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  nil,
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Session Model:
//
//	One connection is one session. The transport delivers the requests of a
//	session sequentially, which satisfies the engine's singly-reentrant
//	contract without a lock on the server side. When the connection closes,
//	for whatever reason, the session is closed too: its locks are released
//	and its locals discarded. Transactions are rejected by the remote client
//	binding before they ever reach the server.
//
// Thread Safety:
//
//	The server handles concurrent connections, each in its own goroutine.
//	Within one session requests are strictly ordered. The Serve method is
//	not thread-safe and should be called only once.
package server
