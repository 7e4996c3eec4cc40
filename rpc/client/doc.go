// Package client implements the remote binding of the gKV engine interface.
// It provides an engine.Engine implementation that forwards every entry
// point to a gKV server via RPC, so the driver works identically against an
// in-process engine and a remote one.
//
// The package focuses on:
//   - Transparent remote access to a full engine session
//   - Integration with the transport and serialization layers
//   - Folding transport failures into the engine status model
//
// Key Components:
//
//   - NewRemoteEngine: Factory function that creates an engine.Engine backed
//     by a server connection. One engine owns one connection, and one
//     connection is one server-side session: locals, locks and the directory
//     selector live on the server for exactly as long as the connection does.
//
// Semantic differences to the in-process binding:
//
//   - Transaction returns StatusNotSupported. The retry unit would pin the
//     server-side store across an arbitrary number of network round trips.
//
//   - SetDiagnosticWriter is a no-op; diagnostics stay on the server.
//
//   - A lost connection surfaces as StatusInternalError on the pending and
//     all following calls. The binding never reconnects silently, because the
//     session state (locks above all) is gone with the connection.
//
// Usage Example:
//
//	cfg := common.ClientConfig{
//	  Endpoint:      "localhost:5000",
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	  Serializer:    "binary",
//	}
//
//	ser, _ := serializer.GetSerializer(cfg.Serializer, cfg.Compression)
//	eng := client.NewRemoteEngine(cfg, tcp.NewTCPClientTransport(), ser)
//
//	// Hand the engine to the driver
//	d, _ := driver.New(driver.Config{Engine: eng})
//
// Thread Safety:
//
//	The remote engine is deliberately not thread-safe. The engine contract
//	is singly-reentrant and the driver's serialization gate already
//	guarantees one call at a time.
package client
