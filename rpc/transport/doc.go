// Package transport defines the interfaces and abstractions for RPC
// communication in the gKV remote engine binding. It provides a common
// contract that all transport implementations must fulfill, enabling
// protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Modelling one connection as one engine session with lifecycle hooks
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations
//     that owns a single connection and the session behind it.
//
//   - IRPCServerTransport: Interface for server-side transport implementations
//     that receives requests and routes them to the registered handler.
//
//   - ServerHandleFunc: Function type for request handling callbacks. Requests
//     of one session are delivered sequentially, in arrival order.
//
//   - SessionHooks: Callbacks for session open and close, used by the server
//     to create engine sessions and release their locks on disconnect.
package transport
