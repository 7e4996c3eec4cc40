package transport

import (
	"github.com/ValentinKolb/gKV/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport layer when a request is received on a
// session. Requests of one session are delivered sequentially, in arrival
// order; the engine session behind them is single-threaded by contract.
type ServerHandleFunc func(sessionID uint64, req []byte) (resp []byte)

// SessionHooks notifies the server about session lifecycle events. One
// session corresponds to one client connection and carries its own locals,
// locks and directory selector.
type SessionHooks struct {
	// OnOpen is called when a client connects, before any request is handled.
	OnOpen func(sessionID uint64)
	// OnClose is called after the last request of a session, whether the
	// client disconnected or the server shut the connection down. Lock and
	// local cleanup hangs off this hook.
	OnClose func(sessionID uint64)
}

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers the request handler and the session
	// lifecycle hooks. Must be called before Listen.
	RegisterHandler(handler ServerHandleFunc, hooks SessionHooks)
	// Listen starts the transport layer and listens for incoming requests
	Listen(config common.ServerConfig) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// One transport instance owns exactly one connection and therefore exactly
// one server-side session.
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
