package base

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality.
//
// Each accepted connection becomes one session with its own uint64 ID. The
// requests of a session are handled strictly sequentially: the engine session
// behind it is single-threaded by contract, and sequential handling keeps the
// operation order identical to the order the client issued them in.
// Different sessions run concurrently.
type serverTransport struct {
	connector     IServerConnector
	handler       transport.ServerHandleFunc
	hooks         transport.SessionHooks
	config        common.ServerConfig
	listener      net.Listener
	bufferPool    *sync.Pool
	bufferSize    int
	nextSessionID uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	return &serverTransport{
		connector:  connector,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc, hooks transport.SessionHooks) {
	t.handler = handler
	t.hooks = hooks
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), config.Endpoint)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		// Handle the connection in a goroutine
		go t.handleConnection(conn)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection serves one session: open hook, sequential request loop,
// close hook
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	sessionID := atomic.AddUint64(&t.nextSessionID, 1)
	Logger.Infof("Session %d opened from %s", sessionID, conn.RemoteAddr())

	if t.hooks.OnOpen != nil {
		t.hooks.OnOpen(sessionID)
	}
	if t.hooks.OnClose != nil {
		defer t.hooks.OnClose(sessionID)
	}
	defer Logger.Infof("Session %d closed", sessionID)

	// Timeout in seconds
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	// Function to handle a single request
	handleRequest := func() error {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %v", err)
			}
		}

		// Get a buffer from the pool
		buf := t.bufferPool.Get().([]byte)
		defer t.bufferPool.Put(buf)

		// Read the frame with requestID
		requestID, data, err := readFrame(conn, buf)
		if err != nil {
			return err
		}

		// Process the request
		start := time.Now()
		resp := t.handler(sessionID, data)
		Logger.Debugf("Session %d request %d took %s", sessionID, requestID, time.Since(start))

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				return fmt.Errorf("failed to set write deadline: %v", err)
			}
		}

		// Write the response with the same requestID
		if err := writeFrame(conn, requestID, resp); err != nil {
			return fmt.Errorf("failed to write response: %v", err)
		}

		return nil
	}

	// Handle requests in a loop
	for {
		err := handleRequest()

		// Case EOF: Connection closed by client
		if err == io.EOF {
			Logger.Infof("Session %d closed by client", sessionID)
			break
		}

		// Case error: log and close connection
		if err != nil {
			Logger.Errorf("Session %d error: %v", sessionID, err)
			break
		}
	}
}
