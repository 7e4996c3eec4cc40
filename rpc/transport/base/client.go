package base

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.).
//
// One transport owns exactly one connection: the server keeps session state
// (locals, locks, directory selector) per connection, so requests must not be
// spread over a pool, and a broken connection cannot be transparently
// replaced without silently losing that state. Requests are never retried
// either since engine operations are not idempotent. When the connection
// dies, every pending and future Send fails and the caller decides whether a
// fresh session is acceptable.
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	conn          net.Conn
	writeMu       sync.Mutex // serializes frame writes
	stopCh        chan struct{}
	requestChans  *xsync.MapOf[uint64, chan responseResult]
	nextRequestID uint64      // Atomic counter for unique request IDs
	broken        atomic.Bool // set once the connection is unusable
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector:     connector,
		nextRequestID: 1, // Start from 1
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	// Store the config
	t.config = config

	// Drop a previous connection (and its server-side session) if any
	t.closeConnection()

	// Connection establishment is the one place retries are safe: no request
	// has been issued yet, so no session state can be lost.
	maxAttempts := config.RetryCount
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	backoffMs := 50
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}

		conn, err := t.connector.Connect(config.Endpoint)
		if err != nil {
			lastErr = err
			Logger.Warningf("Failed to connect to %s (attempt %d/%d): %v", config.Endpoint, i+1, maxAttempts, err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			conn.Close()
			lastErr = err
			Logger.Warningf("Failed to upgrade connection to %s: %v", config.Endpoint, err)
			continue
		}

		t.conn = conn
		t.stopCh = make(chan struct{})
		t.requestChans = xsync.NewMapOf[uint64, chan responseResult]()
		t.broken.Store(false)

		Logger.Infof("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())

		// Start the response reader
		go t.readResponses(conn, t.stopCh, t.requestChans)
		return nil
	}

	return fmt.Errorf("failed to connect to %s after %d attempts: %v", config.Endpoint, maxAttempts, lastErr)
}

func (t *clientTransport) Send(req []byte) (resp []byte, err error) {
	if t.conn == nil {
		return nil, fmt.Errorf("transport is not connected")
	}
	if t.broken.Load() {
		return nil, fmt.Errorf("connection to %s is broken, session state is lost", t.config.Endpoint)
	}

	// Generate a unique request ID
	requestID := atomic.AddUint64(&t.nextRequestID, 1)

	// Create a channel for the response
	respCh := make(chan responseResult, 1)

	// Register the request
	t.requestChans.Store(requestID, respCh)

	// Ensure we clean up when done
	defer t.requestChans.Delete(requestID)

	// Set write timeout
	if t.config.TimeoutSecond > 0 {
		timeout := time.Duration(t.config.TimeoutSecond) * time.Second
		t.conn.SetWriteDeadline(time.Now().Add(timeout))
	}

	// Lock the connection only for writing
	t.writeMu.Lock()
	err = writeFrame(t.conn, requestID, req)
	t.writeMu.Unlock()

	if err != nil {
		t.broken.Store(true)
		return nil, fmt.Errorf("failed to write request: %v", err)
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if t.config.TimeoutSecond > 0 {
		timeout := time.Duration(t.config.TimeoutSecond) * time.Second
		timeoutCh = time.After(timeout)
	} else {
		timeoutCh = make(chan time.Time) // Never triggers
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, fmt.Errorf("request timed out")
	}
}

func (t *clientTransport) Close() error {
	t.closeConnection()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// closeConnection closes the active connection and stops the reader
func (t *clientTransport) closeConnection() {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// readResponses reads responses in a loop and distributes them to waiting
// requests. On a read error the connection (and with it the server-side
// session) is dead: all pending requests are failed and the transport is
// marked broken.
func (t *clientTransport) readResponses(conn net.Conn, stopCh chan struct{}, requestChans *xsync.MapOf[uint64, chan responseResult]) {
	for {
		// Check if we should stop
		select {
		case <-stopCh:
			return
		default:
			// Continue
		}

		// Read the response frame. No read deadline here: a session may
		// legitimately sit idle between requests.
		requestID, data, err := readFrame(conn, nil)

		if err != nil {
			t.broken.Store(true)

			select {
			case <-stopCh:
				// Regular shutdown, nothing to report
			default:
				Logger.Errorf("Connection to %s failed: %v", t.config.Endpoint, err)
			}

			// Fail everything still waiting
			requestChans.Range(func(id uint64, ch chan responseResult) bool {
				select {
				case ch <- responseResult{nil, fmt.Errorf("connection lost: %v", err)}:
				default:
				}
				return true
			})
			return
		}

		// Find the corresponding request channel
		if respCh, found := requestChans.Load(requestID); found {
			respCh <- responseResult{data, nil}
		} else {
			// A response nobody waits for: its Send timed out
			Logger.Warningf("Received response for unknown request ID %d", requestID)
		}
	}
}
