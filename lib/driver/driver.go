package driver

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/engine/cedar"
	"github.com/lni/dragonboat/v4/logger"
)

// Logger is the logger instance used by the driver package.
var Logger = logger.GetLogger("driver")

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config configures a driver connection.
type Config struct {
	// Implementation selects the engine binding (default: cedar, in-process).
	Implementation engine.Implementation

	// Engine overrides the binding with a caller-supplied one. When set,
	// Implementation is ignored.
	Engine engine.Engine

	// Mode controls result surfacing (canonical numbers vs plain strings).
	Mode engine.Mode

	// Encoding selects the character encoding for values and subscripts.
	Encoding engine.Encoding

	// Debug is the diagnostic verbosity. Above DebugOff the engine's own
	// diagnostics are redirected to DiagnosticWriter.
	Debug engine.DebugLevel

	// DiagnosticWriter receives diagnostics when Debug is above DebugOff
	// (default: os.Stderr via the engine binding).
	DiagnosticWriter io.Writer

	// GlobalDirectory, RoutinePath and CallTable are passed to the engine
	// binding's open call.
	GlobalDirectory string
	RoutinePath     string
	CallTable       string

	// Endpoint is the remote engine address, only used with ImplRemote.
	Endpoint string

	// AutoRelink recompiles changed routines on every Function/Procedure call.
	AutoRelink bool

	// Workers is the size of the asynchronous worker pool (default 4).
	Workers int

	// StrictThread pins the connection to the opening OS thread and rejects
	// calls from any other. Only enforced on platforms with thread identity
	// support; see CanCheckThread.
	StrictThread bool

	// OnFatal is invoked exactly once if the engine raises a condition after
	// which the call-in interface is unusable. The connection is already
	// closed when the hook runs.
	OnFatal func(*Error)
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		Implementation: engine.ImplCedar,
		Mode:           engine.ModeCanonical,
		Encoding:       engine.EncodingUTF8,
		Workers:        4,
	}
}

// --------------------------------------------------------------------------
// Connection State
// --------------------------------------------------------------------------

// State is the connection lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// Driver is a connection to the database engine. All direct operations are
// serialized through an internal gate (the engine call-in interface is
// singly-reentrant); asynchronous work goes through a worker pool that feeds
// the same gate.
//
// Thread-safety: a Driver may be shared between goroutines.
type Driver struct {
	cfg Config
	eng engine.Engine

	// mu is the serialization gate: at most one engine call at a time.
	mu    sync.Mutex
	state State
	tid   int64

	disp     *dispatcher
	txActive atomic.Bool
	fatalled bool
}

// New creates a driver with the given configuration. The connection is not
// usable until Open is called.
func New(cfg Config) *Driver {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Driver{cfg: cfg}
}

// Open establishes the connection: it builds (or takes over) the engine
// binding, opens it, and starts the asynchronous worker pool. Open must be
// called exactly once; a closed driver cannot be reopened.
func (d *Driver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateOpen:
		return newError(engine.StatusInternalError, "connection already open")
	case StateClosed:
		return newError(engine.StatusEngineClosed, "connection closed, drivers may not be reopened")
	}

	eng := d.cfg.Engine
	if eng == nil {
		switch d.cfg.Implementation {
		case engine.ImplCedar, "":
			eng = cedar.New(nil)
		default:
			return newError(engine.StatusNotSupported, "unknown engine implementation %q", d.cfg.Implementation)
		}
	}

	if d.cfg.StrictThread && CanCheckThread {
		// the engine binding is bound to the opening OS thread
		runtime.LockOSThread()
		d.tid = threadID()
	}

	if err := eng.Open(engine.Config{
		GlobalDirectory: d.cfg.GlobalDirectory,
		RoutinePath:     d.cfg.RoutinePath,
		CallTable:       d.cfg.CallTable,
		Endpoint:        d.cfg.Endpoint,
	}); err != nil {
		return newError(engine.StatusInternalError, "opening engine binding: %v", err)
	}

	if d.cfg.Debug > engine.DebugOff && d.cfg.DiagnosticWriter != nil {
		eng.SetDiagnosticWriter(d.cfg.DiagnosticWriter)
	}

	d.eng = eng
	d.disp = newDispatcher(d, d.cfg.Workers)
	d.state = StateOpen

	Logger.Infof("connection open (impl=%v, mode=%v, encoding=%v)",
		d.cfg.Implementation, d.cfg.Mode, d.cfg.Encoding)
	return nil
}

// Close drains the worker pool, releases all held locks and shuts the engine
// binding down. The driver may not be reopened.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.state != StateOpen {
		d.mu.Unlock()
		return newError(engine.StatusEngineClosed, "connection is not open")
	}
	disp := d.disp
	d.mu.Unlock()

	// the workers need the gate to drain, so stop them before taking it
	disp.stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdownLocked()
}

// shutdownLocked closes the engine binding. Callers must hold d.mu.
func (d *Driver) shutdownLocked() error {
	if d.state != StateOpen {
		return nil
	}
	d.state = StateClosed

	d.eng.UnlockAll()
	if err := d.eng.Close(); err != nil {
		Logger.Errorf("closing engine binding: %v", err)
		return newError(engine.StatusInternalError, "closing engine binding: %v", err)
	}
	Logger.Infof("connection closed")
	return nil
}

// State returns the connection lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Version returns the driver and engine version strings.
func (d *Driver) Version() (string, error) {
	release, err := d.enter("version")
	if err != nil {
		return "", err
	}
	defer release()
	return Version + "; " + d.eng.Version(), nil
}

// Version is the driver release string.
const Version = "gKV 1.2.0"

// --------------------------------------------------------------------------
// Gate
// --------------------------------------------------------------------------

// enter takes the serialization gate and validates the connection state and,
// when enabled, the calling thread. The returned release function leaves the
// gate and finishes the operation's metrics sample.
func (d *Driver) enter(op string) (release func(), err *Error) {
	if d.cfg.StrictThread && CanCheckThread {
		if tid := threadID(); tid != d.tid {
			return nil, newError(engine.StatusWrongThread,
				"call issued from thread %d, connection is bound to thread %d", tid, d.tid)
		}
	}

	d.mu.Lock()
	if d.state != StateOpen {
		st := engine.StatusEngineClosed
		if d.state == StateUninitialized {
			st = engine.StatusInternalError
		}
		d.mu.Unlock()
		return nil, newError(st, "connection is %v", d.state)
	}

	done := observeOp(op)
	return func() {
		done()
		d.mu.Unlock()
	}, nil
}

// fail decodes a hard engine status into a driver error. A fatal condition
// shuts the connection down and fires the OnFatal hook exactly once.
// Callers must hold the gate.
func (d *Driver) fail(st engine.Status) *Error {
	err := decodeEngineError(d.eng, st)
	if err.Fatal() && !d.fatalled {
		d.fatalled = true
		Logger.Errorf("fatal engine condition, shutting down: %v", err)
		d.shutdownLocked()
		if d.cfg.OnFatal != nil {
			d.cfg.OnFatal(err)
		}
	}
	return err
}
