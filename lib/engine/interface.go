package engine

import (
	"io"
	"time"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplCedar  Implementation = "cedar"
	ImplRemote Implementation = "remote"
)

// Mode controls how engine result text is surfaced to the caller.
// In ModeCanonical, text that is a canonical number is returned as a number;
// in ModeString all results stay strings.
type Mode uint8

const (
	ModeCanonical Mode = iota
	ModeString
)

func (m Mode) String() string {
	switch m {
	case ModeCanonical:
		return "canonical"
	case ModeString:
		return "string"
	default:
		return "unknown"
	}
}

// Encoding selects the character encoding used for values and subscripts.
type Encoding uint8

const (
	EncodingUTF8 Encoding = iota
	EncodingByte
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingByte:
		return "byte"
	default:
		return "unknown"
	}
}

// DebugLevel controls driver diagnostic verbosity.
type DebugLevel uint8

const (
	DebugOff DebugLevel = iota
	DebugLow
	DebugMedium
	DebugHigh
)

func (d DebugLevel) String() string {
	switch d {
	case DebugOff:
		return "off"
	case DebugLow:
		return "low"
	case DebugMedium:
		return "medium"
	case DebugHigh:
		return "high"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Statuses
// --------------------------------------------------------------------------

// Status is the integer status returned by every engine entry point.
// Zero means success. A small set of soft statuses are normal outcomes of
// lookups and traversals and must be distinguished from hard failures.
type Status int32

const (
	StatusOK Status = 0

	// Soft statuses - normal traversal/lookup outcomes, never raised as errors

	StatusUndefined   Status = 301 // the addressed node has no value
	StatusNodeEnd     Status = 302 // depth-first traversal reached the end of the tree
	StatusNotAcquired Status = 303 // lock not acquired within the timeout

	// Hard statuses

	StatusInvalidName   Status = 401 // malformed global/local name
	StatusBadSubscript  Status = 402 // empty or malformed subscript
	StatusTooManySubs   Status = 403 // more than MaxSubscripts subscripts
	StatusNoRoutine     Status = 404 // Function/Procedure target not found
	StatusNotANumber    Status = 405 // Increment applied a non-numeric delta
	StatusTxnFailed     Status = 406 // transaction rolled back
	StatusNotSupported  Status = 407 // operation not supported by this binding
	StatusNoIntrinsic   Status = 408 // unknown intrinsic special variable
	StatusEngineClosed  Status = 409 // engine entry point called after Close
	StatusTooLong       Status = 410 // value or subscript exceeds MaxStringLen
	StatusWrongThread   Status = 411 // call issued from a thread the binding is not bound to
	StatusInternalError Status = 500 // unexpected engine failure
)

// Soft reports whether the status is a normal non-error outcome.
func (s Status) Soft() bool {
	return s == StatusUndefined || s == StatusNodeEnd || s == StatusNotAcquired
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// TxnStatus is the value a transaction body returns to the engine's
// transaction primitive to decide the fate of the current attempt.
type TxnStatus uint8

const (
	TxnCommit TxnStatus = iota
	TxnRestart
	TxnRollback
)

func (t TxnStatus) String() string {
	switch t {
	case TxnCommit:
		return "commit"
	case TxnRestart:
		return "restart"
	case TxnRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Limits
// --------------------------------------------------------------------------

const (
	// MaxSubscripts is the maximum number of subscripts the engine accepts per node.
	MaxSubscripts = 31

	// MaxStringLen is the maximum byte length of a single value or subscript.
	MaxStringLen = 1048576

	// MaxErrorLen is the size of the out-of-band error text buffer.
	MaxErrorLen = 2048

	// NoTimeout is the sentinel lock timeout requesting an unbounded wait.
	NoTimeout time.Duration = -1
)

// --------------------------------------------------------------------------
// Open Configuration
// --------------------------------------------------------------------------

// Config holds the parameters consumed when an engine binding is opened.
type Config struct {
	// GlobalDirectory is the path (or selector) of the default global directory.
	GlobalDirectory string
	// RoutinePath is the search path for callable routines.
	RoutinePath string
	// CallTable is the path of the external call table.
	CallTable string
	// Endpoint is the remote engine address (host:port or socket path),
	// empty for in-process bindings.
	Endpoint string
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine is the call-in boundary of the database engine. All entry points are
// synchronous and singly-reentrant: the caller must guarantee that no two
// calls execute concurrently (the driver's serialization gate does this).
//
// Names passed to the engine are always normalized: global names carry exactly
// one leading '^', local names none. Subscripts and values are raw byte
// records (the driver's ArgumentEncoder produces them).
//
// Every entry point returns a Status; on a hard status the detailed error text
// is retrievable via ErrorText. Soft statuses (see Status.Soft) are normal
// outcomes and carry no error text.
type Engine interface {
	// Open initializes the engine binding. It must be called exactly once
	// before any other entry point.
	Open(cfg Config) error

	// Close shuts the binding down. The engine may not be reopened.
	Close() error

	// Data reports whether a node has a value and/or descendants.
	// The result is 0 (neither), 1 (value), 10 (descendants), or 11 (both).
	Data(name string, subs [][]byte) (int, Status)

	// Get returns the value at the node, or StatusUndefined if it has none.
	Get(name string, subs [][]byte) ([]byte, Status)

	// Set stores value at the node, creating intermediate levels as needed.
	Set(name string, subs [][]byte, value []byte) Status

	// Kill removes the node. With nodeOnly the node's descendants survive,
	// otherwise the whole subtree is removed.
	Kill(name string, subs [][]byte, nodeOnly bool) Status

	// Order returns the next (or, with reverse, previous) subscript at the
	// deepest given level, or an empty result when the level is exhausted.
	// An empty last subscript starts from the beginning (or end) of the level.
	Order(name string, subs [][]byte, reverse bool) ([]byte, Status)

	// Node returns the full subscript path of the next (or previous) node
	// with a value in depth-first order, or StatusNodeEnd at the end of the
	// tree. The given subscripts are the exclusive bound.
	Node(name string, subs [][]byte, reverse bool) ([][]byte, Status)

	// Increment atomically adds delta (canonical number text) to the node
	// and returns the new value.
	Increment(name string, subs [][]byte, delta []byte) ([]byte, Status)

	// Lock acquires an incremental lock on the resource. A negative timeout
	// requests an unbounded wait. Returns false with StatusNotAcquired when
	// the timeout elapses.
	Lock(name string, subs [][]byte, timeout time.Duration) (bool, Status)

	// Unlock decrements the lock on the resource.
	Unlock(name string, subs [][]byte) Status

	// UnlockAll releases every lock held by this binding.
	UnlockAll() Status

	// Merge copies the subtree at the source node onto the destination node.
	Merge(srcName string, srcSubs [][]byte, dstName string, dstSubs [][]byte) Status

	// Function calls an extrinsic routine and returns its result. args is
	// the call-in token stream (each argument length-prefixed).
	Function(routine string, args string, relink bool) ([]byte, Status)

	// Procedure calls a routine discarding any result.
	Procedure(routine string, args string, relink bool) Status

	// Transaction runs body as the retry unit of an engine transaction.
	// body may issue further entry-point calls on this binding; it returns
	// TxnCommit, TxnRestart or TxnRollback. variables names the locals reset
	// on restart (nil = all).
	Transaction(body func() TxnStatus, variables []string) Status

	// GlobalDirectory lists up to max global names in the [lo, hi] range
	// (empty bounds = unbounded). max 0 means no limit.
	GlobalDirectory(max uint64, lo, hi string) ([]string, Status)

	// LocalDirectory lists up to max local names in the [lo, hi] range.
	LocalDirectory(max uint64, lo, hi string) ([]string, Status)

	// IntrinsicGet reads an intrinsic special variable (e.g. the active
	// global-directory selector).
	IntrinsicGet(name string) (string, Status)

	// IntrinsicSet writes an intrinsic special variable.
	IntrinsicSet(name string, value string) Status

	// Version returns the engine version string.
	Version() string

	// ErrorText returns the out-of-band error text ("code,message") for the
	// most recent hard status, or a generic rendering of s.
	ErrorText(s Status) string

	// SetDiagnosticWriter redirects the engine's own diagnostic output.
	// A nil writer restores the engine default.
	SetDiagnosticWriter(w io.Writer)
}

// --------------------------------------------------------------------------
// Intrinsic Special Variables
// --------------------------------------------------------------------------

const (
	// ISVGlobalDirectory is the directory-selector intrinsic temporarily
	// rewritten while an extended reference is in effect.
	ISVGlobalDirectory = "$zgbldir"
)
