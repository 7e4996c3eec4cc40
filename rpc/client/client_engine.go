package client

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/rpc/common"
	"github.com/ValentinKolb/gKV/rpc/serializer"
	"github.com/ValentinKolb/gKV/rpc/transport"
)

// NewRemoteEngine creates an engine.Engine backed by a remote gKV server.
// The transport must be unconnected; the engine connects it on Open and owns
// it from then on. One remote engine holds one connection and with it one
// server-side session (its own locals, locks and directory selector).
func NewRemoteEngine(
	config common.ClientConfig,
	tp transport.IRPCClientTransport,
	ser serializer.IRPCSerializer,
) engine.Engine {
	return &remoteEngine{
		config:     config,
		transport:  tp,
		serializer: ser,
	}
}

// remoteEngine implements engine.Engine by forwarding every entry point to a
// gKV server.
//
// Thread-safety: none. The engine contract is singly-reentrant, the driver's
// serialization gate guarantees one call at a time, so no locking is needed
// here.
type remoteEngine struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	errText    string
	opened     bool
	closed     bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see engine.Engine)
// --------------------------------------------------------------------------

func (e *remoteEngine) Open(cfg engine.Config) error {
	if e.opened {
		return fmt.Errorf("remote engine is already open")
	}

	// An endpoint in the open config overrides the transport config
	if cfg.Endpoint != "" {
		e.config.Endpoint = cfg.Endpoint
	}

	if err := e.transport.Connect(e.config); err != nil {
		return fmt.Errorf("failed to connect to remote engine: %v", err)
	}
	e.opened = true

	// A caller-supplied directory selector replaces the server default
	if cfg.GlobalDirectory != "" {
		if st := e.IntrinsicSet(engine.ISVGlobalDirectory, cfg.GlobalDirectory); st != engine.StatusOK {
			e.transport.Close()
			e.opened = false
			return fmt.Errorf("failed to select global directory %q: %s", cfg.GlobalDirectory, e.errText)
		}
	}

	Logger.Infof("Remote engine session established to %s", e.config.Endpoint)
	return nil
}

func (e *remoteEngine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	// Closing the connection closes the server-side session, which releases
	// all locks and discards all locals of this binding.
	return e.transport.Close()
}

func (e *remoteEngine) Data(name string, subs [][]byte) (int, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTData, Name: name, Subs: subs})
	if resp == nil {
		return 0, st
	}
	return int(resp.Data), st
}

func (e *remoteEngine) Get(name string, subs [][]byte) ([]byte, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTGet, Name: name, Subs: subs})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.Result, st
}

func (e *remoteEngine) Set(name string, subs [][]byte, value []byte) engine.Status {
	if value == nil {
		value = []byte{}
	}
	_, st := e.call(&common.Message{MsgType: common.MsgTSet, Name: name, Subs: subs, Value: value})
	return st
}

func (e *remoteEngine) Kill(name string, subs [][]byte, nodeOnly bool) engine.Status {
	_, st := e.call(&common.Message{MsgType: common.MsgTKill, Name: name, Subs: subs, NodeOnly: nodeOnly})
	return st
}

func (e *remoteEngine) Order(name string, subs [][]byte, reverse bool) ([]byte, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTOrder, Name: name, Subs: subs, Reverse: reverse})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.Result, st
}

func (e *remoteEngine) Node(name string, subs [][]byte, reverse bool) ([][]byte, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTNode, Name: name, Subs: subs, Reverse: reverse})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.Path, st
}

func (e *remoteEngine) Increment(name string, subs [][]byte, delta []byte) ([]byte, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTIncrement, Name: name, Subs: subs, Value: delta})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.Result, st
}

func (e *remoteEngine) Lock(name string, subs [][]byte, timeout time.Duration) (bool, engine.Status) {
	resp, st := e.call(&common.Message{
		MsgType:   common.MsgTLock,
		Name:      name,
		Subs:      subs,
		TimeoutNs: int64(timeout),
	})
	if resp == nil {
		return false, st
	}
	return resp.Ok, st
}

func (e *remoteEngine) Unlock(name string, subs [][]byte) engine.Status {
	_, st := e.call(&common.Message{MsgType: common.MsgTUnlock, Name: name, Subs: subs})
	return st
}

func (e *remoteEngine) UnlockAll() engine.Status {
	_, st := e.call(&common.Message{MsgType: common.MsgTUnlockAll})
	return st
}

func (e *remoteEngine) Merge(srcName string, srcSubs [][]byte, dstName string, dstSubs [][]byte) engine.Status {
	_, st := e.call(&common.Message{
		MsgType: common.MsgTMerge,
		Name:    srcName,
		Subs:    srcSubs,
		DstName: dstName,
		DstSubs: dstSubs,
	})
	return st
}

func (e *remoteEngine) Function(routine string, args string, relink bool) ([]byte, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTFunction, Routine: routine, Args: args, Relink: relink})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.Result, st
}

func (e *remoteEngine) Procedure(routine string, args string, relink bool) engine.Status {
	_, st := e.call(&common.Message{MsgType: common.MsgTProcedure, Routine: routine, Args: args, Relink: relink})
	return st
}

// Transaction is not available over the remote binding: the retry unit would
// have to hold the server-side store lock across an arbitrary number of
// network round trips.
func (e *remoteEngine) Transaction(func() engine.TxnStatus, []string) engine.Status {
	return e.fail(engine.StatusNotSupported, "transactions are not supported over the remote binding")
}

func (e *remoteEngine) GlobalDirectory(max uint64, lo, hi string) ([]string, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTGlobalDir, Max: max, Lo: lo, Hi: hi})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.List, st
}

func (e *remoteEngine) LocalDirectory(max uint64, lo, hi string) ([]string, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTLocalDir, Max: max, Lo: lo, Hi: hi})
	if resp == nil || st != engine.StatusOK {
		return nil, st
	}
	return resp.List, st
}

func (e *remoteEngine) IntrinsicGet(name string) (string, engine.Status) {
	resp, st := e.call(&common.Message{MsgType: common.MsgTIntrinsicGet, Name: name})
	if resp == nil || st != engine.StatusOK {
		return "", st
	}
	return string(resp.Result), st
}

func (e *remoteEngine) IntrinsicSet(name string, value string) engine.Status {
	_, st := e.call(&common.Message{MsgType: common.MsgTIntrinsicSet, Name: name, Value: []byte(value)})
	return st
}

func (e *remoteEngine) Version() string {
	resp, st := e.call(&common.Message{MsgType: common.MsgTVersion})
	if resp == nil || st != engine.StatusOK {
		return fmt.Sprintf("remote (unavailable: %s)", e.errText)
	}
	return "remote " + resp.Text
}

func (e *remoteEngine) ErrorText(s engine.Status) string {
	if e.errText != "" {
		return e.errText
	}
	return fmt.Sprintf("%d,engine status %d", s, s)
}

// SetDiagnosticWriter is a no-op: the server's diagnostics stay on the
// server.
func (e *remoteEngine) SetDiagnosticWriter(io.Writer) {}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// call sends one request and folds transport failures and engine statuses
// into the engine error model. resp is nil exactly when a transport-level
// failure occurred.
func (e *remoteEngine) call(req *common.Message) (*common.Message, engine.Status) {
	if e.closed {
		return nil, e.fail(engine.StatusEngineClosed, "remote engine is closed")
	}
	if !e.opened {
		return nil, e.fail(engine.StatusEngineClosed, "remote engine is not open")
	}

	resp, err := invokeRPCRequest(req, e.transport, e.serializer)
	if err != nil {
		return nil, e.fail(engine.StatusInternalError, err.Error())
	}

	st := engine.Status(resp.Status)
	if st != engine.StatusOK && !st.Soft() {
		// Hard statuses carry their error text in the response
		e.errText = resp.Text
	}
	return resp, st
}

// fail records error text for a locally raised hard status
func (e *remoteEngine) fail(st engine.Status, msg string) engine.Status {
	e.errText = fmt.Sprintf("%d,%s", st, msg)
	return st
}
