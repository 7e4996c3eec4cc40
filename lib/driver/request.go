package driver

import (
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Request API
// --------------------------------------------------------------------------

// Op names a driver operation for the Request/Do API.
type Op string

const (
	OpData            Op = "data"
	OpGet             Op = "get"
	OpSet             Op = "set"
	OpKill            Op = "kill"
	OpOrder           Op = "order"
	OpPrevious        Op = "previous"
	OpNextNode        Op = "nextNode"
	OpPreviousNode    Op = "previousNode"
	OpIncrement       Op = "increment"
	OpLock            Op = "lock"
	OpUnlock          Op = "unlock"
	OpMerge           Op = "merge"
	OpFunction        Op = "function"
	OpProcedure       Op = "procedure"
	OpGlobalDirectory Op = "globalDirectory"
	OpLocalDirectory  Op = "localDirectory"
	OpVersion         Op = "version"
)

// Target addresses a node for operations with a second reference (merge).
type Target struct {
	Name       string
	Subscripts []interface{}
}

// Request is the uniform operation description consumed by Do and DoAsync.
// Fields beyond Op and Name are operation-specific and ignored elsewhere.
type Request struct {
	Op         Op
	Name       string
	Subscripts []interface{}

	// Value is the stored value (set) or increment delta (increment).
	Value interface{}

	// NodeOnly limits kill to the addressed node.
	NodeOnly bool

	// Timeout bounds a lock wait; engine.NoTimeout waits unboundedly.
	Timeout time.Duration

	// Source is the second reference of a merge.
	Source *Target

	// Routine and Arguments describe a function or procedure call.
	Routine   string
	Arguments []interface{}

	// Max, Lo and Hi bound a directory listing.
	Max    uint64
	Lo, Hi string
}

// Do executes one described operation. It is the uniform entry point behind
// DoAsync and the command-line tooling; the typed methods are equivalent.
func (d *Driver) Do(req Request) (*Reply, error) {
	switch req.Op {
	case OpData:
		return d.Data(req.Name, req.Subscripts...)
	case OpGet:
		return d.Get(req.Name, req.Subscripts...)
	case OpSet:
		return d.Set(req.Name, req.Subscripts, req.Value)
	case OpKill:
		return d.KillNode(req.Name, req.Subscripts, req.NodeOnly)
	case OpOrder:
		return d.Order(req.Name, req.Subscripts...)
	case OpPrevious:
		return d.Previous(req.Name, req.Subscripts...)
	case OpNextNode:
		return d.NextNode(req.Name, req.Subscripts...)
	case OpPreviousNode:
		return d.PreviousNode(req.Name, req.Subscripts...)
	case OpIncrement:
		return d.Increment(req.Name, req.Subscripts, req.Value)
	case OpLock:
		return d.Lock(req.Name, req.Subscripts, req.Timeout)
	case OpUnlock:
		return d.Unlock(req.Name, req.Subscripts...)
	case OpMerge:
		if req.Source == nil {
			return nil, newError(engine.StatusInvalidName, "merge needs a source reference")
		}
		return d.Merge(req.Source.Name, req.Source.Subscripts, req.Name, req.Subscripts)
	case OpFunction:
		return d.Function(req.Routine, req.Arguments...)
	case OpProcedure:
		return d.Procedure(req.Routine, req.Arguments...)
	case OpGlobalDirectory:
		list, err := d.GlobalDirectory(req.Max, req.Lo, req.Hi)
		if err != nil {
			return nil, err
		}
		return &Reply{OK: true, Value: list}, nil
	case OpLocalDirectory:
		list, err := d.LocalDirectory(req.Max, req.Lo, req.Hi)
		if err != nil {
			return nil, err
		}
		return &Reply{OK: true, Value: list}, nil
	case OpVersion:
		v, err := d.Version()
		if err != nil {
			return nil, err
		}
		return &Reply{OK: true, Defined: true, Value: v}, nil
	default:
		return nil, newError(engine.StatusNotSupported, "unknown operation %q", req.Op)
	}
}
