package driver

import (
	"strings"
	"time"

	"github.com/ValentinKolb/gKV/lib/canon"
	"github.com/ValentinKolb/gKV/lib/encoding"
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/names"
)

// --------------------------------------------------------------------------
// Reference Preparation
// --------------------------------------------------------------------------

// prep normalizes one reference for the engine: it resolves an extended
// reference (temporarily swapping the directory selector), validates the
// plain name and encodes the subscripts to buffer records. The returned
// cleanup restores the directory selector and must run after the engine call,
// on the error path too.
func (d *Driver) prep(name string, subscripts []interface{}) (plain string, subs [][]byte, cleanup func(), err *Error) {
	plain, restore, rerr := names.ResolveExtendedReference(name, d.eng)
	if rerr != nil {
		return "", nil, nil, newError(engine.StatusInvalidName, "%v", rerr)
	}
	cleanup = func() {
		if restore == nil {
			return
		}
		if err := restore(); err != nil {
			Logger.Errorf("restoring directory selector: %v", err)
		}
	}

	if verr := names.Validate(plain); verr != nil {
		cleanup()
		return "", nil, nil, newError(engine.StatusInvalidName, "%v", verr)
	}

	subs, eerr := encoding.EncodeBuffers(subscripts, d.cfg.Mode)
	if eerr != nil {
		cleanup()
		st := engine.StatusBadSubscript
		if strings.Contains(eerr.Error(), encoding.ErrTooManySubs.Error()) {
			st = engine.StatusTooManySubs
		}
		return "", nil, nil, newError(st, "%v", eerr)
	}

	return plain, subs, cleanup, nil
}

// surface converts raw engine result bytes into the host value per the
// configured mode.
func (d *Driver) surface(raw []byte) interface{} {
	return canon.Surface(string(raw), d.cfg.Mode)
}

// surfacePath converts a traversal result path into host subscripts.
func (d *Driver) surfacePath(path [][]byte) []interface{} {
	out := make([]interface{}, len(path))
	for i, rec := range path {
		out[i] = d.surface(rec)
	}
	return out
}

// --------------------------------------------------------------------------
// Node Operations
// --------------------------------------------------------------------------

// Data reports the node classification: 0 (nothing), 1 (value), 10
// (descendants) or 11 (both).
func (d *Driver) Data(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("data")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.data(name, subscripts)
}

func (d *Driver) data(name string, subscripts []interface{}) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	n, st := d.eng.Data(plain, subs)
	if st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts, Data: n, Defined: n%10 == 1}, nil
}

// Get reads the node's value. An undefined node is a soft outcome: the reply
// has Defined false and a nil Value.
func (d *Driver) Get(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("get")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.get(name, subscripts)
}

func (d *Driver) get(name string, subscripts []interface{}) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	raw, st := d.eng.Get(plain, subs)
	switch {
	case st == engine.StatusOK:
		return &Reply{OK: true, Name: plain, Subscripts: subscripts, Defined: true, Value: d.surface(raw)}, nil
	case st == engine.StatusUndefined:
		return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
	default:
		return nil, d.fail(st)
	}
}

// Set stores value at the node, creating intermediate levels as needed.
func (d *Driver) Set(name string, subscripts []interface{}, value interface{}) (*Reply, error) {
	release, err := d.enter("set")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.set(name, subscripts, value)
}

func (d *Driver) set(name string, subscripts []interface{}, value interface{}) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rec, eerr := encoding.EncodeBuffers([]interface{}{value}, d.cfg.Mode)
	if eerr != nil {
		return nil, newError(engine.StatusBadSubscript, "value: %v", eerr)
	}

	if st := d.eng.Set(plain, subs, rec[0]); st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
}

// Kill removes the node and its descendants. NodeOnly variants go through Do.
func (d *Driver) Kill(name string, subscripts ...interface{}) (*Reply, error) {
	return d.KillNode(name, subscripts, false)
}

// KillNode removes the node; with nodeOnly its descendants survive.
func (d *Driver) KillNode(name string, subscripts []interface{}, nodeOnly bool) (*Reply, error) {
	release, err := d.enter("kill")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.kill(name, subscripts, nodeOnly)
}

func (d *Driver) kill(name string, subscripts []interface{}, nodeOnly bool) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if st := d.eng.Kill(plain, subs, nodeOnly); st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
}

// Increment atomically adds delta (default 1) to the node and returns the
// new value.
func (d *Driver) Increment(name string, subscripts []interface{}, delta interface{}) (*Reply, error) {
	release, err := d.enter("increment")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.increment(name, subscripts, delta)
}

func (d *Driver) increment(name string, subscripts []interface{}, delta interface{}) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if delta == nil {
		delta = 1
	}
	deltaText, ok := canon.NumberText(delta)
	if !ok {
		s, isStr := delta.(string)
		if !isStr {
			return nil, newError(engine.StatusNotANumber, "increment delta of type %T is not a number", delta)
		}
		deltaText = s
	}

	raw, st := d.eng.Increment(plain, subs, []byte(deltaText))
	if st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts, Defined: true, Value: d.surface(raw)}, nil
}

// Merge copies the subtree at the source node onto the destination node.
func (d *Driver) Merge(srcName string, srcSubscripts []interface{}, dstName string, dstSubscripts []interface{}) (*Reply, error) {
	release, err := d.enter("merge")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.merge(srcName, srcSubscripts, dstName, dstSubscripts)
}

func (d *Driver) merge(srcName string, srcSubscripts []interface{}, dstName string, dstSubscripts []interface{}) (*Reply, error) {
	srcPlain, srcSubs, srcCleanup, err := d.prep(srcName, srcSubscripts)
	if err != nil {
		return nil, err
	}
	defer srcCleanup()

	dstPlain, dstSubs, dstCleanup, err := d.prep(dstName, dstSubscripts)
	if err != nil {
		return nil, err
	}
	defer dstCleanup()

	if st := d.eng.Merge(srcPlain, srcSubs, dstPlain, dstSubs); st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: dstPlain, Subscripts: dstSubscripts}, nil
}

// --------------------------------------------------------------------------
// Locks
// --------------------------------------------------------------------------

// Lock acquires an incremental lock on the resource. timeout < 0 waits
// unboundedly; a reply with Acquired false means the timeout elapsed.
func (d *Driver) Lock(name string, subscripts []interface{}, timeout time.Duration) (*Reply, error) {
	release, err := d.enter("lock")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.lock(name, subscripts, timeout)
}

func (d *Driver) lock(name string, subscripts []interface{}, timeout time.Duration) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ok, st := d.eng.Lock(plain, subs, timeout)
	if st != engine.StatusOK && st != engine.StatusNotAcquired {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts, Acquired: ok}, nil
}

// Unlock decrements the lock on the resource. With an empty name every lock
// held by this connection is released.
func (d *Driver) Unlock(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("unlock")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.unlock(name, subscripts)
}

func (d *Driver) unlock(name string, subscripts []interface{}) (*Reply, error) {
	if name == "" {
		if st := d.eng.UnlockAll(); st != engine.StatusOK {
			return nil, d.fail(st)
		}
		return &Reply{OK: true}, nil
	}

	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if st := d.eng.Unlock(plain, subs); st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
}

// --------------------------------------------------------------------------
// Routines
// --------------------------------------------------------------------------

// Function calls an extrinsic routine with the given arguments and surfaces
// its result. Arguments may be numbers, strings, nil, or the encoding
// package's directive types.
func (d *Driver) Function(routine string, args ...interface{}) (*Reply, error) {
	release, err := d.enter("function")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.function(routine, args)
}

func (d *Driver) function(routine string, args []interface{}) (*Reply, error) {
	stream, eerr := encoding.EncodeCallIn(args)
	if eerr != nil {
		return nil, newError(engine.StatusBadSubscript, "%v", eerr)
	}

	raw, st := d.eng.Function(routine, stream, d.cfg.AutoRelink)
	if st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: routine, Defined: true, Value: d.surface(raw)}, nil
}

// Procedure calls a routine discarding any result.
func (d *Driver) Procedure(routine string, args ...interface{}) (*Reply, error) {
	release, err := d.enter("procedure")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.procedure(routine, args)
}

func (d *Driver) procedure(routine string, args []interface{}) (*Reply, error) {
	stream, eerr := encoding.EncodeCallIn(args)
	if eerr != nil {
		return nil, newError(engine.StatusBadSubscript, "%v", eerr)
	}

	if st := d.eng.Procedure(routine, stream, d.cfg.AutoRelink); st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return &Reply{OK: true, Name: routine}, nil
}

// --------------------------------------------------------------------------
// Directories and Intrinsics
// --------------------------------------------------------------------------

// GlobalDirectory lists up to max global names in the [lo, hi] range
// (empty bounds = unbounded, max 0 = no limit).
func (d *Driver) GlobalDirectory(max uint64, lo, hi string) ([]string, error) {
	release, err := d.enter("globalDirectory")
	if err != nil {
		return nil, err
	}
	defer release()

	list, st := d.eng.GlobalDirectory(max, lo, hi)
	if st != engine.StatusOK {
		return nil, d.fail(st)
	}
	return list, nil
}

// LocalDirectory lists up to max local names in the [lo, hi] range, skipping
// the driver's reserved bookkeeping namespace.
func (d *Driver) LocalDirectory(max uint64, lo, hi string) ([]string, error) {
	release, err := d.enter("localDirectory")
	if err != nil {
		return nil, err
	}
	defer release()

	list, st := d.eng.LocalDirectory(max, lo, hi)
	if st != engine.StatusOK {
		return nil, d.fail(st)
	}

	out := list[:0]
	for _, n := range list {
		if !strings.HasPrefix(n, names.ReservedPrefix) {
			out = append(out, n)
		}
	}
	return out, nil
}
