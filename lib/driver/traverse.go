package driver

import (
	"strings"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/names"
)

// --------------------------------------------------------------------------
// Subscript Iteration
// --------------------------------------------------------------------------

// Order returns the next sibling subscript at the deepest given level, or a
// reply with Defined false when the level is exhausted. With no subscripts it
// iterates the variable names themselves.
func (d *Driver) Order(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("order")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.order(name, subscripts, false)
}

// Previous is Order in the reverse collation direction.
func (d *Driver) Previous(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("previous")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.order(name, subscripts, true)
}

func (d *Driver) order(name string, subscripts []interface{}, reverse bool) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// name-level iteration on locals must not surface the driver's reserved
	// bookkeeping namespace, so exhausted results are re-issued past it
	for {
		raw, st := d.eng.Order(plain, subs, reverse)
		if st != engine.StatusOK {
			return nil, d.fail(st)
		}
		if len(raw) == 0 {
			return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
		}

		if len(subscripts) == 0 && !names.IsGlobal(plain) &&
			strings.HasPrefix(string(raw), names.ReservedPrefix) {
			plain = string(raw)
			continue
		}

		return &Reply{OK: true, Name: plain, Subscripts: subscripts, Defined: true, Result: d.surface(raw)}, nil
	}
}

// --------------------------------------------------------------------------
// Depth-First Node Traversal
// --------------------------------------------------------------------------

// NextNode returns the next node with a value in depth-first order, together
// with its full subscript path and value. A reply with Defined false means
// the traversal reached the end of the tree.
func (d *Driver) NextNode(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("nextNode")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.node(name, subscripts, false)
}

// PreviousNode is NextNode in the reverse direction.
func (d *Driver) PreviousNode(name string, subscripts ...interface{}) (*Reply, error) {
	release, err := d.enter("previousNode")
	if err != nil {
		return nil, err
	}
	defer release()
	return d.node(name, subscripts, true)
}

func (d *Driver) node(name string, subscripts []interface{}, reverse bool) (*Reply, error) {
	plain, subs, cleanup, err := d.prep(name, subscripts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	path, st := d.eng.Node(plain, subs, reverse)
	switch {
	case st == engine.StatusNodeEnd:
		return &Reply{OK: true, Name: plain, Subscripts: subscripts}, nil
	case st != engine.StatusOK:
		return nil, d.fail(st)
	}

	// fetch the landed node's value so callers get path and value in one step
	raw, st := d.eng.Get(plain, path)
	if st != engine.StatusOK && st != engine.StatusUndefined {
		return nil, d.fail(st)
	}

	reply := &Reply{OK: true, Name: plain, Subscripts: d.surfacePath(path), Defined: true}
	if st == engine.StatusOK {
		reply.Value = d.surface(raw)
	}
	return reply, nil
}
