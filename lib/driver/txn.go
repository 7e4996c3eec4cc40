package driver

import (
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// maxTxnRestarts is the number of TxnRestart outcomes tolerated before the
// transaction is forcibly rolled back.
const maxTxnRestarts = 3

// TxnOptions configures one transaction.
type TxnOptions struct {
	// Variables names the locals reset on a restart (nil = all locals).
	Variables []string
}

// Tx is the handle a transaction body operates through. Its methods issue
// engine calls directly, without taking the serialization gate: the gate is
// held by the enclosing Transaction call for the whole retry unit, and
// re-entering it from the body would deadlock.
//
// A Tx is only valid inside its body; using it afterwards fails.
type Tx struct {
	d      *Driver
	active bool
}

// Transaction runs body as the retry unit of an engine transaction. The body
// may return TxnCommit, TxnRestart or TxnRollback; after maxTxnRestarts
// restarts the transaction is rolled back instead of retried. A rolled-back
// transaction surfaces as a *Error with StatusTxnFailed.
func (d *Driver) Transaction(body func(tx *Tx) engine.TxnStatus, opts *TxnOptions) error {
	release, err := d.enter("transaction")
	if err != nil {
		return err
	}
	defer release()

	if body == nil {
		return newError(engine.StatusInternalError, "transaction body is nil")
	}

	var variables []string
	if opts != nil {
		variables = opts.Variables
	}

	tx := &Tx{d: d, active: true}
	defer func() { tx.active = false }()

	d.txActive.Store(true)
	defer d.txActive.Store(false)

	restarts := 0
	st := d.eng.Transaction(func() engine.TxnStatus {
		outcome := body(tx)
		if outcome == engine.TxnRestart {
			if restarts++; restarts > maxTxnRestarts {
				Logger.Warningf("transaction exceeded %d restarts, rolling back", maxTxnRestarts)
				return engine.TxnRollback
			}
		}
		return outcome
	}, variables)

	if st != engine.StatusOK {
		return d.fail(st)
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see Driver)
// --------------------------------------------------------------------------

func (t *Tx) check() *Error {
	if !t.active {
		return newError(engine.StatusInternalError, "transaction handle used outside its body")
	}
	return nil
}

func (t *Tx) Data(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.data(name, subscripts)
}

func (t *Tx) Get(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.get(name, subscripts)
}

func (t *Tx) Set(name string, subscripts []interface{}, value interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.set(name, subscripts, value)
}

func (t *Tx) Kill(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.kill(name, subscripts, false)
}

func (t *Tx) KillNode(name string, subscripts []interface{}, nodeOnly bool) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.kill(name, subscripts, nodeOnly)
}

func (t *Tx) Order(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.order(name, subscripts, false)
}

func (t *Tx) Previous(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.order(name, subscripts, true)
}

func (t *Tx) NextNode(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.node(name, subscripts, false)
}

func (t *Tx) PreviousNode(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.node(name, subscripts, true)
}

func (t *Tx) Increment(name string, subscripts []interface{}, delta interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.increment(name, subscripts, delta)
}

func (t *Tx) Merge(srcName string, srcSubscripts []interface{}, dstName string, dstSubscripts []interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.merge(srcName, srcSubscripts, dstName, dstSubscripts)
}

func (t *Tx) Lock(name string, subscripts []interface{}, timeout time.Duration) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.lock(name, subscripts, timeout)
}

func (t *Tx) Unlock(name string, subscripts ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.unlock(name, subscripts)
}

func (t *Tx) Function(routine string, args ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.function(routine, args)
}

func (t *Tx) Procedure(routine string, args ...interface{}) (*Reply, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.d.procedure(routine, args)
}

// Restart and Rollback are convenience outcomes for transaction bodies.
const (
	Restart  = engine.TxnRestart
	Rollback = engine.TxnRollback
	Commit   = engine.TxnCommit
)
