package driver

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/util"
)

// --------------------------------------------------------------------------
// Call Baton
// --------------------------------------------------------------------------

// CallState is the lifecycle state of an asynchronous call.
type CallState int32

const (
	CallCreated    CallState = iota // submitted, waiting for a worker
	CallDispatched                  // a worker is executing the call
	CallCompleted                   // the result has been delivered
)

func (s CallState) String() string {
	switch s {
	case CallCreated:
		return "created"
	case CallDispatched:
		return "dispatched"
	case CallCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CallResult pairs the reply of an asynchronous call with its error.
type CallResult struct {
	Reply *Reply
	Err   error
}

// Call is the baton of one asynchronous operation. It carries the request, a
// snapshot of the driver configuration taken at submission, and the one-shot
// result channel.
type Call struct {
	req   Request
	mode  engine.Mode // config snapshot: the mode the call was submitted under
	state atomic.Int32
	done  chan *CallResult
}

// Done returns the one-shot result channel. Exactly one CallResult is
// delivered, then the channel is closed.
func (c *Call) Done() <-chan *CallResult {
	return c.done
}

// State returns the call's lifecycle state.
func (c *Call) State() CallState {
	return CallState(c.state.Load())
}

// Wait blocks until the call completes and returns its result.
func (c *Call) Wait() (*Reply, error) {
	res := <-c.done
	if res == nil {
		return nil, newError(engine.StatusEngineClosed, "connection closed before the call ran")
	}
	return res.Reply, res.Err
}

func (c *Call) complete(reply *Reply, err error) {
	c.state.Store(int32(CallCompleted))
	c.done <- &CallResult{Reply: reply, Err: err}
	close(c.done)
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// dispatcher drives the asynchronous worker pool: an unbounded intake queue
// (submission never blocks) feeding a fixed number of workers that funnel
// into the driver's serialization gate one call at a time.
type dispatcher struct {
	d  *Driver
	q  *util.MPSC[Call]
	wg sync.WaitGroup
}

func newDispatcher(d *Driver, workers int) *dispatcher {
	disp := &dispatcher{d: d, q: util.NewMPSC[Call]()}
	disp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go disp.work()
	}
	return disp
}

func (disp *dispatcher) work() {
	defer disp.wg.Done()
	for call := range disp.q.Recv() {
		asyncQueued.Dec()
		call.state.Store(int32(CallDispatched))
		reply, err := disp.d.Do(call.req)
		call.complete(reply, err)
	}
}

// stop closes the intake and waits until every queued call has been executed
// and delivered.
func (disp *dispatcher) stop() {
	disp.q.Close()
	disp.wg.Wait()
}

// --------------------------------------------------------------------------
// Submission
// --------------------------------------------------------------------------

// DoAsync submits an operation to the worker pool and returns its baton
// immediately. Submission never blocks; results arrive on the baton's Done
// channel in completion order.
//
// Asynchronous submission is refused while a transaction is open: queued
// work could not run before the transaction releases the gate, and a
// submission from the transaction body itself would wait forever.
func (d *Driver) DoAsync(req Request) (*Call, error) {
	if d.txActive.Load() {
		return nil, newError(engine.StatusNotSupported, "asynchronous calls are not available inside a transaction")
	}
	if d.State() != StateOpen {
		return nil, newError(engine.StatusEngineClosed, "connection is not open")
	}

	call := &Call{req: req, mode: d.cfg.Mode, done: make(chan *CallResult, 1)}
	call.state.Store(int32(CallCreated))

	if !d.disp.q.Push(call) {
		return nil, newError(engine.StatusEngineClosed, "connection is shutting down")
	}
	asyncQueued.Inc()
	return call, nil
}
