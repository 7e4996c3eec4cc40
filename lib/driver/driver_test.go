package driver

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/engine/cedar"
)

func newOpenDriver(t testing.TB, cfg Config) *Driver {
	t.Helper()
	d := New(cfg)
	if err := d.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return d
}

func TestLifecycle(t *testing.T) {
	d := New(DefaultConfig())

	if _, err := d.Get("^x"); err == nil {
		t.Errorf("Calls before Open must fail")
	}

	if err := d.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if d.State() != StateOpen {
		t.Errorf("Expected state open, got %v", d.State())
	}
	if err := d.Open(); err == nil {
		t.Errorf("Second Open must fail")
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.State() != StateClosed {
		t.Errorf("Expected state closed, got %v", d.State())
	}
	if _, err := d.Get("^x"); err == nil {
		t.Errorf("Calls after Close must fail")
	}
	if err := d.Open(); err == nil {
		t.Errorf("A closed driver may not be reopened")
	}
}

func TestSurfacing(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	// canonical mode: numeric results surface as float64
	d.Set("^acct", []interface{}{"1001"}, 42)
	r, err := d.Get("^acct", "1001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !r.Defined || r.Value != float64(42) {
		t.Errorf("Expected 42 (float64), got %#v", r.Value)
	}

	// non-canonical text stays a string
	d.Set("^acct", []interface{}{"1001"}, "007")
	r, _ = d.Get("^acct", "1001")
	if r.Value != "007" {
		t.Errorf("Expected string 007, got %#v", r.Value)
	}

	// undefined nodes are a soft outcome
	r, err = d.Get("^acct", "9999")
	if err != nil {
		t.Fatalf("Get of missing node must not error: %v", err)
	}
	if r.Defined || r.Value != nil {
		t.Errorf("Expected undefined reply, got %#v", r)
	}
}

func TestStringMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = engine.ModeString
	d := newOpenDriver(t, cfg)
	defer d.Close()

	d.Set("^s", nil, 42)
	r, _ := d.Get("^s")
	if r.Value != "42" {
		t.Errorf("String mode must surface text, got %#v", r.Value)
	}

	// fractional values keep their leading zero in string mode
	d.Set("^s", nil, 0.5)
	r, _ = d.Get("^s")
	if r.Value != "0.5" {
		t.Errorf("Expected 0.5, got %#v", r.Value)
	}
}

func TestErrorDecoding(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	_, err := d.Get("^1bad")
	if err == nil {
		t.Fatalf("Expected an error for an invalid name")
	}
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("Expected a *driver.Error, got %T", err)
	}
	if derr.Status != engine.StatusInvalidName {
		t.Errorf("Expected StatusInvalidName, got %d", derr.Status)
	}
	if derr.Fatal() {
		t.Errorf("An invalid name is not a fatal condition")
	}
}

func TestReservedPrefix(t *testing.T) {
	env := cedar.NewEnvironment(nil)
	eng := env.NewSession()
	cfg := DefaultConfig()
	cfg.Engine = eng
	d := newOpenDriver(t, cfg)
	defer d.Close()

	// user input must never address the bookkeeping namespace
	if _, err := d.Set("v4wcache", nil, 1); err == nil {
		t.Errorf("Setting a reserved local must fail")
	}

	// seed a bookkeeping local directly through the binding
	eng.Set("v4wcache", nil, []byte("internal"))
	d.Set("la", nil, 1)
	d.Set("lb", nil, 1)

	// name-level iteration skips the reserved namespace entirely
	r, err := d.Order("lb")
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if r.Defined {
		t.Errorf("Expected end of local names, got %v", r.Result)
	}

	// and so does the local directory listing
	locals, err := d.LocalDirectory(0, "", "")
	if err != nil {
		t.Fatalf("LocalDirectory failed: %v", err)
	}
	for _, n := range locals {
		if n == "v4wcache" {
			t.Errorf("Reserved local leaked into the directory listing: %v", locals)
		}
	}
}

func TestExtendedReference(t *testing.T) {
	env := cedar.NewEnvironment(nil)
	eng := env.NewSession()
	cfg := DefaultConfig()
	cfg.Engine = eng
	d := newOpenDriver(t, cfg)
	defer d.Close()

	if _, err := d.Set("^[other]acct", []interface{}{"1001"}, 42); err != nil {
		t.Fatalf("Set through extended reference failed: %v", err)
	}

	// the write landed in the alternate directory, not the default one
	r, _ := d.Get("^acct", "1001")
	if r.Defined {
		t.Errorf("Value leaked into the default directory")
	}
	r, err := d.Get("^|other|acct", "1001")
	if err != nil {
		t.Fatalf("Get through extended reference failed: %v", err)
	}
	if !r.Defined || r.Value != float64(42) {
		t.Errorf("Expected 42 from the alternate directory, got %#v", r.Value)
	}

	// the selector is restored after every call
	if dir, _ := eng.IntrinsicGet(engine.ISVGlobalDirectory); dir != "default" {
		t.Errorf("Directory selector not restored, got %q", dir)
	}
}

func TestGateExclusivity(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	const goroutines = 8
	const perGoroutine = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := d.Increment("^ctr", nil, 1); err != nil {
					t.Errorf("Increment failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	r, err := d.Get("^ctr")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if r.Value != float64(goroutines*perGoroutine) {
		t.Errorf("Lost updates: expected %d, got %v", goroutines*perGoroutine, r.Value)
	}
}

func TestTransactionCommit(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	err := d.Transaction(func(tx *Tx) engine.TxnStatus {
		tx.Set("^tx", nil, "committed")
		return Commit
	}, nil)
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	r, _ := d.Get("^tx")
	if r.Value != "committed" {
		t.Errorf("Expected committed, got %#v", r.Value)
	}
}

func TestTransactionRollback(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	d.Set("^tx", nil, "before")
	err := d.Transaction(func(tx *Tx) engine.TxnStatus {
		tx.Set("^tx", nil, "discarded")
		return Rollback
	}, nil)

	var derr *Error
	if !errors.As(err, &derr) || derr.Status != engine.StatusTxnFailed {
		t.Fatalf("Expected StatusTxnFailed, got %v", err)
	}
	r, _ := d.Get("^tx")
	if r.Value != "before" {
		t.Errorf("Rollback left %#v", r.Value)
	}
}

func TestTransactionRestartBudget(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	// a body that always restarts runs 1 + maxTxnRestarts times, then the
	// coordinator forces a rollback
	attempts := 0
	err := d.Transaction(func(tx *Tx) engine.TxnStatus {
		attempts++
		return Restart
	}, nil)

	var derr *Error
	if !errors.As(err, &derr) || derr.Status != engine.StatusTxnFailed {
		t.Fatalf("Expected StatusTxnFailed after exhausted restarts, got %v", err)
	}
	if attempts != maxTxnRestarts+1 {
		t.Errorf("Expected %d attempts, got %d", maxTxnRestarts+1, attempts)
	}
}

func TestTransactionRefusesAsync(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	err := d.Transaction(func(tx *Tx) engine.TxnStatus {
		if _, err := d.DoAsync(Request{Op: OpGet, Name: "^x"}); err == nil {
			t.Errorf("DoAsync inside a transaction must be refused")
		}
		return Commit
	}, nil)
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
}

func TestTxHandleExpires(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	var leaked *Tx
	d.Transaction(func(tx *Tx) engine.TxnStatus {
		leaked = tx
		return Commit
	}, nil)

	if _, err := leaked.Get("^x"); err == nil {
		t.Errorf("A Tx handle must expire with its body")
	}
}

func TestDoAsync(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	const calls = 32
	batons := make([]*Call, 0, calls)
	for i := 0; i < calls; i++ {
		c, err := d.DoAsync(Request{
			Op:         OpSet,
			Name:       "^async",
			Subscripts: []interface{}{i},
			Value:      i,
		})
		if err != nil {
			t.Fatalf("DoAsync failed: %v", err)
		}
		batons = append(batons, c)
	}

	for i, c := range batons {
		reply, err := c.Wait()
		if err != nil {
			t.Fatalf("Async call %d failed: %v", i, err)
		}
		if !reply.OK {
			t.Errorf("Async call %d: not ok", i)
		}
		if c.State() != CallCompleted {
			t.Errorf("Async call %d: expected completed, got %v", i, c.State())
		}
	}

	// every write arrived
	for i := 0; i < calls; i++ {
		r, _ := d.Get("^async", i)
		if r.Value != float64(i) {
			t.Errorf("Subscript %d: expected %d, got %#v", i, i, r.Value)
		}
	}
}

func TestDoEnvelope(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	if _, err := d.Do(Request{Op: OpSet, Name: "^e", Subscripts: []interface{}{"1001"}, Value: 42}); err != nil {
		t.Fatalf("Do(set) failed: %v", err)
	}

	r, err := d.Do(Request{Op: OpGet, Name: "^e", Subscripts: []interface{}{"1001"}})
	if err != nil {
		t.Fatalf("Do(get) failed: %v", err)
	}
	if !r.OK || r.Name != "^e" || !r.Defined || r.Value != float64(42) {
		t.Errorf("Unexpected envelope: %+v", r)
	}
	if len(r.Subscripts) != 1 || r.Subscripts[0] != "1001" {
		t.Errorf("Subscripts not echoed: %v", r.Subscripts)
	}

	// merge via Do with a source target
	if _, err := d.Do(Request{
		Op:     OpMerge,
		Name:   "^copy",
		Source: &Target{Name: "^e"},
	}); err != nil {
		t.Fatalf("Do(merge) failed: %v", err)
	}
	r, _ = d.Get("^copy", "1001")
	if r.Value != float64(42) {
		t.Errorf("Merge via Do: expected 42, got %#v", r.Value)
	}

	if _, err := d.Do(Request{Op: "bogus"}); err == nil {
		t.Errorf("Unknown ops must fail")
	}
}

func TestTraversalEnvelope(t *testing.T) {
	d := newOpenDriver(t, DefaultConfig())
	defer d.Close()

	d.Set("^t", []interface{}{1}, "a")
	d.Set("^t", []interface{}{2}, "b")
	d.Set("^t", []interface{}{2, 1}, "c")
	d.Set("^t", []interface{}{3}, "d")

	// full forward walk via NextNode
	var visited []string
	r, err := d.NextNode("^t")
	for ; err == nil && r.Defined; r, err = d.NextNode("^t", r.Subscripts...) {
		visited = append(visited, fmt.Sprintf("%v=%v", r.Subscripts, r.Value))
	}
	if err != nil {
		t.Fatalf("NextNode failed: %v", err)
	}

	want := []string{"[1]=a", "[2]=b", "[2 1]=c", "[3]=d"}
	if fmt.Sprint(visited) != fmt.Sprint(want) {
		t.Errorf("Traversal: expected %v, got %v", want, visited)
	}

	// sibling iteration surfaces numbers in canonical mode
	or, _ := d.Order("^t", 1)
	if or.Result != float64(2) {
		t.Errorf("Expected order result 2, got %#v", or.Result)
	}
}

func TestFunctionAndProcedure(t *testing.T) {
	env := cedar.NewEnvironment(nil)
	env.RegisterRoutine("add", func(args []interface{}) (interface{}, error) {
		total := 0.0
		for _, a := range args {
			if f, ok := a.(float64); ok {
				total += f
			}
		}
		return total, nil
	})
	cfg := DefaultConfig()
	cfg.Engine = env.NewSession()
	d := newOpenDriver(t, cfg)
	defer d.Close()

	r, err := d.Function("add", 40, 2)
	if err != nil {
		t.Fatalf("Function failed: %v", err)
	}
	if r.Value != float64(42) {
		t.Errorf("Expected 42, got %#v", r.Value)
	}

	if _, err := d.Procedure("add", 1); err != nil {
		t.Errorf("Procedure failed: %v", err)
	}

	var derr *Error
	_, err = d.Function("missing")
	if !errors.As(err, &derr) || derr.Status != engine.StatusNoRoutine {
		t.Errorf("Expected StatusNoRoutine, got %v", err)
	}
}
