package cedar

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
	enginetest "github.com/ValentinKolb/gKV/lib/engine/testing"
)

func newOpenSession(t testing.TB, env *Environment) engine.Engine {
	t.Helper()
	db := env.NewSession()
	if err := db.Open(engine.Config{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return db
}

func TestCedarConformance(t *testing.T) {
	enginetest.RunEngineTests(t, "cedar", func() engine.Engine {
		env := NewEnvironment(nil)
		db := env.NewSession()
		if err := db.Open(engine.Config{}); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return db
	})
}

func TestLifecycle(t *testing.T) {
	env := NewEnvironment(nil)
	db := env.NewSession()

	// entry points before Open fail with StatusEngineClosed
	if _, st := db.Get("^x", nil); st != engine.StatusEngineClosed {
		t.Errorf("Expected StatusEngineClosed before Open, got %d", st)
	}

	if err := db.Open(engine.Config{}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Open(engine.Config{}); err == nil {
		t.Errorf("Second Open must fail")
	}

	if !strings.HasPrefix(db.Version(), "cedar ") {
		t.Errorf("Unexpected version string %q", db.Version())
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := db.Close(); err == nil {
		t.Errorf("Second Close must fail")
	}
	if st := db.Set("^x", nil, []byte("v")); st != engine.StatusEngineClosed {
		t.Errorf("Expected StatusEngineClosed after Close, got %d", st)
	}

	// sessions may not be reopened
	if err := db.Open(engine.Config{}); err == nil {
		t.Errorf("Reopening a closed session must fail")
	}
}

func TestSharedEnvironment(t *testing.T) {
	env := NewEnvironment(nil)
	a := newOpenSession(t, env)
	b := newOpenSession(t, env)
	defer a.Close()
	defer b.Close()

	// globals are shared
	a.Set("^shared", nil, []byte("from-a"))
	v, st := b.Get("^shared", nil)
	if st != engine.StatusOK || !bytes.Equal(v, []byte("from-a")) {
		t.Errorf("Expected shared global, got %q (status %d)", v, st)
	}

	// locals are private
	a.Set("priv", nil, []byte("a-only"))
	if _, st := b.Get("priv", nil); st != engine.StatusUndefined {
		t.Errorf("Locals leaked between sessions, status %d", st)
	}
}

func TestLockContention(t *testing.T) {
	env := NewEnvironment(nil)
	a := newOpenSession(t, env)
	b := newOpenSession(t, env)
	defer a.Close()
	defer b.Close()

	res := [][]byte{[]byte("r")}

	if ok, _ := a.Lock("^res", res, time.Second); !ok {
		t.Fatalf("Initial lock must succeed")
	}

	// b cannot take the held resource within the timeout
	ok, st := b.Lock("^res", res, 50*time.Millisecond)
	if ok || st != engine.StatusNotAcquired {
		t.Fatalf("Expected timeout, got ok=%v status=%d", ok, st)
	}

	// b succeeds once a releases
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if ok, st := b.Lock("^res", res, 5*time.Second); !ok {
			t.Errorf("Lock after release failed with status %d", st)
		}
	}()
	time.Sleep(20 * time.Millisecond)
	a.Unlock("^res", res)
	wg.Wait()
}

func TestSessionCloseReleasesLocks(t *testing.T) {
	env := NewEnvironment(nil)
	a := newOpenSession(t, env)
	b := newOpenSession(t, env)
	defer b.Close()

	res := [][]byte{[]byte("r")}
	a.Lock("^res", res, time.Second)
	a.Close()

	if ok, st := b.Lock("^res", res, time.Second); !ok {
		t.Errorf("Lock after owner close failed with status %d", st)
	}
}

func TestRoutines(t *testing.T) {
	env := NewEnvironment(nil)
	env.RegisterRoutine("sum", func(args []interface{}) (interface{}, error) {
		total := 0.0
		for _, a := range args {
			if f, ok := a.(float64); ok {
				total += f
			}
		}
		return total, nil
	})
	db := newOpenSession(t, env)
	defer db.Close()

	// args arrive as a call-in token stream
	v, st := db.Function("sum", "1:12:402:.5", false)
	if st != engine.StatusOK || string(v) != "41.5" {
		t.Errorf("Expected 41.5, got %q (status %d)", v, st)
	}

	if st := db.Procedure("sum", "", false); st != engine.StatusOK {
		t.Errorf("Procedure returned status %d", st)
	}

	if _, st := db.Function("nope", "", false); st != engine.StatusNoRoutine {
		t.Errorf("Expected StatusNoRoutine, got %d", st)
	}

	if _, st := db.Function("sum", "9:x", false); st != engine.StatusBadSubscript {
		t.Errorf("Expected StatusBadSubscript for a malformed stream, got %d", st)
	}
}

func TestOrderOverNames(t *testing.T) {
	env := NewEnvironment(nil)
	db := newOpenSession(t, env)
	defer db.Close()

	db.Set("^ga", nil, []byte("1"))
	db.Set("^gc", nil, []byte("1"))
	db.Set("la", nil, []byte("1"))
	db.Set("lc", nil, []byte("1"))

	// global name iteration keeps the sigil
	next, st := db.Order("^ga", nil, false)
	if st != engine.StatusOK || string(next) != "^gc" {
		t.Errorf("Expected ^gc after ^ga, got %q (status %d)", next, st)
	}
	next, _ = db.Order("^gc", nil, false)
	if len(next) != 0 {
		t.Errorf("Expected end of global names, got %q", next)
	}

	// local name iteration, reverse
	prev, _ := db.Order("lc", nil, true)
	if string(prev) != "la" {
		t.Errorf("Expected la before lc, got %q", prev)
	}
}

func TestNestedTransaction(t *testing.T) {
	env := NewEnvironment(nil)
	db := newOpenSession(t, env)
	defer db.Close()

	st := db.Transaction(func() engine.TxnStatus {
		db.Set("^outer", nil, []byte("kept"))

		// the inner rollback rewinds only its own writes
		inner := db.Transaction(func() engine.TxnStatus {
			db.Set("^inner", nil, []byte("gone"))
			return engine.TxnRollback
		}, nil)
		if inner != engine.StatusTxnFailed {
			t.Errorf("Expected inner StatusTxnFailed, got %d", inner)
		}

		return engine.TxnCommit
	}, nil)

	if st != engine.StatusOK {
		t.Fatalf("Outer transaction failed with status %d", st)
	}
	if v, _ := db.Get("^outer", nil); string(v) != "kept" {
		t.Errorf("Expected outer write kept, got %q", v)
	}
	if _, st := db.Get("^inner", nil); st != engine.StatusUndefined {
		t.Errorf("Inner write survived rollback, status %d", st)
	}
}
