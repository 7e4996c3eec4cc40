package testing

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/gKV/lib/engine"
)

// EngineFactory is a function that creates a new, opened engine binding.
type EngineFactory func() engine.Engine

// RunEngineTests runs the conformance suite for an engine binding. The
// factory must return a fresh, already-opened binding on every call.
func RunEngineTests(t *testing.T, name string, factory EngineFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Data", func(t *testing.T) {
			testData(t, factory())
		})

		t.Run("Kill", func(t *testing.T) {
			testKill(t, factory())
		})

		t.Run("Order", func(t *testing.T) {
			testOrder(t, factory())
		})

		t.Run("OrderCollation", func(t *testing.T) {
			testOrderCollation(t, factory())
		})

		t.Run("NodeTraversal", func(t *testing.T) {
			testNodeTraversal(t, factory())
		})

		t.Run("NodeEmptyTree", func(t *testing.T) {
			testNodeEmptyTree(t, factory())
		})

		t.Run("Increment", func(t *testing.T) {
			testIncrement(t, factory())
		})

		t.Run("Locks", func(t *testing.T) {
			testLocks(t, factory())
		})

		t.Run("Merge", func(t *testing.T) {
			testMerge(t, factory())
		})

		t.Run("Directories", func(t *testing.T) {
			testDirectories(t, factory())
		})

		t.Run("Intrinsics", func(t *testing.T) {
			testIntrinsics(t, factory())
		})

		t.Run("Transactions", func(t *testing.T) {
			testTransactions(t, factory())
		})

		t.Run("Validation", func(t *testing.T) {
			testValidation(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func subs(parts ...string) [][]byte {
	out := make([][]byte, len(parts))
	for i, p := range parts {
		out[i] = []byte(p)
	}
	return out
}

func mustSet(t testing.TB, db engine.Engine, name string, s [][]byte, value string) {
	t.Helper()
	if st := db.Set(name, s, []byte(value)); st != engine.StatusOK {
		t.Fatalf("Set %s%v = %q failed with status %d", name, s, value, st)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, db engine.Engine) {
	defer db.Close()

	mustSet(t, db, "^acct", subs("1001"), "42")

	v, st := db.Get("^acct", subs("1001"))
	if st != engine.StatusOK {
		t.Fatalf("Get returned status %d", st)
	}
	if !bytes.Equal(v, []byte("42")) {
		t.Errorf("Expected value 42, got %q", v)
	}

	// overwrite
	mustSet(t, db, "^acct", subs("1001"), "43")
	v, _ = db.Get("^acct", subs("1001"))
	if !bytes.Equal(v, []byte("43")) {
		t.Errorf("Expected overwritten value 43, got %q", v)
	}

	// undefined node is a soft status, not an error
	_, st = db.Get("^acct", subs("9999"))
	if st != engine.StatusUndefined {
		t.Errorf("Expected StatusUndefined for missing node, got %d", st)
	}
	if !st.Soft() {
		t.Errorf("StatusUndefined should be soft")
	}

	// locals are independent of globals
	mustSet(t, db, "acct", subs("1001"), "local")
	v, _ = db.Get("acct", subs("1001"))
	if !bytes.Equal(v, []byte("local")) {
		t.Errorf("Expected local value, got %q", v)
	}
	v, _ = db.Get("^acct", subs("1001"))
	if !bytes.Equal(v, []byte("43")) {
		t.Errorf("Global value clobbered by local Set, got %q", v)
	}

	// returned values must be copies
	v, _ = db.Get("^acct", subs("1001"))
	v[0] = 'X'
	v2, _ := db.Get("^acct", subs("1001"))
	if bytes.Equal(v, v2) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testData(t *testing.T, db engine.Engine) {
	defer db.Close()

	if d, _ := db.Data("^d", nil); d != 0 {
		t.Errorf("Expected $DATA 0 for unset variable, got %d", d)
	}

	mustSet(t, db, "^d", subs("a"), "1")
	if d, _ := db.Data("^d", subs("a")); d != 1 {
		t.Errorf("Expected $DATA 1 for leaf, got %d", d)
	}
	if d, _ := db.Data("^d", nil); d != 10 {
		t.Errorf("Expected $DATA 10 for valueless parent, got %d", d)
	}

	mustSet(t, db, "^d", nil, "root")
	if d, _ := db.Data("^d", nil); d != 11 {
		t.Errorf("Expected $DATA 11 for valued parent, got %d", d)
	}
}

func testKill(t *testing.T, db engine.Engine) {
	defer db.Close()

	mustSet(t, db, "^k", subs("a"), "1")
	mustSet(t, db, "^k", subs("a", "b"), "2")

	// node-only kill keeps descendants
	if st := db.Kill("^k", subs("a"), true); st != engine.StatusOK {
		t.Fatalf("Kill (node only) failed with status %d", st)
	}
	if d, _ := db.Data("^k", subs("a")); d != 10 {
		t.Errorf("Expected $DATA 10 after node-only kill, got %d", d)
	}

	// subtree kill removes everything and prunes empty levels
	if st := db.Kill("^k", subs("a"), false); st != engine.StatusOK {
		t.Fatalf("Kill failed with status %d", st)
	}
	if d, _ := db.Data("^k", nil); d != 0 {
		t.Errorf("Expected $DATA 0 after subtree kill, got %d", d)
	}

	// killing a nonexistent node is a no-op
	if st := db.Kill("^k", subs("nope"), false); st != engine.StatusOK {
		t.Errorf("Kill of missing node returned status %d", st)
	}
}

func testOrder(t *testing.T, db engine.Engine) {
	defer db.Close()

	for _, k := range []string{"alpha", "bravo", "charlie"} {
		mustSet(t, db, "^o", subs(k), k)
	}

	next, st := db.Order("^o", subs(""), false)
	if st != engine.StatusOK || string(next) != "alpha" {
		t.Errorf("Expected first subscript alpha, got %q (status %d)", next, st)
	}
	next, _ = db.Order("^o", subs("alpha"), false)
	if string(next) != "bravo" {
		t.Errorf("Expected bravo after alpha, got %q", next)
	}
	next, _ = db.Order("^o", subs("charlie"), false)
	if len(next) != 0 {
		t.Errorf("Expected empty result at end of level, got %q", next)
	}

	// reverse from the empty bound starts at the end
	prev, _ := db.Order("^o", subs(""), true)
	if string(prev) != "charlie" {
		t.Errorf("Expected charlie from reverse empty bound, got %q", prev)
	}
	prev, _ = db.Order("^o", subs("bravo"), true)
	if string(prev) != "alpha" {
		t.Errorf("Expected alpha before bravo, got %q", prev)
	}
}

func testOrderCollation(t *testing.T, db engine.Engine) {
	defer db.Close()

	// mixed numeric and string subscripts: numerics first, in numeric order
	for _, k := range []string{"banana", "10", "2", "-3", ".5", "apple"} {
		mustSet(t, db, "^c", subs(k), "x")
	}

	want := []string{"-3", ".5", "2", "10", "apple", "banana"}
	got := make([]string, 0, len(want))
	cur := ""
	for {
		next, st := db.Order("^c", subs(cur), false)
		if st != engine.StatusOK {
			t.Fatalf("Order returned status %d", st)
		}
		if len(next) == 0 {
			break
		}
		cur = string(next)
		got = append(got, cur)
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d subscripts, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Collation position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func testNodeTraversal(t *testing.T, db engine.Engine) {
	defer db.Close()

	// a tree with values at (1), (2), (2,1) and (3): forward traversal must
	// visit every valued node exactly once, in depth-first order
	mustSet(t, db, "^t", subs("1"), "a")
	mustSet(t, db, "^t", subs("2"), "b")
	mustSet(t, db, "^t", subs("2", "1"), "c")
	mustSet(t, db, "^t", subs("3"), "d")

	want := [][]string{{"1"}, {"2"}, {"2", "1"}, {"3"}}

	var got [][]string
	bound := [][]byte{}
	for {
		p, st := db.Node("^t", bound, false)
		if st == engine.StatusNodeEnd {
			break
		}
		if st != engine.StatusOK {
			t.Fatalf("Node returned status %d", st)
		}
		strs := make([]string, len(p))
		for i, s := range p {
			strs[i] = string(s)
		}
		got = append(got, strs)
		bound = p
	}

	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Forward traversal: expected %v, got %v", want, got)
	}

	// reverse traversal visits the same nodes in the opposite order
	var rev [][]string
	bound = subs("")
	for {
		p, st := db.Node("^t", bound, true)
		if st == engine.StatusNodeEnd {
			break
		}
		if st != engine.StatusOK {
			t.Fatalf("Node (reverse) returned status %d", st)
		}
		strs := make([]string, len(p))
		for i, s := range p {
			strs[i] = string(s)
		}
		rev = append(rev, strs)
		bound = p
	}

	if len(rev) != len(want) {
		t.Fatalf("Reverse traversal visited %d nodes, expected %d: %v", len(rev), len(want), rev)
	}
	for i := range want {
		if fmt.Sprint(rev[len(rev)-1-i]) != fmt.Sprint(want[i]) {
			t.Errorf("Reverse traversal position %d: expected %v, got %v", i, want[i], rev[len(rev)-1-i])
		}
	}
}

func testNodeEmptyTree(t *testing.T, db engine.Engine) {
	defer db.Close()

	// traversal of a tree with no valued nodes ends immediately
	if _, st := db.Node("^empty", nil, false); st != engine.StatusNodeEnd {
		t.Errorf("Expected StatusNodeEnd on empty tree, got %d", st)
	}
	if _, st := db.Node("^empty", subs(""), true); st != engine.StatusNodeEnd {
		t.Errorf("Expected StatusNodeEnd on empty tree (reverse), got %d", st)
	}
}

func testIncrement(t *testing.T, db engine.Engine) {
	defer db.Close()

	v, st := db.Increment("^n", subs("ctr"), []byte("1"))
	if st != engine.StatusOK || string(v) != "1" {
		t.Errorf("Expected increment of unset node to yield 1, got %q (status %d)", v, st)
	}

	v, _ = db.Increment("^n", subs("ctr"), []byte("2.5"))
	if string(v) != "3.5" {
		t.Errorf("Expected 3.5, got %q", v)
	}

	v, _ = db.Increment("^n", subs("ctr"), []byte("-3.5"))
	if string(v) != "0" {
		t.Errorf("Expected 0, got %q", v)
	}

	if _, st = db.Increment("^n", subs("ctr"), []byte("abc")); st != engine.StatusNotANumber {
		t.Errorf("Expected StatusNotANumber for non-numeric delta, got %d", st)
	}
}

func testLocks(t *testing.T, db engine.Engine) {
	defer db.Close()

	ok, st := db.Lock("^l", subs("r"), time.Second)
	if !ok || st != engine.StatusOK {
		t.Fatalf("Lock failed: ok=%v status=%d", ok, st)
	}

	// incremental: re-acquire and double release
	ok, _ = db.Lock("^l", subs("r"), time.Second)
	if !ok {
		t.Fatalf("Re-acquiring a held lock must succeed")
	}
	if st := db.Unlock("^l", subs("r")); st != engine.StatusOK {
		t.Errorf("Unlock returned status %d", st)
	}
	if st := db.Unlock("^l", subs("r")); st != engine.StatusOK {
		t.Errorf("Second unlock returned status %d", st)
	}

	// unlocking a resource that is not held is a no-op
	if st := db.Unlock("^l", subs("never")); st != engine.StatusOK {
		t.Errorf("Unlock of unheld resource returned status %d", st)
	}

	if _, st := db.Lock("^l", subs("r"), 0); st != engine.StatusOK {
		t.Errorf("Zero-timeout lock of free resource returned status %d", st)
	}
	if st := db.UnlockAll(); st != engine.StatusOK {
		t.Errorf("UnlockAll returned status %d", st)
	}
}

func testMerge(t *testing.T, db engine.Engine) {
	defer db.Close()

	mustSet(t, db, "^src", subs("a"), "1")
	mustSet(t, db, "^src", subs("a", "b"), "2")
	mustSet(t, db, "^dst", subs("x"), "keep")

	if st := db.Merge("^src", nil, "^dst", nil); st != engine.StatusOK {
		t.Fatalf("Merge failed with status %d", st)
	}

	v, _ := db.Get("^dst", subs("a", "b"))
	if string(v) != "2" {
		t.Errorf("Expected merged value 2, got %q", v)
	}
	v, _ = db.Get("^dst", subs("x"))
	if string(v) != "keep" {
		t.Errorf("Merge clobbered unrelated node, got %q", v)
	}

	// merge into a subtree of itself must not loop
	if st := db.Merge("^src", nil, "^src", subs("a")); st != engine.StatusOK {
		t.Fatalf("Self-overlapping merge failed with status %d", st)
	}
	v, _ = db.Get("^src", subs("a", "a", "b"))
	if string(v) != "2" {
		t.Errorf("Expected self-merged value 2, got %q", v)
	}
}

func testDirectories(t *testing.T, db engine.Engine) {
	defer db.Close()

	mustSet(t, db, "^ga", nil, "1")
	mustSet(t, db, "^gb", nil, "1")
	mustSet(t, db, "^gc", nil, "1")
	mustSet(t, db, "la", nil, "1")

	all, st := db.GlobalDirectory(0, "", "")
	if st != engine.StatusOK || len(all) != 3 {
		t.Errorf("Expected 3 globals, got %v (status %d)", all, st)
	}

	capped, _ := db.GlobalDirectory(2, "", "")
	if len(capped) != 2 {
		t.Errorf("Expected max 2 globals, got %v", capped)
	}

	ranged, _ := db.GlobalDirectory(0, "gb", "gb")
	if len(ranged) != 1 || ranged[0] != "gb" {
		t.Errorf("Expected range [gb, gb] to yield gb, got %v", ranged)
	}

	locals, st := db.LocalDirectory(0, "", "")
	if st != engine.StatusOK || len(locals) != 1 || locals[0] != "la" {
		t.Errorf("Expected locals [la], got %v (status %d)", locals, st)
	}
}

func testIntrinsics(t *testing.T, db engine.Engine) {
	defer db.Close()

	dir, st := db.IntrinsicGet(engine.ISVGlobalDirectory)
	if st != engine.StatusOK || dir == "" {
		t.Fatalf("Expected a default directory selector, got %q (status %d)", dir, st)
	}

	mustSet(t, db, "^iso", nil, "in-default")

	if st := db.IntrinsicSet(engine.ISVGlobalDirectory, "other"); st != engine.StatusOK {
		t.Fatalf("IntrinsicSet failed with status %d", st)
	}
	if _, st := db.Get("^iso", nil); st != engine.StatusUndefined {
		t.Errorf("Expected ^iso to be undefined in the other directory, got status %d", st)
	}

	if st := db.IntrinsicSet(engine.ISVGlobalDirectory, dir); st != engine.StatusOK {
		t.Fatalf("Restoring the directory selector failed with status %d", st)
	}
	if v, _ := db.Get("^iso", nil); string(v) != "in-default" {
		t.Errorf("Expected ^iso back in the default directory, got %q", v)
	}

	if _, st := db.IntrinsicGet("$nosuch"); st != engine.StatusNoIntrinsic {
		t.Errorf("Expected StatusNoIntrinsic, got %d", st)
	}
}

func testTransactions(t *testing.T, db engine.Engine) {
	defer db.Close()

	mustSet(t, db, "^tx", nil, "before")

	// commit keeps the body's writes
	st := db.Transaction(func() engine.TxnStatus {
		db.Set("^tx", nil, []byte("committed"))
		return engine.TxnCommit
	}, nil)
	if st == engine.StatusNotSupported {
		t.Skip()
	}
	if st != engine.StatusOK {
		t.Fatalf("Committing transaction failed with status %d", st)
	}
	if v, _ := db.Get("^tx", nil); string(v) != "committed" {
		t.Errorf("Expected committed value, got %q", v)
	}

	// rollback discards them
	st = db.Transaction(func() engine.TxnStatus {
		db.Set("^tx", nil, []byte("discarded"))
		return engine.TxnRollback
	}, nil)
	if st != engine.StatusTxnFailed {
		t.Fatalf("Expected StatusTxnFailed on rollback, got %d", st)
	}
	if v, _ := db.Get("^tx", nil); string(v) != "committed" {
		t.Errorf("Rollback left value %q", v)
	}

	// restart rewinds globals and the listed locals, then reruns the body
	mustSet(t, db, "count", nil, "0")
	attempts := 0
	st = db.Transaction(func() engine.TxnStatus {
		attempts++
		db.Set("^tx", nil, []byte(fmt.Sprintf("attempt-%d", attempts)))
		if attempts < 3 {
			return engine.TxnRestart
		}
		return engine.TxnCommit
	}, []string{"count"})
	if st != engine.StatusOK {
		t.Fatalf("Restarting transaction failed with status %d", st)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if v, _ := db.Get("^tx", nil); string(v) != "attempt-3" {
		t.Errorf("Expected attempt-3, got %q", v)
	}
}

func testValidation(t *testing.T, db engine.Engine) {
	defer db.Close()

	if _, st := db.Get("^1bad", nil); st != engine.StatusInvalidName {
		t.Errorf("Expected StatusInvalidName for ^1bad, got %d", st)
	}
	if _, st := db.Get("", nil); st != engine.StatusInvalidName {
		t.Errorf("Expected StatusInvalidName for empty name, got %d", st)
	}

	// empty subscripts are invalid outside traversal bounds
	if st := db.Set("^v", subs(""), []byte("x")); st != engine.StatusBadSubscript {
		t.Errorf("Expected StatusBadSubscript for empty subscript, got %d", st)
	}

	// subscript count cap
	many := make([][]byte, engine.MaxSubscripts+1)
	for i := range many {
		many[i] = []byte("s")
	}
	if st := db.Set("^v", many, []byte("x")); st != engine.StatusTooManySubs {
		t.Errorf("Expected StatusTooManySubs, got %d", st)
	}

	// hard statuses carry retrievable error text
	_, st := db.Get("^1bad", nil)
	if txt := db.ErrorText(st); txt == "" {
		t.Errorf("Expected error text for hard status %d", st)
	}
}
