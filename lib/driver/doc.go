/*
Package driver implements the host-side access layer for the gKV database
engine: name normalization, argument encoding, result surfacing, error
decoding, and the concurrency discipline the engine's call-in interface
demands.

The engine interface is synchronous and singly-reentrant, so every operation
is funneled through an internal serialization gate. On top of that the
package offers three calling surfaces:

  - Direct methods (Get, Set, Order, ...) for synchronous use
  - A uniform Request/Do API, also backing the command-line tooling
  - DoAsync, which queues work on an unbounded intake and executes it on a
    fixed worker pool, delivering results through one-shot call batons

The package focuses on:
  - Correct data shaping: canonical-number classification decides whether
    results surface as numbers or strings, subscripts are encoded to the
    engine's buffer records, and routine arguments to its call-in token
    stream
  - Safety: hard engine statuses decode into structured errors, fatal
    engine conditions shut the connection down exactly once, and extended
    references restore the directory selector even on the error path
  - Transactions: the Transaction method drives the engine's retry unit
    with a bounded restart budget, handing the body a gate-free Tx handle

Example usage:

	d := driver.New(driver.DefaultConfig())
	if err := d.Open(); err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	d.Set("^acct", []interface{}{"1001"}, 42)
	r, err := d.Get("^acct", "1001")
	if err == nil && r.Defined {
		fmt.Println(r.Value) // 42 (float64, canonical mode)
	}

Thread-safety: a Driver may be shared between goroutines; calls are
serialized internally. A Tx handle is only valid inside its transaction body.
*/
package driver
