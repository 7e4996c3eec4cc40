/*
Package cedar is the in-memory reference implementation of the engine
call-in boundary (engine.Engine).

It stores hierarchical global and local trees with the engine's native
collation (canonical numeric subscripts in numeric order before string
subscripts) and implements the full entry-point set: node access, depth-first
traversal, incremental locks, routines, directories, intrinsics and
transactions.

The package focuses on:
  - Correctness: exact $DATA, ordering and traversal semantics so driver
    behavior can be tested without an external database engine
  - Shared environments: any number of sessions on one Environment share
    globals and the lock table while keeping private locals
  - Transactions: snapshot-based restart and rollback with the environment
    lock held for the whole retry unit

Example usage:

	env := cedar.NewEnvironment(nil)
	db := env.NewSession()
	if err := db.Open(engine.Config{}); err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	db.Set("^acct", [][]byte{[]byte("1001")}, []byte("42"))
	v, _ := db.Get("^acct", [][]byte{[]byte("1001")})

Thread-safety: an Environment is safe for concurrent sessions; a single
session is singly-reentrant and must not be called concurrently.
*/
package cedar
