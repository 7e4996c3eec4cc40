package cedar

import (
	"github.com/ValentinKolb/gKV/lib/engine"
)

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// txSnapshot captures the state a transaction level can be rewound to.
type txSnapshot struct {
	dir       string
	globals   map[string]*node
	locals    map[string]*node
	variables []string
}

// snapshot deep-copies the active global directory and the session locals.
// Callers must hold the environment lock.
func (s *session) snapshot(variables []string) txSnapshot {
	d := s.env.dir(s.gbldir)
	snap := txSnapshot{
		dir:       s.gbldir,
		globals:   make(map[string]*node, len(d.globals)),
		locals:    make(map[string]*node, len(s.locals)),
		variables: variables,
	}
	for name, n := range d.globals {
		snap.globals[name] = n.clone()
	}
	for name, n := range s.locals {
		snap.locals[name] = n.clone()
	}
	return snap
}

// restoreGlobals rewinds the snapshot's global directory to its captured state.
func (s *session) restoreGlobals(snap txSnapshot) {
	d := s.env.dir(snap.dir)
	d.globals = make(map[string]*node, len(snap.globals))
	for name, n := range snap.globals {
		d.globals[name] = n.clone()
	}
}

// restoreLocals rewinds the locals named in the snapshot's variable list
// (nil = all locals).
func (s *session) restoreLocals(snap txSnapshot) {
	if snap.variables == nil {
		s.locals = make(map[string]*node, len(snap.locals))
		for name, n := range snap.locals {
			s.locals[name] = n.clone()
		}
		return
	}
	for _, name := range snap.variables {
		if n, ok := snap.locals[name]; ok {
			s.locals[name] = n.clone()
		} else {
			delete(s.locals, name)
		}
	}
}

// Transaction runs body as a retry unit. The environment lock is held for the
// whole attempt, so the body sees (and produces) an isolated state: a restart
// rewinds globals plus the listed locals and runs the body again, a rollback
// rewinds globals and fails with StatusTxnFailed.
//
// Nested calls join the outer transaction's lock scope; their rewind is
// limited to their own snapshot.
func (s *session) Transaction(body func() engine.TxnStatus, variables []string) engine.Status {
	if s.state != sessOpen {
		return s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	if body == nil {
		return s.fail(engine.StatusInternalError, "transaction body is nil")
	}

	if s.txDepth == 0 {
		s.env.mu.Lock()
		defer s.env.mu.Unlock()
	}
	s.txDepth++
	defer func() { s.txDepth-- }()

	snap := s.snapshot(variables)
	s.txSnaps = append(s.txSnaps, snap)
	defer func() { s.txSnaps = s.txSnaps[:len(s.txSnaps)-1] }()

	for {
		switch body() {
		case engine.TxnCommit:
			return engine.StatusOK
		case engine.TxnRestart:
			s.restoreGlobals(snap)
			s.restoreLocals(snap)
		case engine.TxnRollback:
			s.restoreGlobals(snap)
			return s.fail(engine.StatusTxnFailed, "transaction rolled back")
		default:
			s.restoreGlobals(snap)
			return s.fail(engine.StatusTxnFailed, "transaction body returned an unknown status")
		}
	}
}
