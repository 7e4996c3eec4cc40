package cedar

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/gKV/lib/canon"
	"github.com/ValentinKolb/gKV/lib/encoding"
	"github.com/ValentinKolb/gKV/lib/engine"
	"github.com/ValentinKolb/gKV/lib/names"
	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	cedarVersion = "1.2.0"

	// defaultDirectory is the global directory selected when the open
	// configuration names none.
	defaultDirectory = "default"
)

// --------------------------------------------------------------------------
// Environment
// --------------------------------------------------------------------------

// Routine is a callable registered with the environment, reachable through
// the Function and Procedure entry points. Arguments arrive decoded from the
// call-in token stream (numbers as float64, strings as string, absent as
// nil); the returned value is rendered back to engine text.
type Routine func(args []interface{}) (interface{}, error)

// directory is one global directory: an independent namespace of global trees.
type directory struct {
	globals map[string]*node
}

// Options configures a cedar environment.
type Options struct {
	// DefaultDirectory is the global directory used by sessions whose open
	// configuration selects none (empty = "default").
	DefaultDirectory string
}

// DefaultOptions returns the default environment options.
func DefaultOptions() *Options {
	return &Options{DefaultDirectory: defaultDirectory}
}

// Environment is the shared in-memory database: global directories, the lock
// table and the routine registry. Any number of sessions may be created on
// one environment; they share globals and locks but have private locals.
type Environment struct {
	mu       sync.Mutex // guards dirs and every tree mutation
	dirs     map[string]*directory
	locks    *lockTable
	routines map[string]Routine
	defDir   string
}

// NewEnvironment creates a new cedar environment with the specified options
// (optional).
//
// Thread-safety: the returned environment is safe for use by concurrent
// sessions; each individual session is singly-reentrant like the real engine.
func NewEnvironment(opts *Options) *Environment {
	if opts == nil {
		opts = DefaultOptions()
	}
	defDir := opts.DefaultDirectory
	if defDir == "" {
		defDir = defaultDirectory
	}
	return &Environment{
		dirs:     make(map[string]*directory),
		locks:    newLockTable(),
		routines: make(map[string]Routine),
		defDir:   defDir,
	}
}

// New creates a single-session engine on a fresh environment. This is the
// resolved-handle binding the driver uses for in-process mode.
func New(opts *Options) engine.Engine {
	return NewEnvironment(opts).NewSession()
}

// RegisterRoutine makes fn callable through Function and Procedure.
//
// Thread-safety: not safe concurrently with running sessions; register
// routines during setup.
func (e *Environment) RegisterRoutine(name string, fn Routine) {
	e.routines[name] = fn
}

// NewSession creates a new engine session. The session must be opened before
// use and may not be shared between concurrent callers.
func (e *Environment) NewSession() engine.Engine {
	return &session{
		env:    e,
		owner:  uuid.New(),
		locals: make(map[string]*node),
		diag:   io.Discard,
	}
}

// dir returns the named global directory, creating it lazily.
// Callers must hold e.mu.
func (e *Environment) dir(name string) *directory {
	d, ok := e.dirs[name]
	if !ok {
		d = &directory{globals: make(map[string]*node)}
		e.dirs[name] = d
	}
	return d
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

type sessionState uint8

const (
	sessNew sessionState = iota
	sessOpen
	sessClosed
)

// session implements engine.Engine on a shared environment.
type session struct {
	env    *Environment
	owner  uuid.UUID
	locals map[string]*node
	gbldir string
	state  sessionState
	diag   io.Writer

	txDepth int
	txSnaps []txSnapshot

	lastStatus engine.Status
	lastErr    string
}

// --------------------------------------------------------------------------
// Lifecycle (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) Open(cfg engine.Config) error {
	switch s.state {
	case sessOpen:
		return fmt.Errorf("cedar: session already open")
	case sessClosed:
		return fmt.Errorf("cedar: session closed, sessions may not be reopened")
	}
	s.gbldir = cfg.GlobalDirectory
	if s.gbldir == "" {
		s.gbldir = s.env.defDir
	}
	s.state = sessOpen
	return nil
}

func (s *session) Close() error {
	if s.state != sessOpen {
		return fmt.Errorf("cedar: session not open")
	}
	s.env.locks.releaseAll(s.owner)
	s.state = sessClosed
	return nil
}

func (s *session) Version() string {
	return "cedar " + cedarVersion
}

func (s *session) SetDiagnosticWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.diag = w
}

// --------------------------------------------------------------------------
// Internal Helpers
// --------------------------------------------------------------------------

// acquire takes the environment lock unless this session's transaction
// already holds it. The returned func releases symmetrically.
func (s *session) acquire() func() {
	if s.txDepth > 0 {
		return func() {}
	}
	s.env.mu.Lock()
	return s.env.mu.Unlock
}

// fail records the out-of-band error text for a hard status and returns it.
func (s *session) fail(st engine.Status, msg string) engine.Status {
	s.lastStatus = st
	s.lastErr = fmt.Sprintf("%d,%s", int32(st), msg)
	return st
}

func (s *session) ErrorText(st engine.Status) string {
	if st == s.lastStatus && s.lastErr != "" {
		return s.lastErr
	}
	return fmt.Sprintf("%d,%s", int32(st), statusText(st))
}

func statusText(st engine.Status) string {
	switch st {
	case engine.StatusOK:
		return "ok"
	case engine.StatusUndefined:
		return "undefined node"
	case engine.StatusNodeEnd:
		return "end of tree"
	case engine.StatusNotAcquired:
		return "lock not acquired"
	case engine.StatusInvalidName:
		return "invalid variable name"
	case engine.StatusBadSubscript:
		return "invalid subscript"
	case engine.StatusTooManySubs:
		return "too many subscripts"
	case engine.StatusNoRoutine:
		return "routine not found"
	case engine.StatusNotANumber:
		return "increment delta is not a number"
	case engine.StatusTxnFailed:
		return "transaction rolled back"
	case engine.StatusNotSupported:
		return "operation not supported"
	case engine.StatusNoIntrinsic:
		return "unknown intrinsic special variable"
	case engine.StatusEngineClosed:
		return "engine is closed"
	case engine.StatusTooLong:
		return "string exceeds the engine maximum"
	default:
		return "internal engine error"
	}
}

// checkRef validates a normalized reference. allowEmptyLast permits an empty
// subscript in the last position (the traversal start bound).
func (s *session) checkRef(name string, subs [][]byte, allowEmptyLast bool) (global bool, bare string, st engine.Status) {
	if s.state != sessOpen {
		return false, "", s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	global = names.IsGlobal(name)
	bare = names.Localize(name)
	if !names.IsLegal(bare) {
		return false, "", s.fail(engine.StatusInvalidName, fmt.Sprintf("invalid variable name %q", name))
	}
	if len(subs) > engine.MaxSubscripts {
		return false, "", s.fail(engine.StatusTooManySubs, fmt.Sprintf("%d subscripts exceeds the maximum of %d", len(subs), engine.MaxSubscripts))
	}
	for i, sub := range subs {
		if len(sub) == 0 && !(allowEmptyLast && i == len(subs)-1) {
			return false, "", s.fail(engine.StatusBadSubscript, fmt.Sprintf("empty subscript at position %d", i+1))
		}
		if len(sub) > engine.MaxStringLen {
			return false, "", s.fail(engine.StatusTooLong, fmt.Sprintf("subscript at position %d exceeds the engine maximum", i+1))
		}
	}
	return global, bare, engine.StatusOK
}

// root returns the top node for a validated reference. With create the node
// is made on demand; otherwise nil is returned for unknown names.
// Callers must hold the environment lock.
func (s *session) root(global bool, bare string, create bool) *node {
	if global {
		d := s.env.dir(s.gbldir)
		n, ok := d.globals[bare]
		if !ok && create {
			n = &node{}
			d.globals[bare] = n
		}
		return n
	}
	n, ok := s.locals[bare]
	if !ok && create {
		n = &node{}
		s.locals[bare] = n
	}
	return n
}

// path converts subscript records to their string form.
func path(subs [][]byte) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = string(s)
	}
	return out
}

// records converts a subscript path back to byte records.
func records(p []string) [][]byte {
	out := make([][]byte, len(p))
	for i, s := range p {
		out[i] = []byte(s)
	}
	return out
}

// --------------------------------------------------------------------------
// Node Operations (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) Data(name string, subs [][]byte) (int, engine.Status) {
	global, bare, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return 0, st
	}
	defer s.acquire()()

	root := s.root(global, bare, false)
	if root == nil {
		return 0, engine.StatusOK
	}
	return dataValue(descend(root, path(subs))), engine.StatusOK
}

func (s *session) Get(name string, subs [][]byte) ([]byte, engine.Status) {
	global, bare, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return nil, st
	}
	defer s.acquire()()

	root := s.root(global, bare, false)
	if root == nil {
		return nil, engine.StatusUndefined
	}
	n := descend(root, path(subs))
	if n == nil || !n.hasValue {
		return nil, engine.StatusUndefined
	}
	return append([]byte(nil), n.value...), engine.StatusOK
}

func (s *session) Set(name string, subs [][]byte, value []byte) engine.Status {
	global, bare, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return st
	}
	if len(value) > engine.MaxStringLen {
		return s.fail(engine.StatusTooLong, "value exceeds the engine maximum")
	}
	defer s.acquire()()

	n := s.root(global, bare, true)
	for _, sub := range path(subs) {
		n = n.children.ensure(sub)
	}
	n.hasValue = true
	n.value = append([]byte(nil), value...)
	return engine.StatusOK
}

func (s *session) Kill(name string, subs [][]byte, nodeOnly bool) engine.Status {
	global, bare, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return st
	}
	defer s.acquire()()

	root := s.root(global, bare, false)
	if root == nil {
		return engine.StatusOK
	}
	if killPath(root, path(subs), nodeOnly) {
		if global {
			delete(s.env.dir(s.gbldir).globals, bare)
		} else {
			delete(s.locals, bare)
		}
	}
	return engine.StatusOK
}

func (s *session) Increment(name string, subs [][]byte, delta []byte) ([]byte, engine.Status) {
	global, bare, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return nil, st
	}
	d, err := strconv.ParseFloat(string(delta), 64)
	if err != nil {
		return nil, s.fail(engine.StatusNotANumber, fmt.Sprintf("increment delta %q is not a number", delta))
	}
	defer s.acquire()()

	n := s.root(global, bare, true)
	for _, sub := range path(subs) {
		n = n.children.ensure(sub)
	}

	// the engine interprets a non-numeric current value as zero
	cur, _ := strconv.ParseFloat(string(n.value), 64)
	n.hasValue = true
	n.value = []byte(canon.FormatNumber(cur + d))
	return append([]byte(nil), n.value...), engine.StatusOK
}

func (s *session) Merge(srcName string, srcSubs [][]byte, dstName string, dstSubs [][]byte) engine.Status {
	srcGlobal, srcBare, st := s.checkRef(srcName, srcSubs, false)
	if st != engine.StatusOK {
		return st
	}
	dstGlobal, dstBare, st := s.checkRef(dstName, dstSubs, false)
	if st != engine.StatusOK {
		return st
	}
	defer s.acquire()()

	srcRoot := s.root(srcGlobal, srcBare, false)
	if srcRoot == nil {
		return engine.StatusOK
	}
	src := descend(srcRoot, path(srcSubs))
	if src == nil {
		return engine.StatusOK
	}

	// clone first: source and destination may overlap
	src = src.clone()

	dst := s.root(dstGlobal, dstBare, true)
	for _, sub := range path(dstSubs) {
		dst = dst.children.ensure(sub)
	}
	mergeInto(dst, src)
	return engine.StatusOK
}

// --------------------------------------------------------------------------
// Iteration (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) Order(name string, subs [][]byte, reverse bool) ([]byte, engine.Status) {
	global, bare, st := s.checkRef(name, subs, true)
	if st != engine.StatusOK {
		return nil, st
	}
	defer s.acquire()()

	// no subscripts: iterate the variable names themselves
	if len(subs) == 0 {
		next := s.orderName(global, bare, reverse)
		return []byte(next), engine.StatusOK
	}

	root := s.root(global, bare, false)
	if root == nil {
		return []byte{}, engine.StatusOK
	}

	p := path(subs)
	parent := descend(root, p[:len(p)-1])
	if parent == nil {
		return []byte{}, engine.StatusOK
	}

	last := p[len(p)-1]
	keys := parent.children.keys
	var next string
	if !reverse {
		var i int
		if last != "" { // empty start bound: begin at the front
			i = parent.children.search(last)
			if i < len(keys) && keys[i] == last {
				i++
			}
		}
		if i < len(keys) {
			next = keys[i]
		}
	} else {
		var i int
		if last == "" {
			i = len(keys) - 1 // empty start bound: begin at the end
		} else {
			i = parent.children.search(last) - 1
		}
		if i >= 0 && i < len(keys) {
			next = keys[i]
		}
	}
	return []byte(next), engine.StatusOK
}

// orderName iterates the directory of global or local names. The given bare
// name is the exclusive bound.
func (s *session) orderName(global bool, bare string, reverse bool) string {
	var all []string
	if global {
		for n := range s.env.dir(s.gbldir).globals {
			all = append(all, n)
		}
	} else {
		for n := range s.locals {
			all = append(all, n)
		}
	}
	sort.Strings(all)

	if !reverse {
		for _, n := range all {
			if n > bare {
				return s.present(global, n)
			}
		}
	} else {
		for i := len(all) - 1; i >= 0; i-- {
			if all[i] < bare {
				return s.present(global, all[i])
			}
		}
	}
	return ""
}

func (s *session) present(global bool, bare string) string {
	if global {
		return names.Globalize(bare)
	}
	return bare
}

func (s *session) Node(name string, subs [][]byte, reverse bool) ([][]byte, engine.Status) {
	global, bare, st := s.checkRef(name, subs, true)
	if st != engine.StatusOK {
		return nil, st
	}
	defer s.acquire()()

	root := s.root(global, bare, false)
	if root == nil {
		return nil, engine.StatusNodeEnd
	}

	bound := path(subs)
	if len(bound) == 1 && bound[0] == "" {
		bound = nil
	}

	var p []string
	if !reverse {
		p = nextAfter(root, bound)
	} else {
		p = prevBefore(root, bound)
	}
	if p == nil {
		return nil, engine.StatusNodeEnd
	}
	return records(p), engine.StatusOK
}

// --------------------------------------------------------------------------
// Locks (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) Lock(name string, subs [][]byte, timeout time.Duration) (bool, engine.Status) {
	_, _, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return false, st
	}

	key := lockKey(name, subs)
	if s.env.locks.acquire(s.owner, key, timeout) {
		return true, engine.StatusOK
	}
	fmt.Fprintf(s.diag, "cedar: lock %q not acquired within %v\n", name, timeout)
	return false, engine.StatusNotAcquired
}

func (s *session) Unlock(name string, subs [][]byte) engine.Status {
	_, _, st := s.checkRef(name, subs, false)
	if st != engine.StatusOK {
		return st
	}
	s.env.locks.release(s.owner, lockKey(name, subs))
	return engine.StatusOK
}

func (s *session) UnlockAll() engine.Status {
	if s.state != sessOpen {
		return s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	s.env.locks.releaseAll(s.owner)
	return engine.StatusOK
}

// --------------------------------------------------------------------------
// Routines (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) Function(routine string, args string, relink bool) ([]byte, engine.Status) {
	if s.state != sessOpen {
		return nil, s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	fn, ok := s.env.routines[routine]
	if !ok {
		return nil, s.fail(engine.StatusNoRoutine, fmt.Sprintf("routine %q not found", routine))
	}
	_ = relink // in-process routines have no link step

	decoded, err := encoding.DecodeCallIn(args)
	if err != nil {
		return nil, s.fail(engine.StatusBadSubscript, fmt.Sprintf("malformed argument stream: %v", err))
	}

	result, err := fn(decoded)
	if err != nil {
		return nil, s.fail(engine.StatusInternalError, fmt.Sprintf("routine %q failed: %v", routine, err))
	}
	return renderResult(result), engine.StatusOK
}

func (s *session) Procedure(routine string, args string, relink bool) engine.Status {
	_, st := s.Function(routine, args, relink)
	return st
}

// renderResult converts a routine's return value to engine text.
func renderResult(v interface{}) []byte {
	switch r := v.(type) {
	case nil:
		return []byte{}
	case []byte:
		return r
	case string:
		return []byte(r)
	default:
		if num, ok := canon.NumberText(v); ok {
			return []byte(num)
		}
		return []byte(fmt.Sprint(v))
	}
}

// --------------------------------------------------------------------------
// Directories and Intrinsics (docu see engine.Engine)
// --------------------------------------------------------------------------

func (s *session) GlobalDirectory(max uint64, lo, hi string) ([]string, engine.Status) {
	if s.state != sessOpen {
		return nil, s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	defer s.acquire()()

	var all []string
	for n := range s.env.dir(s.gbldir).globals {
		all = append(all, n)
	}
	return clampDirectory(all, max, lo, hi), engine.StatusOK
}

func (s *session) LocalDirectory(max uint64, lo, hi string) ([]string, engine.Status) {
	if s.state != sessOpen {
		return nil, s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	defer s.acquire()()

	var all []string
	for n := range s.locals {
		all = append(all, n)
	}
	return clampDirectory(all, max, lo, hi), engine.StatusOK
}

// clampDirectory sorts names and applies the [lo, hi] range and the max cap.
func clampDirectory(all []string, max uint64, lo, hi string) []string {
	sort.Strings(all)
	out := make([]string, 0, len(all))
	for _, n := range all {
		if lo != "" && n < lo {
			continue
		}
		if hi != "" && n > hi {
			break
		}
		out = append(out, n)
		if max > 0 && uint64(len(out)) >= max {
			break
		}
	}
	return out
}

func (s *session) IntrinsicGet(name string) (string, engine.Status) {
	if s.state != sessOpen {
		return "", s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	switch strings.ToLower(name) {
	case engine.ISVGlobalDirectory:
		return s.gbldir, engine.StatusOK
	case "$zversion":
		return s.Version(), engine.StatusOK
	case "$tlevel":
		return strconv.Itoa(s.txDepth), engine.StatusOK
	default:
		return "", s.fail(engine.StatusNoIntrinsic, fmt.Sprintf("unknown intrinsic %q", name))
	}
}

func (s *session) IntrinsicSet(name string, value string) engine.Status {
	if s.state != sessOpen {
		return s.fail(engine.StatusEngineClosed, "engine is closed")
	}
	switch strings.ToLower(name) {
	case engine.ISVGlobalDirectory:
		if value == "" {
			return s.fail(engine.StatusBadSubscript, "empty directory selector")
		}
		s.gbldir = value
		return engine.StatusOK
	default:
		return s.fail(engine.StatusNoIntrinsic, fmt.Sprintf("intrinsic %q is not settable", name))
	}
}
