package driver

// --------------------------------------------------------------------------
// Reply Envelope
// --------------------------------------------------------------------------

// Reply is the uniform result envelope of every driver operation. Only the
// fields relevant to the operation are populated; soft outcomes (an undefined
// node, an exhausted traversal, a lock timeout) come back as a Reply with
// Defined or Acquired false, never as an error.
type Reply struct {
	// OK is true unless the operation failed (in which case the error return
	// carries the detail).
	OK bool

	// Name is the normalized variable name the operation addressed.
	Name string

	// Subscripts echoes the addressed subscripts. Traversal operations
	// overwrite it with the subscripts of the node they landed on.
	Subscripts []interface{}

	// Data is the node classification (0, 1, 10 or 11).
	Data int

	// Defined is false when a lookup addressed a valueless node or a
	// traversal ran off the end of the tree.
	Defined bool

	// Value is the surfaced node value (Get, Increment, NextNode,
	// PreviousNode) or routine result (Function).
	Value interface{}

	// Result is the surfaced traversal result (Order, Previous).
	Result interface{}

	// Acquired is true when a lock request got the resource in time.
	Acquired bool
}
