package cedar

import (
	"sort"

	"github.com/ValentinKolb/gKV/lib/canon"
)

// --------------------------------------------------------------------------
// Node and Child Map
// --------------------------------------------------------------------------

// node is one level of a global or local tree. A node may carry a value,
// descendants, or both ($DATA 1, 10, 11).
type node struct {
	hasValue bool
	value    []byte
	children childMap
}

// childMap keeps a node's children ordered by the engine's native collation
// (canonical numeric subscripts in numeric order before string subscripts).
// A sorted key slice plus a map gives O(log n) ordered lookups and O(1)
// access, which is plenty for a reference engine.
type childMap struct {
	keys  []string
	nodes map[string]*node
}

// search returns the index of the first key >= k in collation order.
func (c *childMap) search(k string) int {
	return sort.Search(len(c.keys), func(i int) bool {
		return canon.Compare(c.keys[i], k) >= 0
	})
}

// get returns the child for subscript k, or nil.
func (c *childMap) get(k string) *node {
	if c.nodes == nil {
		return nil
	}
	return c.nodes[k]
}

// ensure returns the child for subscript k, creating it if needed.
func (c *childMap) ensure(k string) *node {
	if c.nodes == nil {
		c.nodes = make(map[string]*node)
	}
	if n, ok := c.nodes[k]; ok {
		return n
	}
	n := &node{}
	c.nodes[k] = n
	i := c.search(k)
	c.keys = append(c.keys, "")
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = k
	return n
}

// remove deletes the child for subscript k.
func (c *childMap) remove(k string) {
	if c.nodes == nil {
		return
	}
	if _, ok := c.nodes[k]; !ok {
		return
	}
	delete(c.nodes, k)
	i := c.search(k)
	if i < len(c.keys) && c.keys[i] == k {
		c.keys = append(c.keys[:i], c.keys[i+1:]...)
	}
}

func (c *childMap) empty() bool {
	return len(c.keys) == 0
}

// clone deep-copies the child map (used by transaction snapshots and merge).
func (n *node) clone() *node {
	cp := &node{hasValue: n.hasValue}
	if n.value != nil {
		cp.value = make([]byte, len(n.value))
		copy(cp.value, n.value)
	}
	if len(n.children.keys) > 0 {
		cp.children.keys = append([]string(nil), n.children.keys...)
		cp.children.nodes = make(map[string]*node, len(n.children.nodes))
		for k, child := range n.children.nodes {
			cp.children.nodes[k] = child.clone()
		}
	}
	return cp
}

// --------------------------------------------------------------------------
// Path Navigation
// --------------------------------------------------------------------------

// descend walks the subscript path below root, returning nil as soon as a
// level is missing.
func descend(root *node, path []string) *node {
	n := root
	for _, sub := range path {
		if n = n.children.get(sub); n == nil {
			return nil
		}
	}
	return n
}

// dataValue computes the $DATA result for a node (which may be nil).
func dataValue(n *node) int {
	if n == nil {
		return 0
	}
	d := 0
	if n.hasValue {
		d = 1
	}
	if !n.children.empty() {
		d += 10
	}
	return d
}

// --------------------------------------------------------------------------
// Depth-First Traversal
// --------------------------------------------------------------------------

// nextAfter returns the subscript path of the first valued node strictly
// after the exclusive bound `after` in depth-first pre-order, or nil at the
// end of the tree.
func nextAfter(n *node, after []string) []string {
	if len(after) == 0 {
		return firstValuedBelow(n)
	}

	head, rest := after[0], after[1:]
	i := n.children.search(head)

	if i < len(n.children.keys) && n.children.keys[i] == head {
		if sub := nextAfter(n.children.get(head), rest); sub != nil {
			return append([]string{head}, sub...)
		}
		i++
	}

	for ; i < len(n.children.keys); i++ {
		k := n.children.keys[i]
		if sub := firstValuedFrom(n.children.get(k)); sub != nil {
			return append([]string{k}, sub...)
		}
	}
	return nil
}

// firstValuedFrom returns the pre-order-first valued path within the subtree
// rooted at c, including c itself (empty path), or nil.
func firstValuedFrom(c *node) []string {
	if c.hasValue {
		return []string{}
	}
	return firstValuedBelow(c)
}

// firstValuedBelow returns the pre-order-first valued path strictly below c.
func firstValuedBelow(c *node) []string {
	for _, k := range c.children.keys {
		if sub := firstValuedFrom(c.children.get(k)); sub != nil {
			return append([]string{k}, sub...)
		}
	}
	return nil
}

// prevBefore returns the subscript path of the last valued node strictly
// before the exclusive bound `before` in depth-first pre-order. An empty
// bound means "from beyond the end of the tree".
func prevBefore(n *node, before []string) []string {
	if len(before) == 0 {
		return lastValuedBelow(n)
	}

	head, rest := before[0], before[1:]
	i := n.children.search(head)

	if i < len(n.children.keys) && n.children.keys[i] == head {
		c := n.children.get(head)
		if sub := prevBefore(c, rest); sub != nil {
			return append([]string{head}, sub...)
		}
		// the node itself precedes its descendants in pre-order
		if len(rest) > 0 && c.hasValue {
			return []string{head}
		}
	}
	i--

	for ; i >= 0; i-- {
		k := n.children.keys[i]
		if sub := lastValuedFrom(n.children.get(k)); sub != nil {
			return append([]string{k}, sub...)
		}
	}
	return nil
}

// lastValuedFrom returns the pre-order-last valued path within the subtree
// rooted at c, including c itself, or nil.
func lastValuedFrom(c *node) []string {
	if sub := lastValuedBelow(c); sub != nil {
		return sub
	}
	if c.hasValue {
		return []string{}
	}
	return nil
}

// lastValuedBelow returns the pre-order-last valued path strictly below c.
func lastValuedBelow(c *node) []string {
	for i := len(c.children.keys) - 1; i >= 0; i-- {
		k := c.children.keys[i]
		if sub := lastValuedFrom(c.children.get(k)); sub != nil {
			return append([]string{k}, sub...)
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Subtree Operations
// --------------------------------------------------------------------------

// killPath removes the node at path below root. With nodeOnly only the value
// is cleared; otherwise the whole subtree goes, and empty intermediate levels
// are pruned on the way back up. Returns true when root itself became empty.
func killPath(root *node, path []string, nodeOnly bool) bool {
	if len(path) == 0 {
		if nodeOnly {
			root.hasValue = false
			root.value = nil
		} else {
			*root = node{}
		}
		return !root.hasValue && root.children.empty()
	}

	head, rest := path[0], path[1:]
	child := root.children.get(head)
	if child == nil {
		return !root.hasValue && root.children.empty()
	}

	if killPath(child, rest, nodeOnly) {
		root.children.remove(head)
	}
	return !root.hasValue && root.children.empty()
}

// mergeInto copies src onto dst, overwriting values where both sides define
// one and leaving unrelated dst nodes untouched.
func mergeInto(dst, src *node) {
	if src.hasValue {
		dst.hasValue = true
		dst.value = append([]byte(nil), src.value...)
	}
	for _, k := range src.children.keys {
		mergeInto(dst.children.ensure(k), src.children.get(k))
	}
}
