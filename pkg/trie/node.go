package trie

import "sort"

// edge links a parent to the child reached by consuming char.
type edge struct {
	char rune
	node *Node
}

// Node is a single character-keyed trie node. A node owns its children
// exclusively; edges are kept sorted by rune so a depth-first walk yields
// words in lexicographical order without a separate sort.
type Node struct {
	edges     []edge
	terminal  bool
	frequency int
}

// Terminal reports whether some inserted word ends at this node.
func (n *Node) Terminal() bool {
	return n.terminal
}

// Frequency returns how many times the word ending here was inserted.
// It is zero for non-terminal nodes.
func (n *Node) Frequency() int {
	return n.frequency
}

// search returns the index where c is, or would be, stored.
func (n *Node) search(c rune) int {
	return sort.Search(len(n.edges), func(i int) bool {
		return n.edges[i].char >= c
	})
}

// child returns the node reached through c, or nil when the edge is absent.
func (n *Node) child(c rune) *Node {
	i := n.search(c)
	if i < len(n.edges) && n.edges[i].char == c {
		return n.edges[i].node
	}
	return nil
}

// childOrCreate returns the child for c, creating it when missing.
// created is true when a new node was allocated.
func (n *Node) childOrCreate(c rune) (child *Node, created bool) {
	i := n.search(c)
	if i < len(n.edges) && n.edges[i].char == c {
		return n.edges[i].node, false
	}

	child = &Node{}
	n.edges = append(n.edges, edge{})
	copy(n.edges[i+1:], n.edges[i:])
	n.edges[i] = edge{char: c, node: child}
	return child, true
}
