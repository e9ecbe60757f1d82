/*
Package trie implements the prefix trie behind WordRecall's history completions.

Every submitted string is stored as a path of rune-keyed nodes starting at an
empty root. The node where a word ends is marked terminal and counts how many
times that exact word was inserted. Completion descends along the prefix and
collects every terminal node below it.

Two orderings are supported:

	Lexicographical  ascending by rune order of the full word
	Frequency        descending by insert count, ties in lexicographical order

The lexicographical order falls out of the depth-first walk because edges are
kept sorted. Frequency order is a stable sort on top of that walk, which is what
makes the tie-break deterministic.

A trie built with New is not synchronized and is meant for single goroutine use
(the usual case for an input widget). NewConcurrent guards the whole trie with a
reader-writer lock: Insert, Add and Restore take the write side, every query takes
the read side.
*/
package trie

import (
	"errors"
	"sort"
	"sync"
	"unicode/utf8"
)

var (
	// ErrInvalidInput is returned for empty or non UTF-8 words and non-positive counts.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCorruptData is returned when persisted history cannot be rebuilt.
	ErrCorruptData = errors.New("corrupt history data")
)

// Entry is a completed word together with its insert count.
type Entry struct {
	Word      string
	Frequency int
}

// rwLocker is satisfied by *sync.RWMutex and nopLocker.
type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type nopLocker struct{}

func (nopLocker) Lock()    {}
func (nopLocker) Unlock()  {}
func (nopLocker) RLock()   {}
func (nopLocker) RUnlock() {}

// StringTrie owns the root node and answers prefix completion queries.
type StringTrie struct {
	root  *Node
	words int
	nodes int
	mu    rwLocker
}

// New returns an empty, unsynchronized trie.
func New() *StringTrie {
	return &StringTrie{root: &Node{}, mu: nopLocker{}}
}

// NewConcurrent returns an empty trie that is safe for concurrent use.
func NewConcurrent() *StringTrie {
	return &StringTrie{root: &Node{}, mu: &sync.RWMutex{}}
}

// Insert adds one occurrence of word, creating missing nodes along its path.
func (t *StringTrie) Insert(word string) error {
	return t.Add(word, 1)
}

// Add records n occurrences of word at once. It is how imported word lists
// merge into an existing history.
func (t *StringTrie) Add(word string, n int) error {
	if word == "" || n < 1 || !utf8.ValidString(word) {
		return ErrInvalidInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.grow(word)
	if !node.terminal {
		node.terminal = true
		t.words++
	}
	node.frequency += n
	return nil
}

// Restore sets the frequency of word directly. It is used when rebuilding a
// trie from a snapshot, where the count is already known.
func (t *StringTrie) Restore(word string, frequency int) error {
	if word == "" || frequency < 1 || !utf8.ValidString(word) {
		return ErrCorruptData
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.grow(word)
	if !node.terminal {
		node.terminal = true
		t.words++
	}
	node.frequency = frequency
	return nil
}

// grow walks word from the root, creating nodes as needed. Callers hold the
// write lock.
func (t *StringTrie) grow(word string) *Node {
	node := t.root
	for _, c := range word {
		child, created := node.childOrCreate(c)
		if created {
			t.nodes++
		}
		node = child
	}
	return node
}

// find returns the node for s or nil. Callers hold at least the read lock.
func (t *StringTrie) find(s string) *Node {
	node := t.root
	for _, c := range s {
		node = node.child(c)
		if node == nil {
			return nil
		}
	}
	return node
}

// Contains reports whether word was inserted at least once.
func (t *StringTrie) Contains(word string) bool {
	_, ok := t.Frequency(word)
	return ok
}

// Frequency returns the insert count of word and whether it exists.
func (t *StringTrie) Frequency(word string) (int, bool) {
	if word == "" {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.find(word)
	if node == nil || !node.terminal {
		return 0, false
	}
	return node.frequency, true
}

// Len returns the number of distinct words.
func (t *StringTrie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.words
}

// Nodes returns the number of nodes below the root.
func (t *StringTrie) Nodes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes
}

// Empty reports whether nothing was inserted yet.
func (t *StringTrie) Empty() bool {
	return t.Len() == 0
}

// Complete returns every word starting with prefix, ordered by style.
// A prefix that is not in the trie yields an empty result.
func (t *StringTrie) Complete(prefix string, style Style) []Entry {
	return t.CompleteN(prefix, style, 0)
}

// CompleteN is Complete with an upper bound on the result size. A limit of
// zero or less means no bound. The limit is applied after ordering.
func (t *StringTrie) CompleteN(prefix string, style Style, limit int) []Entry {
	t.mu.RLock()
	results := t.collect(prefix)
	t.mu.RUnlock()

	if style == Frequency {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Frequency > results[j].Frequency
		})
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Entries returns a snapshot of all words in lexicographical order.
func (t *StringTrie) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.collect("")
}

// Walk calls fn for every word starting with prefix, in lexicographical
// order, until fn returns false. fn must not modify the trie.
func (t *StringTrie) Walk(prefix string, fn func(Entry) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	start := t.find(prefix)
	if start == nil {
		return
	}
	walk(start, []rune(prefix), fn)
}

// collect gathers the subtree of prefix. Callers hold the read lock.
func (t *StringTrie) collect(prefix string) []Entry {
	results := []Entry{}

	start := t.find(prefix)
	if start == nil {
		return results
	}

	walk(start, []rune(prefix), func(e Entry) bool {
		results = append(results, e)
		return true
	})
	return results
}

// walk visits terminal nodes depth-first, children in rune order. It returns
// false once fn asked to stop.
func walk(node *Node, path []rune, fn func(Entry) bool) bool {
	if node.terminal {
		if !fn(Entry{Word: string(path), Frequency: node.frequency}) {
			return false
		}
	}
	for _, e := range node.edges {
		if !walk(e.node, append(path, e.char), fn) {
			return false
		}
	}
	return true
}
