package suggest

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
)

// Provider wraps one history trie with a configured completion style.
// It is safe for concurrent use.
type Provider struct {
	mu    sync.RWMutex
	trie  *trie.StringTrie
	style trie.Style
	limit int

	submissions atomic.Int64
	rejected    atomic.Int64
}

// Option configures a Provider.
type Option func(*Provider)

// WithStyle sets the initial completion style.
func WithStyle(style trie.Style) Option {
	return func(p *Provider) {
		p.style = style
	}
}

// WithLimit bounds Suggest results. Zero means unbounded.
func WithLimit(limit int) Option {
	return func(p *Provider) {
		if limit < 0 {
			limit = 0
		}
		p.limit = limit
	}
}

// NewProvider returns a provider with an empty history.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		trie:  trie.NewConcurrent(),
		style: trie.Lexicographical,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// current returns the live trie. Load may swap it.
func (p *Provider) current() *trie.StringTrie {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trie
}

// swap replaces the live trie.
func (p *Provider) swap(t *trie.StringTrie) {
	p.mu.Lock()
	p.trie = t
	p.mu.Unlock()
}

// Trie returns the live history trie.
func (p *Provider) Trie() *trie.StringTrie {
	return p.current()
}

// Style returns the configured completion style.
func (p *Provider) Style() trie.Style {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.style
}

// SetStyle changes the style used by subsequent Suggest calls.
func (p *Provider) SetStyle(style trie.Style) {
	p.mu.Lock()
	p.style = style
	p.mu.Unlock()
	log.Debugf("Completion style set to %s", style)
}

// Limit returns the Suggest result bound.
func (p *Provider) Limit() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.limit
}

// SetLimit changes the Suggest result bound. Zero means unbounded.
func (p *Provider) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	p.mu.Lock()
	p.limit = limit
	p.mu.Unlock()
}

// RecordSubmission stores text as a finished input. Surrounding whitespace
// is trimmed; case is kept, so "Go" and "go" are different words. Text that
// is empty after trimming is rejected with trie.ErrInvalidInput and leaves
// the history untouched.
func (p *Provider) RecordSubmission(text string) error {
	word := strings.TrimSpace(text)
	if word == "" {
		p.rejected.Add(1)
		log.Debug("Rejected empty submission")
		return trie.ErrInvalidInput
	}

	if err := p.current().Insert(word); err != nil {
		p.rejected.Add(1)
		return err
	}
	p.submissions.Add(1)
	return nil
}

// Select records a candidate the user picked.
func (p *Provider) Select(word string) error {
	return p.RecordSubmission(word)
}

// Suggest returns candidate words for prefix in the configured style.
func (p *Provider) Suggest(prefix string) []string {
	entries := p.SuggestEntries(prefix)
	words := make([]string, len(entries))
	for i, e := range entries {
		words[i] = e.Word
	}
	return words
}

// SuggestEntries is Suggest with frequencies kept.
func (p *Provider) SuggestEntries(prefix string) []trie.Entry {
	p.mu.RLock()
	t, style, limit := p.trie, p.style, p.limit
	p.mu.RUnlock()

	return t.CompleteN(prefix, style, limit)
}

// Complete queries with an explicit style and limit, ignoring the configured
// ones.
func (p *Provider) Complete(prefix string, style trie.Style, limit int) []trie.Entry {
	return p.current().CompleteN(prefix, style, limit)
}

// Refresh computes suggestions for prefix and hands them to picker.
func (p *Provider) Refresh(prefix string, picker Picker) []string {
	candidates := p.Suggest(prefix)
	if picker != nil {
		picker.ShowCandidates(prefix, candidates)
	}
	return candidates
}

// Contains reports whether word is in the history.
func (p *Provider) Contains(word string) bool {
	return p.current().Contains(word)
}

// Stats returns counters about the history.
func (p *Provider) Stats() map[string]int {
	t := p.current()
	return map[string]int{
		"words":       t.Len(),
		"nodes":       t.Nodes(),
		"submissions": int(p.submissions.Load()),
		"rejected":    int(p.rejected.Load()),
		"style":       int(p.Style()),
	}
}
