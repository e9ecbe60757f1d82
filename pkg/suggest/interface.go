// Package suggest is the surface an input widget talks to: it records submitted text and turns prefixes into ordered candidate lists.
package suggest

import "github.com/bastiangx/wordrecall/pkg/trie"

// ICompleter is what the server and CLI front ends need from a provider.
type ICompleter interface {
	// RecordSubmission stores the final text of an edit
	RecordSubmission(text string) error

	// Suggest returns candidate words for prefix in the configured style
	Suggest(prefix string) []string

	// Complete returns entries for prefix with an explicit style and limit
	Complete(prefix string, style trie.Style, limit int) []trie.Entry

	// Style and SetStyle read and change the configured ordering
	Style() trie.Style
	SetStyle(style trie.Style)

	// Stats returns counters about the history
	Stats() map[string]int
}

// Picker displays candidates. Selecting a candidate is reported back through
// Provider.Select; how the picker renders or replaces field text is up to it.
type Picker interface {
	ShowCandidates(prefix string, candidates []string)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(prefix string, candidates []string)

// ShowCandidates calls f.
func (f PickerFunc) ShowCandidates(prefix string, candidates []string) {
	f(prefix, candidates)
}
