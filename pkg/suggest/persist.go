package suggest

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
)

// Save encodes the whole history. The word list is snapshotted under the
// read lock and encoded after it is released.
func (p *Provider) Save() ([]byte, error) {
	return history.Encode(p.current().Entries())
}

// Load replaces the history with the snapshot in data. Corrupt data is not
// partially applied: the provider falls back to an empty history and the
// error wraps trie.ErrCorruptData.
func (p *Provider) Load(data []byte) error {
	t, err := history.Decode(data)
	if err != nil {
		p.swap(trie.NewConcurrent())
		log.Warnf("Discarding corrupt history snapshot: %v", err)
		return err
	}
	p.swap(t)
	return nil
}

// Persist writes the history to store. The store I/O runs without holding
// any trie lock, so completions keep working during a slow save.
func (p *Provider) Persist(ctx context.Context, store history.Store) error {
	records := history.FromEntries(p.current().Entries())
	if err := store.Save(ctx, records); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// Restore replaces the history with the records in store. On corrupt
// records the provider falls back to an empty history.
func (p *Provider) Restore(ctx context.Context, store history.Store) error {
	records, err := store.Load(ctx)
	if err != nil {
		if history.IsCorrupt(err) {
			p.swap(trie.NewConcurrent())
			log.Warnf("Discarding corrupt history: %v", err)
		}
		return err
	}

	t, err := history.Rebuild(records)
	if err != nil {
		p.swap(trie.NewConcurrent())
		log.Warnf("Discarding corrupt history: %v", err)
		return err
	}
	p.swap(t)
	log.Debugf("Restored %d history words", t.Len())
	return nil
}

// Import merges records into the current history, adding their counts to
// any existing ones. Records are validated first and nothing is merged if
// one of them is invalid.
func (p *Provider) Import(records []history.Record) (int, error) {
	for i, r := range records {
		if r.Word == "" || r.Frequency < 1 || !utf8.ValidString(r.Word) {
			return 0, fmt.Errorf("%w: record %d (%q, %d)", trie.ErrInvalidInput, i, r.Word, r.Frequency)
		}
	}

	t := p.current()
	for _, r := range records {
		if err := t.Add(r.Word, r.Frequency); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
