/*
Package history persists WordRecall completion histories.

A history is a flat list of (word, frequency) records. Order inside the list
carries no meaning: rebuilding restores each frequency directly, so any
permutation of the same records produces a trie with identical completions.

The snapshot wire format is msgpack:

	{"v": 1, "r": [{"w": "car", "f": 3}, {"w": "cat", "f": 1}]}

Stores move records to and from disk. FileStore keeps one msgpack snapshot
per history; SQLiteStore keeps one row per word.
*/
package history

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is written into every encoded snapshot.
const SnapshotVersion = 1

// Record is a single persisted word.
type Record struct {
	Word      string `msgpack:"w"`
	Frequency int    `msgpack:"f"`
}

// Snapshot is the encoded form of a whole history.
type Snapshot struct {
	Version int      `msgpack:"v"`
	Records []Record `msgpack:"r"`
}

// FromEntries converts trie entries into records.
func FromEntries(entries []trie.Entry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Word: e.Word, Frequency: e.Frequency}
	}
	return records
}

// Encode serializes entries into a msgpack snapshot.
func Encode(entries []trie.Entry) ([]byte, error) {
	return EncodeRecords(FromEntries(entries))
}

// EncodeRecords serializes records into a msgpack snapshot.
func EncodeRecords(records []Record) ([]byte, error) {
	data, err := msgpack.Marshal(Snapshot{Version: SnapshotVersion, Records: records})
	if err != nil {
		return nil, fmt.Errorf("encoding history snapshot: %w", err)
	}
	return data, nil
}

// DecodeRecords parses a snapshot without validating its records. An empty
// input is an empty history.
func DecodeRecords(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", trie.ErrCorruptData, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", trie.ErrCorruptData, snap.Version)
	}
	return snap.Records, nil
}

// Decode parses and validates a snapshot and rebuilds its trie.
func Decode(data []byte) (*trie.StringTrie, error) {
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	return Rebuild(records)
}

// Rebuild validates records and restores them into a new concurrent trie.
// Nothing is applied unless every record is valid. Repeated words are
// accepted only when they carry the same frequency.
func Rebuild(records []Record) (*trie.StringTrie, error) {
	if err := Validate(records); err != nil {
		return nil, err
	}

	t := trie.NewConcurrent()
	for _, r := range records {
		if err := t.Restore(r.Word, r.Frequency); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Validate checks records for empty or non UTF-8 words, non-positive
// frequencies and conflicting duplicates.
func Validate(records []Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.Word == "" {
			return fmt.Errorf("%w: record %d has an empty word", trie.ErrCorruptData, i)
		}
		if !utf8.ValidString(r.Word) {
			return fmt.Errorf("%w: record %d (%q) is not valid UTF-8", trie.ErrCorruptData, i, r.Word)
		}
		if r.Frequency < 1 {
			return fmt.Errorf("%w: record %d (%q) has frequency %d", trie.ErrCorruptData, i, r.Word, r.Frequency)
		}
		if prev, ok := seen[r.Word]; ok && prev != r.Frequency {
			return fmt.Errorf("%w: word %q listed with frequencies %d and %d",
				trie.ErrCorruptData, r.Word, prev, r.Frequency)
		}
		seen[r.Word] = r.Frequency
	}
	return nil
}

// IsCorrupt reports whether err came from invalid history data.
func IsCorrupt(err error) bool {
	return errors.Is(err, trie.ErrCorruptData)
}
