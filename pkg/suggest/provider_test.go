package suggest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/bastiangx/wordrecall/pkg/trie"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func record(t *testing.T, p *Provider, counts map[string]int) {
	t.Helper()
	for w, n := range counts {
		for i := 0; i < n; i++ {
			require.NoError(t, p.RecordSubmission(w))
		}
	}
}

func TestSuggestFollowsStyle(t *testing.T) {
	p := NewProvider()
	record(t, p, map[string]int{"car": 1, "cart": 2, "cat": 3})

	assert.Equal(t, trie.Lexicographical, p.Style())
	assert.Equal(t, []string{"car", "cart", "cat"}, p.Suggest("ca"))

	p.SetStyle(trie.Frequency)
	assert.Equal(t, []string{"cat", "cart", "car"}, p.Suggest("ca"))

	// explicit per-call style ignores the configured one
	entries := p.Complete("ca", trie.Lexicographical, 1)
	assert.Equal(t, []trie.Entry{{Word: "car", Frequency: 1}}, entries)
}

func TestSuggestLimit(t *testing.T) {
	p := NewProvider(WithStyle(trie.Frequency), WithLimit(2))
	record(t, p, map[string]int{"a": 1, "ab": 2, "abc": 3})

	assert.Equal(t, []string{"abc", "ab"}, p.Suggest("a"))

	p.SetLimit(0)
	assert.Len(t, p.Suggest("a"), 3)
}

func TestRecordSubmissionRejectsEmpty(t *testing.T) {
	p := NewProvider()
	require.NoError(t, p.RecordSubmission("a"))

	for _, text := range []string{"", "   ", "\t\n"} {
		err := p.RecordSubmission(text)
		assert.ErrorIs(t, err, trie.ErrInvalidInput)
	}

	assert.False(t, p.Contains(""))
	assert.Equal(t, []string{"a"}, p.Suggest(""))
	stats := p.Stats()
	assert.Equal(t, 1, stats["submissions"])
	assert.Equal(t, 3, stats["rejected"])
}

func TestRecordSubmissionRejectsInvalidUTF8(t *testing.T) {
	p := NewProvider()
	require.ErrorIs(t, p.RecordSubmission("\xff"), trie.ErrInvalidInput)
	require.ErrorIs(t, p.RecordSubmission(" \xfe "), trie.ErrInvalidInput)

	assert.Empty(t, p.Suggest(""))
	assert.Equal(t, 2, p.Stats()["rejected"])

	_, err := p.Import([]history.Record{{Word: "fine", Frequency: 1}, {Word: "\xff", Frequency: 1}})
	require.ErrorIs(t, err, trie.ErrInvalidInput)
	assert.False(t, p.Contains("fine"))
}

// Submissions are matched case-sensitively after trimming surrounding
// whitespace; no other normalization happens.
func TestRecordSubmissionNormalization(t *testing.T) {
	p := NewProvider(WithStyle(trie.Frequency))
	require.NoError(t, p.RecordSubmission("  Go  "))
	require.NoError(t, p.RecordSubmission("Go"))
	require.NoError(t, p.RecordSubmission("go"))
	require.NoError(t, p.RecordSubmission("go lang"))

	freq, ok := p.Trie().Frequency("Go")
	require.True(t, ok)
	assert.Equal(t, 2, freq)
	assert.Equal(t, []string{"Go"}, p.Suggest("G"))
	assert.Equal(t, []string{"go", "go lang"}, p.Suggest("go"))
}

func TestRefreshAndSelect(t *testing.T) {
	p := NewProvider()
	record(t, p, map[string]int{"car": 1, "cat": 1})

	var shown []string
	var shownFor string
	picker := PickerFunc(func(prefix string, candidates []string) {
		shownFor = prefix
		shown = candidates
	})

	got := p.Refresh("ca", picker)
	assert.Equal(t, "ca", shownFor)
	assert.Equal(t, []string{"car", "cat"}, shown)
	assert.Equal(t, shown, got)

	require.NoError(t, p.Select("cat"))
	p.SetStyle(trie.Frequency)
	assert.Equal(t, []string{"cat", "car"}, p.Refresh("ca", nil))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	original := NewProvider(WithStyle(trie.Frequency))
	record(t, original, map[string]int{"cat": 1, "car": 3})

	data, err := original.Save()
	require.NoError(t, err)

	restored := NewProvider(WithStyle(trie.Frequency))
	require.NoError(t, restored.Load(data))

	assert.Equal(t, []string{"car", "cat"}, original.Suggest(""))
	assert.Equal(t, []string{"car", "cat"}, restored.Suggest(""))
	for _, style := range []trie.Style{trie.Lexicographical, trie.Frequency} {
		assert.Equal(t, original.Complete("", style, 0), restored.Complete("", style, 0))
	}
}

func TestLoadCorruptFallsBackToEmpty(t *testing.T) {
	p := NewProvider()
	record(t, p, map[string]int{"keep": 1})

	bad, err := history.EncodeRecords([]history.Record{{Word: "car", Frequency: -1}})
	require.NoError(t, err)

	err = p.Load(bad)
	require.ErrorIs(t, err, trie.ErrCorruptData)
	assert.Empty(t, p.Suggest(""))
	assert.True(t, p.Trie().Empty())

	// still usable afterwards
	require.NoError(t, p.RecordSubmission("fresh"))
	assert.Equal(t, []string{"fresh"}, p.Suggest("f"))
}

func TestPersistRestore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	stores := map[string]history.Store{}
	fileStore := history.NewFileStore(filepath.Join(dir, "history.msgpack"))
	stores["file"] = fileStore
	sqliteStore, err := history.OpenSQLite(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer sqliteStore.Close()
	stores["sqlite"] = sqliteStore

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			p := NewProvider(WithStyle(trie.Frequency))
			record(t, p, map[string]int{"alpha": 2, "alpine": 5, "beta": 1})
			require.NoError(t, p.Persist(ctx, store))

			q := NewProvider(WithStyle(trie.Frequency))
			require.NoError(t, q.Restore(ctx, store))
			assert.Equal(t, p.Suggest("al"), q.Suggest("al"))
			assert.Equal(t, p.Suggest(""), q.Suggest(""))
		})
	}
}

func TestRestoreCorruptStore(t *testing.T) {
	ctx := context.Background()
	store, err := history.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, []history.Record{{Word: "ok", Frequency: 1}, {Word: "bad", Frequency: 0}}))

	p := NewProvider()
	record(t, p, map[string]int{"old": 1})
	err = p.Restore(ctx, store)
	require.ErrorIs(t, err, trie.ErrCorruptData)
	assert.True(t, p.Trie().Empty())
}

func TestImportMerges(t *testing.T) {
	p := NewProvider(WithStyle(trie.Frequency))
	record(t, p, map[string]int{"car": 1})

	n, err := p.Import([]history.Record{{Word: "car", Frequency: 2}, {Word: "cat", Frequency: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []trie.Entry{{Word: "car", Frequency: 3}, {Word: "cat", Frequency: 2}}, p.SuggestEntries("ca"))

	_, err = p.Import([]history.Record{{Word: "dog", Frequency: 1}, {Word: "", Frequency: 1}})
	assert.ErrorIs(t, err, trie.ErrInvalidInput)
	assert.False(t, p.Contains("dog"), "invalid import must not merge anything")
}

func TestSaveDuringSubmissions(t *testing.T) {
	p := NewProvider()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = p.RecordSubmission("word")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			data, err := p.Save()
			if err != nil {
				t.Errorf("save failed: %v", err)
				return
			}
			if _, err := history.Decode(data); err != nil {
				t.Errorf("snapshot does not decode: %v", err)
				return
			}
			p.Suggest("w")
		}
	}()
	wg.Wait()

	freq, ok := p.Trie().Frequency("word")
	require.True(t, ok)
	assert.Equal(t, 1000, freq)
}
