package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func TestCreateRankList(t *testing.T) {
	assert.Empty(t, CreateRankList(0))
	assert.Empty(t, CreateRankList(-3))
	assert.Equal(t, []uint16{1, 2, 3}, CreateRankList(3))

	ranks := CreateRankList(math.MaxUint16 + 5)
	assert.Equal(t, uint16(math.MaxUint16-1), ranks[math.MaxUint16-2])
	assert.Equal(t, uint16(math.MaxUint16), ranks[len(ranks)-1])
}

func TestFormatWithCommas(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-9876543: "-9,876,543",
	}
	for n, want := range tests {
		assert.Equal(t, want, FormatWithCommas(n))
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "data.bin")

	require.NoError(t, WriteFileAtomic(path, []byte("one")))
	require.NoError(t, WriteFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestTOMLRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, SaveTOMLFile(map[string]any{
		"section": map[string]any{"count": 7, "name": "x"},
	}, path))

	tree, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	section, ok := ExtractSection(tree, "section")
	require.True(t, ok)

	count, ok := ExtractInt64(section, "count")
	assert.True(t, ok)
	assert.Equal(t, 7, count)
	name, ok := ExtractString(section, "name")
	assert.True(t, ok)
	assert.Equal(t, "x", name)

	_, ok = ExtractString(section, "count")
	assert.False(t, ok)
	_, ok = ExtractSection(tree, "missing")
	assert.False(t, ok)
}

func TestCheckDirStatus(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	result := CheckDirStatus(dir)
	assert.True(t, result.Exists)
	assert.True(t, result.Writable)
	assert.NoError(t, result.Error)

	assert.Equal(t, "unknown", GetAbsolutePath(""))
	assert.True(t, filepath.IsAbs(GetAbsolutePath("rel/path")))
}
