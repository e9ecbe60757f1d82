package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bastiangx/wordrecall/pkg/history"
	"github.com/charmbracelet/log"
)

// maxLineSize bounds a single word list line.
const maxLineSize = 1 << 20

// ReadWordList parses a plain text word list. Each non-empty line is a word,
// optionally followed by a tab and a positive count. Lines starting with #
// are comments. Surrounding whitespace of the word is trimmed. A word in
// double quotes is unquoted with Go string syntax, which is how
// WriteWordList stores words the plain form cannot hold.
func ReadWordList(r io.Reader) ([]history.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []history.Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		word, count := trimmed, 1
		if i := strings.LastIndexByte(line, '\t'); i >= 0 {
			word = strings.TrimSpace(line[:i])
			n, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: invalid count %q", lineNum, strings.TrimSpace(line[i+1:]))
			}
			count = n
		}
		if strings.HasPrefix(word, `"`) {
			unquoted, err := strconv.Unquote(word)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid quoted word %s", lineNum, word)
			}
			word = unquoted
		}
		if word == "" {
			return nil, fmt.Errorf("line %d: empty word", lineNum)
		}

		records = append(records, history.Record{Word: word, Frequency: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return records, nil
}

// needsQuote reports whether word would read back differently in plain form.
func needsQuote(word string) bool {
	if strings.HasPrefix(word, "#") || strings.HasPrefix(word, `"`) || strings.TrimSpace(word) != word {
		return true
	}
	return strings.ContainsAny(word, "\t\n\r")
}

// WriteWordList writes records in the format ReadWordList accepts. Words
// with line breaks, tabs, a leading # or quote, or surrounding whitespace are
// written quoted.
func WriteWordList(w io.Writer, records []history.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		word := r.Word
		if needsQuote(word) {
			word = strconv.Quote(word)
		}
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", word, r.Frequency); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadFile reads records from a word list, snapshot or SQLite file.
func LoadFile(ctx context.Context, filename string) ([]history.Record, error) {
	format, err := DetectFileFormat(filename)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loading %s as %s", filename, format)

	switch format {
	case FormatText:
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filename, err)
		}
		defer f.Close()
		return ReadWordList(f)
	case FormatSnapshot, FormatSQLite:
		backend := history.BackendFile
		if format == FormatSQLite {
			backend = history.BackendSQLite
		}
		store, err := history.Open(backend, filename)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		records, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := history.Validate(records); err != nil {
			return nil, err
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unsupported format %v", format)
	}
}

// SaveFile writes records to filename in the format chosen by its extension.
func SaveFile(ctx context.Context, filename string, records []history.Record) error {
	switch FormatForPath(filename) {
	case FormatText:
		f, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", filename, err)
		}
		if err := WriteWordList(f, records); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		return f.Close()
	case FormatSnapshot:
		return history.NewFileStore(filename).Save(ctx, records)
	case FormatSQLite:
		store, err := history.OpenSQLite(filename)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Save(ctx, records)
	default:
		return fmt.Errorf("unable to pick an export format for %s", filename)
	}
}
