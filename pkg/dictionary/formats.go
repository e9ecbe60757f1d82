// Package dictionary reads word lists and history files that can be imported into a history.
package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the file formats accepted by import and export
type FileFormat int

const (
	FormatUnknown  FileFormat = iota
	FormatText                // one word per line, optional tab separated count
	FormatSnapshot            // msgpack history snapshot
	FormatSQLite              // SQLite history database
)

// FormatInfo contains metadata about a file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatText: {
		Format:      FormatText,
		Description: "Plain Text Word List",
		Extensions:  []string{".txt", ".list"},
		MinSize:     0,
	},
	FormatSnapshot: {
		Format:      FormatSnapshot,
		Description: "Msgpack History Snapshot",
		Extensions:  []string{".msgpack", ".bin"},
		MinSize:     1,
	},
	FormatSQLite: {
		Format:      FormatSQLite,
		Description: "SQLite History Database",
		Extensions:  []string{".db", ".sqlite", ".sqlite3"},
		MinSize:     0,
	},
}

// String returns the format description
func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// FormatForPath picks the format from the file extension alone
func FormatForPath(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		for _, candidate := range info.Extensions {
			if ext == candidate {
				return format
			}
		}
	}
	return FormatUnknown
}

// DetectFileFormat picks the format from the extension and checks that the
// file is large enough to hold it
func DetectFileFormat(filename string) (FileFormat, error) {
	format := FormatForPath(filename)
	if format == FormatUnknown {
		return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
	}
	if err := ValidateFileFormat(filename, format); err != nil {
		return FormatUnknown, err
	}
	return format, nil
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	log.Debugf("File %s validated as %s", filename, formatInfo.Description)
	return nil
}
