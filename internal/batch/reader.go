// Package batch reads phrase files for non-interactive translation.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/voxlate/internal/catalog"
)

// Entry is one phrase of a batch file
type Entry struct {
	Line int    // 1-based line number in the file
	Text string // English text to translate
	// Language is the target as written after '=', empty for the default
	Language string
}

// Target resolves the entry's language, falling back to def when none was
// given
func (e Entry) Target(def catalog.Language) (catalog.Language, error) {
	if e.Language == "" {
		return def, nil
	}
	lang, err := catalog.Parse(e.Language)
	if err != nil {
		return catalog.Language{}, fmt.Errorf("line %d: %w", e.Line, err)
	}
	return lang, nil
}

// ReadBatchFile reads phrases from a file and returns Entry slice
// Supports formats:
// - Text only: "good morning" (translated into the default language)
// - With language: "good morning = Spanish" or "good morning = es"
func ReadBatchFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses batch entries from r. Blank lines and lines starting with
// '#' are skipped. The text is split from the language at the last '='.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := Entry{Line: lineNo, Text: line}
		if i := strings.LastIndex(line, "="); i >= 0 {
			entry.Text = strings.TrimSpace(line[:i])
			entry.Language = strings.TrimSpace(line[i+1:])
		}

		// Ignore lines with an empty text part
		if entry.Text == "" {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return entries, nil
}
