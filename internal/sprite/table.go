package sprite

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed pokemon_names.tsv
var namesTSV []byte

// Entry maps a Japanese display name to its English name.
type Entry struct {
	Japanese string `json:"japanese"`
	English  string `json:"english"`
}

// Table is the static Japanese -> English name mapping. It is built once
// and never mutated, so it is safe for concurrent use.
type Table struct {
	entries []Entry
	byName  map[string]int
}

// LoadTable parses the embedded name list.
func LoadTable() (*Table, error) {
	return ParseTable(namesTSV)
}

// ParseTable reads tab separated "japanese<TAB>english" lines. Blank lines
// and lines starting with '#' are ignored. Keys are NFC-normalized.
func ParseTable(data []byte) (*Table, error) {
	t := &Table{byName: make(map[string]int)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ja, en, ok := strings.Cut(line, "\t")
		if !ok || ja == "" || en == "" {
			return nil, fmt.Errorf("name table line %d: want 2 tab separated fields", lineNo)
		}
		ja = norm.NFC.String(ja)
		if idx, dup := t.byName[ja]; dup {
			t.entries[idx].English = en
			continue
		}
		t.byName[ja] = len(t.entries)
		t.entries = append(t.entries, Entry{Japanese: ja, English: en})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read name table: %w", err)
	}
	return t, nil
}

// English returns the English name for a Japanese display name.
func (t *Table) English(japanese string) (string, bool) {
	idx, ok := t.byName[norm.NFC.String(japanese)]
	if !ok {
		return "", false
	}
	return t.entries[idx].English, true
}

// Contains reports whether name is a known Japanese display name.
func (t *Table) Contains(japanese string) bool {
	_, ok := t.byName[norm.NFC.String(japanese)]
	return ok
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Search returns up to limit entries whose Japanese or English name starts
// with prefix (case-insensitive), in table order. An empty prefix returns
// the first limit entries. limit <= 0 means no limit.
func (t *Table) Search(prefix string, limit int) []Entry {
	prefix = strings.ToLower(norm.NFC.String(strings.TrimSpace(prefix)))

	var out []Entry
	for _, e := range t.entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if prefix == "" ||
			strings.HasPrefix(strings.ToLower(e.Japanese), prefix) ||
			strings.HasPrefix(strings.ToLower(e.English), prefix) {
			out = append(out, e)
		}
	}
	return out
}
