package logic

import (
	"fmt"
	"sort"
	"strings"
)

type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortState struct {
	Column    string        `json:"column,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// NextSort is the header-click cycle: asc, then desc, then unsorted.
// Clicking a different column starts that column at asc.
func NextSort(cur SortState, column string) SortState {
	if cur.Column != column {
		return SortState{Column: column, Direction: SortAsc}
	}
	switch cur.Direction {
	case SortAsc:
		return SortState{Column: column, Direction: SortDesc}
	case SortDesc:
		return SortState{}
	default:
		return SortState{Column: column, Direction: SortAsc}
	}
}

// ParseSort reads "column" or "column:asc|desc". An empty string is
// unsorted.
func ParseSort(s string) (SortState, error) {
	if s == "" {
		return SortState{}, nil
	}
	col, dir, hasDir := strings.Cut(s, ":")
	if !hasDir {
		return SortState{Column: col, Direction: SortAsc}, nil
	}
	switch SortDirection(dir) {
	case SortAsc, SortDesc:
		return SortState{Column: col, Direction: SortDirection(dir)}, nil
	case SortNone, "none":
		return SortState{}, nil
	}
	return SortState{}, fmt.Errorf("invalid sort direction %q", dir)
}

// Compare orders two rows for one column: negative, zero or positive.
type Compare[T any] func(a, b T) int

// Table is a client-style data table: a fixed row set with one sortable
// column at a time and a name-prefix filter.
type Table[T any] struct {
	rows    []T
	name    func(T) string
	columns map[string]Compare[T]
	sort    SortState
}

// NewTable builds a table. name extracts the column the filter matches.
func NewTable[T any](rows []T, name func(T) string, columns map[string]Compare[T]) *Table[T] {
	return &Table[T]{rows: rows, name: name, columns: columns}
}

func (t *Table[T]) Sort() SortState {
	return t.sort
}

// Columns lists the sortable column names in name order.
func (t *Table[T]) Columns() []string {
	out := make([]string, 0, len(t.columns))
	for c := range t.columns {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ToggleSort advances the sort cycle for column.
func (t *Table[T]) ToggleSort(column string) error {
	if _, ok := t.columns[column]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	t.sort = NextSort(t.sort, column)
	return nil
}

// SetSort applies a sort state directly. Unknown columns leave the table
// unsorted.
func (t *Table[T]) SetSort(s SortState) bool {
	if s.Direction == SortNone {
		t.sort = SortState{}
		return true
	}
	if _, ok := t.columns[s.Column]; !ok {
		t.sort = SortState{}
		return false
	}
	t.sort = s
	return true
}

// Filter returns the rows whose name starts with prefix, case-insensitive.
// An empty prefix returns every row in original order.
func (t *Table[T]) Filter(prefix string) []T {
	if prefix == "" {
		out := make([]T, len(t.rows))
		copy(out, t.rows)
		return out
	}
	prefix = strings.ToLower(prefix)
	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if strings.HasPrefix(strings.ToLower(t.name(r)), prefix) {
			out = append(out, r)
		}
	}
	return out
}

// Rows applies the filter, then the current sort. Sorting is stable so
// ties keep backend order.
func (t *Table[T]) Rows(prefix string) []T {
	out := t.Filter(prefix)
	cmp, ok := t.columns[t.sort.Column]
	if !ok || t.sort.Direction == SortNone {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if t.sort.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	return compareFloat(float64(a), float64(b))
}
