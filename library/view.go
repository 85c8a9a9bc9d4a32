package library

import (
	"fmt"
	"sort"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("invalid sort direction %q (want asc or desc)", s)
}

// ---------------------------------------------------------------------------
// Comparator / filter engine
// ---------------------------------------------------------------------------

// View returns records ordered by key in dir and filtered by a
// case-insensitive substring match of filter against the display name.
// The input slice is not modified. Ties keep their original relative order
// in both directions.
func View[T Record](records []T, key string, dir Direction, filter string) []T {
	cmp := comparator[T](key, dir)

	type indexed struct {
		rec T
		idx int
	}
	rows := make([]indexed, len(records))
	for i, r := range records {
		rows[i] = indexed{rec: r, idx: i}
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := cmp(rows[i].rec, rows[j].rec); c != 0 {
			return c < 0
		}
		return rows[i].idx < rows[j].idx
	})

	blank := strings.TrimSpace(filter) == ""
	needle := strings.ToLower(filter)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if !blank && !strings.Contains(strings.ToLower(row.rec.DisplayName()), needle) {
			continue
		}
		out = append(out, row.rec)
	}
	return out
}

// comparator builds the natural (descending) comparator on key and negates
// it for ascending order.
func comparator[T Record](key string, dir Direction) func(a, b T) int {
	descending := func(a, b T) int {
		av, aok := a.Field(key)
		bv, bok := b.Field(key)
		return -compareValues(av, aok, bv, bok)
	}
	if dir == Desc {
		return descending
	}
	return func(a, b T) int { return -descending(a, b) }
}

// compareValues orders a against b ascending. Missing values are equal to
// each other and sort before present ones. Strings compare case-folded
// first, then raw, so "alice" < "Bob" and "Ann" < "ann".
func compareValues(a any, aok bool, b any, bok bool) int {
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			if c := strings.Compare(strings.ToLower(av), strings.ToLower(bv)); c != 0 {
				return c
			}
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case int:
		if bv, ok := b.(int); ok {
			return compareOrdered(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return compareOrdered(av, bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[N int | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// View state
// ---------------------------------------------------------------------------

// DefaultRowsPerPage matches the first rows-per-page option.
const DefaultRowsPerPage = 5

// RowsPerPageOptions lists the page sizes offered by the listing.
var RowsPerPageOptions = []int{5, 10, 25}

// ViewState is the listing state of one screen. Transitions return a new
// value; the zero value is not useful, start from NewViewState.
type ViewState struct {
	Page        int
	RowsPerPage int
	SortKey     string
	Direction   Direction
	Filter      string
}

// NewViewState returns the initial listing state sorted by sortKey ascending.
func NewViewState(sortKey string) ViewState {
	return ViewState{RowsPerPage: DefaultRowsPerPage, SortKey: sortKey, Direction: Asc}
}

// WithPage moves to page (0-based). Negative pages clamp to 0.
func (v ViewState) WithPage(page int) ViewState {
	if page < 0 {
		page = 0
	}
	v.Page = page
	return v
}

// WithRowsPerPage changes the page size and always returns to the first page.
func (v ViewState) WithRowsPerPage(n int) ViewState {
	if n <= 0 {
		n = DefaultRowsPerPage
	}
	v.RowsPerPage = n
	v.Page = 0
	return v
}

// WithSort sets key and direction explicitly. The page is kept.
func (v ViewState) WithSort(key string, dir Direction) ViewState {
	v.SortKey = key
	v.Direction = dir
	return v
}

// RequestSort behaves like clicking a column header: ascending unless key is
// already sorted ascending, in which case it flips to descending.
func (v ViewState) RequestSort(key string) ViewState {
	if v.SortKey == key && v.Direction == Asc {
		return v.WithSort(key, Desc)
	}
	return v.WithSort(key, Asc)
}

// WithFilter sets the name filter and returns to the first page.
func (v ViewState) WithFilter(filter string) ViewState {
	v.Filter = filter
	v.Page = 0
	return v
}

// PageCount returns how many pages total rows occupy.
func (v ViewState) PageCount(total int) int {
	rows := v.RowsPerPage
	if rows <= 0 {
		rows = DefaultRowsPerPage
	}
	if total == 0 {
		return 0
	}
	return (total + rows - 1) / rows
}

// Paginate returns the slice of records on the current page.
func Paginate[T any](v ViewState, records []T) []T {
	rows := v.RowsPerPage
	if rows <= 0 {
		rows = DefaultRowsPerPage
	}
	start := v.Page * rows
	if start >= len(records) || start < 0 {
		return []T{}
	}
	end := start + rows
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
