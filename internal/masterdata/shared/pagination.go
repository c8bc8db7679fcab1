package shared

import (
	"fmt"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
}

// Normalize applies paging defaults and checks the sort against sortable,
// the columns a list may be ordered by. An empty sort picks sortable[0].
func (f ListFilters) Normalize(sortable ...string) (ListFilters, error) {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Search = strings.TrimSpace(f.Search)

	f.SortDir = strings.ToLower(strings.TrimSpace(f.SortDir))
	switch f.SortDir {
	case "":
		f.SortDir = SortAsc
	case SortAsc, SortDesc:
	default:
		return f, fmt.Errorf("%w: sort direction must be %s or %s", ErrValidation, SortAsc, SortDesc)
	}

	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if f.SortBy == "" && len(sortable) > 0 {
		f.SortBy = sortable[0]
		return f, nil
	}
	for _, col := range sortable {
		if f.SortBy == col {
			return f, nil
		}
	}
	return f, fmt.Errorf("%w: cannot sort by %q", ErrValidation, f.SortBy)
}

// Offset returns the row offset of the page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
