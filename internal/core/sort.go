// Package core provides filtering, sorting, and lookup logic over listing items.
package core

import (
	"sort"
	"strings"

	"github.com/archcrafter/loom/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByName     SortField = "name"
	SortByModified SortField = "modified"
	SortBySize     SortField = "size"
	SortByKind     SortField = "kind"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (A-Z by title).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByName,
		Order: SortAsc,
	}
}

// Wallpaper sort modes as stored in settings.
const (
	ModeNameAsc  = "name_asc"
	ModeNameDesc = "name_desc"
	ModeNewest   = "newest"
	ModeOldest   = "oldest"
)

// SortModes lists the valid wallpaper sort modes.
var SortModes = []string{ModeNameAsc, ModeNameDesc, ModeNewest, ModeOldest}

// SortOptionsForMode maps a stored sort mode to SortOptions.
// Unknown modes sort by name ascending.
func SortOptionsForMode(mode string) SortOptions {
	switch mode {
	case ModeNameDesc:
		return SortOptions{Field: SortByName, Order: SortDesc}
	case ModeNewest:
		return SortOptions{Field: SortByModified, Order: SortDesc}
	case ModeOldest:
		return SortOptions{Field: SortByModified, Order: SortAsc}
	default:
		return DefaultSortOptions()
	}
}

// Sort sorts items in place. Ties fall back to the lowercase title, A-Z.
func Sort(items []model.Item, opts SortOptions) {
	if len(items) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		var cmp int

		switch opts.Field {
		case SortByModified:
			cmp = compareInt(a.ModTime, b.ModTime)
		case SortBySize:
			cmp = compareInt(a.Size, b.Size)
		case SortByKind:
			cmp = strings.Compare(a.Kind, b.Kind)
		default:
			cmp = strings.Compare(strings.ToLower(a.Title()), strings.ToLower(b.Title()))
		}

		if cmp == 0 {
			return strings.ToLower(a.Title()) < strings.ToLower(b.Title())
		}
		if opts.Order == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modified", "mtime", "time", "m":
		return SortByModified, nil
	case "size", "s":
		return SortBySize, nil
	case "kind", "k":
		return SortByKind, nil
	default:
		return SortByName, nil
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return SortAsc, nil
	}
}
