package core

import (
	"sort"
	"strings"

	"github.com/archcrafter/loom/internal/model"
)

// LookupByName finds an item by its Name, falling back to a
// case-insensitive match on the title. Returns nil if not found.
func LookupByName(items []model.Item, name string) *model.Item {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	for i := range items {
		if strings.EqualFold(items[i].Title(), name) {
			return &items[i]
		}
	}
	return nil
}

// LookupByIndex finds an item by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(items []model.Item, index int) *model.Item {
	idx := index - 1
	if idx < 0 || idx >= len(items) {
		return nil
	}
	return &items[idx]
}

// Search returns the items whose name or title contains term, case-insensitively.
func Search(items []model.Item, term string) []model.Item {
	if strings.TrimSpace(term) == "" {
		return items
	}

	var result []model.Item
	for _, item := range items {
		if item.Matches(term) {
			result = append(result, item)
		}
	}
	return result
}

// Current returns the first item flagged as current, or nil.
func Current(items []model.Item) *model.Item {
	for i := range items {
		if items[i].Current {
			return &items[i]
		}
	}
	return nil
}

// UniqueKinds returns the sorted set of kinds present in items.
func UniqueKinds(items []model.Item) []string {
	seen := make(map[string]bool)
	var kinds []string
	for _, item := range items {
		if item.Kind != "" && !seen[item.Kind] {
			seen[item.Kind] = true
			kinds = append(kinds, item.Kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}
