package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/archcrafter/loom/internal/model"
)

func names(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.Name)
	}
	return out
}

func TestSort_Empty(t *testing.T) {
	var items []model.Item
	Sort(items, DefaultSortOptions())
	assert.Len(t, items, 0)
}

func TestSort_ByTitleIgnoresCase(t *testing.T) {
	items := []model.Item{
		{Name: "b.png"},
		{Name: "z.png", Display: "apple"},
		{Name: "C.png"},
	}
	Sort(items, DefaultSortOptions())
	assert.Equal(t, []string{"z.png", "b.png", "C.png"}, names(items))

	Sort(items, SortOptions{Field: SortByName, Order: SortDesc})
	assert.Equal(t, []string{"C.png", "b.png", "z.png"}, names(items))
}

func TestSort_ByModified(t *testing.T) {
	items := []model.Item{
		{Name: "a", ModTime: 100},
		{Name: "b", ModTime: 300},
		{Name: "c", ModTime: 200},
		{Name: "d", ModTime: 300},
	}

	Sort(items, SortOptionsForMode(ModeNewest))
	assert.Equal(t, []string{"b", "d", "c", "a"}, names(items))

	Sort(items, SortOptionsForMode(ModeOldest))
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(items))
}

func TestSort_BySize(t *testing.T) {
	items := []model.Item{{Name: "a", Size: 5}, {Name: "b", Size: 1}}
	Sort(items, SortOptions{Field: SortBySize, Order: SortAsc})
	assert.Equal(t, []string{"b", "a"}, names(items))
}

func TestSortOptionsForMode(t *testing.T) {
	assert.Equal(t, DefaultSortOptions(), SortOptionsForMode(ModeNameAsc))
	assert.Equal(t, DefaultSortOptions(), SortOptionsForMode("bogus"))
	assert.Equal(t, SortOptions{Field: SortByName, Order: SortDesc}, SortOptionsForMode(ModeNameDesc))
}

func TestParseSortFieldAndOrder(t *testing.T) {
	f, _ := ParseSortField("mtime")
	assert.Equal(t, SortByModified, f)
	f, _ = ParseSortField("whatever")
	assert.Equal(t, SortByName, f)

	o, _ := ParseSortOrder("descending")
	assert.Equal(t, SortDesc, o)
	o, _ = ParseSortOrder("")
	assert.Equal(t, SortAsc, o)
}
