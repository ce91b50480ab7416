package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcrafter/loom/internal/model"
)

func sampleItems() []model.Item {
	now := time.Now()
	return []model.Item{
		{Kind: model.KindGtkTheme, Name: "Arc-Dark", Dark: true, Current: true},
		{Kind: model.KindGtkTheme, Name: "Adwaita"},
		{Kind: model.KindWallpaper, Name: "forest.jpg", Display: "Misty Forest", Path: "/w/forest.jpg",
			Size: 3 << 20, ModTime: now.Add(-time.Hour).Unix(), Colors: []string{"#5e81ac", "#a3be8c"}},
		{Kind: model.KindWallpaper, Name: "colorized/forest_ab.png", Path: "/w/colorized/forest_ab.png",
			Colorized: true, Size: 512 << 10, ModTime: now.Add(-10 * 24 * time.Hour).Unix()},
	}
}

func TestFilter_Empty(t *testing.T) {
	assert.Len(t, Filter(nil, FilterOptions{}), 0)
}

func TestFilter_Options(t *testing.T) {
	items := sampleItems()

	assert.Len(t, Filter(items, FilterOptions{}), 4)
	assert.Len(t, Filter(items, FilterOptions{Kind: model.KindWallpaper}), 2)
	assert.Len(t, Filter(items, FilterOptions{CurrentOnly: true}), 1)
	assert.Len(t, Filter(items, FilterOptions{Limit: 3}), 3)

	recent := Filter(items, FilterOptions{Kind: model.KindWallpaper, Since: 24 * time.Hour})
	require.Len(t, recent, 1)
	assert.Equal(t, "forest.jpg", recent[0].Name)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0", 0},
		{"", 0},
		{"48h", 48 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
	_, err = ParseDuration("soon")
	assert.Error(t, err)
}

func TestParseFilter_Errors(t *testing.T) {
	for _, expr := range []string{"nope", "owner=me", "size>lots", "name~=(", "modified>soon"} {
		_, err := ParseFilter(expr)
		assert.Error(t, err, expr)
	}

	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Empty(t, f.Conditions)
}

func TestFilterWithExpr(t *testing.T) {
	items := sampleItems()

	tests := []struct {
		expr string
		want []string
	}{
		{"name=Adwaita", []string{"Adwaita"}},
		{"name!=Adwaita,kind=gtk", []string{"Arc-Dark"}},
		{"title~misty", []string{"forest.jpg"}},
		{"name~=^A", []string{"Arc-Dark", "Adwaita"}},
		{"dark=true", []string{"Arc-Dark"}},
		{"current=yes", []string{"Arc-Dark"}},
		{"colorized=true", []string{"colorized/forest_ab.png"}},
		{"kind=wallpaper,colorized=false", []string{"forest.jpg"}},
		{"size>1MB", []string{"forest.jpg"}},
		{"kind=wallpaper,size<=1MiB", []string{"colorized/forest_ab.png"}},
		{"kind=wallpaper,modified>1d", []string{"forest.jpg"}},
		{"kind=wallpaper,modified<7d", []string{"colorized/forest_ab.png"}},
		{"color=5E81AC", []string{"forest.jpg"}},
		{"kind=wallpaper,color!=#5e81ac", []string{"colorized/forest_ab.png"}},
		{"path~/colorized/", []string{"colorized/forest_ab.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			var got []string
			for _, item := range FilterWithExpr(items, f) {
				got = append(got, item.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterWithExpr_NilPassesThrough(t *testing.T) {
	items := sampleItems()
	assert.Len(t, FilterWithExpr(items, nil), len(items))
}
