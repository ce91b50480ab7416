package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFile(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "settings.json"))
	assert.Empty(t, s.Snapshot())
}

func TestOpen_CorruptOrNonObject(t *testing.T) {
	for name, content := range map[string]string{
		"corrupt": "{not json",
		"array":   `[1, 2, 3]`,
		"null":    `null`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			s := Open(path)
			assert.Empty(t, s.Snapshot())
		})
	}
}

func TestSection_ReplacesNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"wallpapers": "oops", "other": {"a": 1}}`), 0644))

	s := Open(path)
	sec := s.Section("wallpapers")
	assert.False(t, sec.Has("anything"))

	snap := s.Snapshot()
	assert.Equal(t, map[string]any{}, snap["wallpapers"])
	assert.Equal(t, map[string]any{"a": float64(1)}, snap["other"])
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := Open(path)
	sec := s.Section("wallpapers")
	sec.Set("source", "system")
	sec.Set("thumb_size", 240)
	sec.Set("custom_dirs", []string{"/a", "/b"})
	sec.Set("name_overrides", map[string]string{"/a/x.png": "X"})
	sec.Set("auto", true)
	require.NoError(t, s.Save())

	// No temp file left behind
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	reloaded := Open(path)
	rs := reloaded.Section("wallpapers")
	assert.Equal(t, "system", rs.String("source", "custom"))
	assert.Equal(t, 240, rs.Int("thumb_size", 0))
	dirs, ok := rs.StringSlice("custom_dirs")
	assert.True(t, ok)
	assert.Equal(t, []string{"/a", "/b"}, dirs)
	assert.Equal(t, map[string]string{"/a/x.png": "X"}, rs.StringMap("name_overrides"))
	assert.True(t, rs.Bool("auto", false))
}

func TestTypedAccessors_Defaults(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "settings.json"))
	sec := s.Section("x")

	sec.Set("num_str", "42")
	sec.Set("bad_num", "forty")
	sec.Set("list", []any{"a", 1.5, nil, "b"})
	sec.Set("not_list", "a")
	sec.Set("mixed_map", map[string]any{"k": "v", "n": 3.0})

	assert.Equal(t, "def", sec.String("missing", "def"))
	assert.Equal(t, 42, sec.Int("num_str", 0))
	assert.Equal(t, 7, sec.Int("bad_num", 7))
	assert.Equal(t, 9, sec.Int("missing", 9))
	assert.True(t, sec.Bool("num_str", true))

	list, ok := sec.StringSlice("list")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)

	_, ok = sec.StringSlice("not_list")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"k": "v"}, sec.StringMap("mixed_map"))
	assert.Empty(t, sec.StringMap("missing"))
}

func TestSetDefaultAndDelete(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "settings.json"))
	sec := s.Section("fetch")

	assert.True(t, sec.SetDefault("engine", "fastfetch"))
	assert.False(t, sec.SetDefault("engine", "neofetch"))
	assert.Equal(t, "fastfetch", sec.String("engine", ""))

	assert.True(t, sec.Delete("engine"))
	assert.False(t, sec.Delete("engine"))
	assert.False(t, sec.Has("engine"))
}
