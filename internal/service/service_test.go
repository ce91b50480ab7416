package service

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/journal"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/notify"
	"github.com/archcrafter/loom/internal/sysexec"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (f *fakeSender) Send(ctx context.Context, m notify.Message) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return uint32(len(f.sent)), nil
}

func (f *fakeSender) summaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.Summary)
	}
	return out
}

// fakeGsettings answers get/set from an in-memory map.
type fakeGsettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (g *fakeGsettings) handle(c sysexec.Call) ([]byte, error) {
	if c.Name != "gsettings" {
		return nil, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	switch c.Args[0] {
	case "get":
		return []byte("'" + g.values[c.Args[2]] + "'\n"), nil
	case "set":
		g.values[c.Args[2]] = c.Args[3]
	}
	return nil, nil
}

type fixture struct {
	c      *Container
	runner *sysexec.FakeRunner
	sender *fakeSender
	gs     *fakeGsettings
	base   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Wallpaper.SystemDirs = []string{filepath.Join(base, "backgrounds")}
	cfg.GTK.SystemDirs = []string{filepath.Join(base, "themes")}
	cfg.GTK.UserDirs = nil
	cfg.Icons.SystemDirs = []string{filepath.Join(base, "icons")}
	cfg.Icons.UserDirs = nil
	cfg.Openbox.RCXML = filepath.Join(base, "openbox", "rc.xml")
	cfg.Notify.MinInterval = "1ns"

	for _, theme := range []string{"Adwaita", "Arc", "Nordic"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, "themes", theme, "gtk-3.0"), 0755))
	}

	f := &fixture{
		runner: sysexec.NewFakeRunner("gsettings", "nitrogen"),
		sender: &fakeSender{},
		gs:     &fakeGsettings{values: map[string]string{"gtk-theme": "Adwaita"}},
		base:   base,
	}
	f.runner.Handler = f.gs.handle

	c, err := New(Options{
		Config:         cfg,
		DataDir:        filepath.Join(base, "data"),
		CacheDir:       filepath.Join(base, "cache"),
		NitrogenConfig: filepath.Join(base, "nitrogen", "bg-saved.cfg"),
		ConfigHome:     filepath.Join(base, "config"),
		Runner:         f.runner,
		Sender:         f.sender,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	f.c = c
	return f
}

func TestNew_BuildsEveryService(t *testing.T) {
	f := newFixture(t)

	m := f.c.AsMap()
	keys := make([]string, 0, len(m))
	for k, v := range m {
		keys = append(keys, k)
		assert.NotNil(t, v, k)
	}
	assert.ElementsMatch(t, []string{
		"settings", "wallpapers", "gtk_themes", "window_themes", "icon_themes",
		"presets", "journal", "notifier", "external_tools",
	}, keys)

	assert.True(t, f.c.Tools.Has(sysexec.ToolGsettings))
	assert.False(t, f.c.Tools.Has(sysexec.ToolOpenbox))
	assert.Equal(t, filepath.Join(f.base, "data", "history.jsonl"), f.c.Journal.Path())
	assert.Equal(t, filepath.Join(f.base, "data", "settings.json"), f.c.Settings.Path())
}

func TestApply_RecordsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.c.Apply(ctx, model.KindGtkTheme, "Arc")
	require.NoError(t, err)
	assert.Equal(t, "Applied GTK theme: Arc", res.Message)
	assert.Equal(t, "Adwaita", res.Previous)

	last, ok, err := f.c.Journal.Last(model.KindGtkTheme)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Arc", last.Value)
	assert.Equal(t, "Adwaita", last.Previous)

	assert.Equal(t, []string{"Appearance updated"}, f.sender.summaries())

	current, err := f.c.Current(ctx, model.KindGtkTheme)
	require.NoError(t, err)
	assert.Equal(t, "Arc", current)
}

func TestApply_FailureIsNotJournaled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.Apply(ctx, model.KindGtkTheme, "Missing")
	require.Error(t, err)

	entries, err := f.c.Journal.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"Could not apply gtk"}, f.sender.summaries())
}

func TestApply_UnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Apply(context.Background(), "sounds", "x")
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = f.c.Current(context.Background(), "sounds")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = f.c.Items(context.Background(), "sounds")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestUndo_WalksBackThroughHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.Apply(ctx, model.KindGtkTheme, "Arc")
	require.NoError(t, err)
	_, err = f.c.Apply(ctx, model.KindGtkTheme, "Nordic")
	require.NoError(t, err)

	res, err := f.c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Undone: Applied GTK theme: Arc", res.Message)
	assert.Equal(t, "Arc", f.c.GTK.Current(ctx))

	_, err = f.c.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Adwaita", f.c.GTK.Current(ctx))

	_, err = f.c.Undo(ctx)
	assert.ErrorIs(t, err, journal.ErrNothingToUndo)

	entries, err := f.c.Journal.Load()
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, entries[1].ID, entries[2].Undoes)
	assert.Equal(t, entries[0].ID, entries[3].Undoes)
}

func TestApply_Wallpaper(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dir := filepath.Join(f.base, "walls")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "forest.png")
	require.NoError(t, imaging.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), path))
	require.NoError(t, f.c.Wallpapers.SetCustomDir(dir))

	res, err := f.c.Apply(ctx, model.KindWallpaper, path)
	require.NoError(t, err)
	assert.Equal(t, "Applied: forest.png", res.Message)

	calls := f.runner.CallsTo("nitrogen")
	require.Len(t, calls, 1)
	assert.Equal(t, path, calls[0].Args[1])

	items, err := f.c.Items(ctx, model.KindWallpaper)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Current)
}

func TestApply_PresetAndUndoRestoresBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := filepath.Join(f.base, "data", "library", "fetch", "fastfetch", "mini.jsonc")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	target := filepath.Join(f.base, "config", "fastfetch", "config.jsonc")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("old"), 0644))

	res, err := f.c.Apply(ctx, model.KindPreset, "fetch/fastfetch/mini")
	require.NoError(t, err)
	assert.Equal(t, "Installed fastfetch preset: mini", res.Message)

	current, err := f.c.Current(ctx, model.KindPreset)
	require.NoError(t, err)
	assert.Equal(t, "mini", current)

	items, err := f.c.Items(ctx, model.KindPreset)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Current)

	_, err = f.c.Undo(ctx)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	_, err = f.c.Apply(ctx, model.KindPreset, "fetch/fastfetch")
	assert.Error(t, err)
}

func TestUndo_FailureKeepsEntryUndoable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.c.Apply(ctx, model.KindGtkTheme, "Arc")
	require.NoError(t, err)

	// The previous theme disappears before the undo
	require.NoError(t, os.RemoveAll(filepath.Join(f.base, "themes", "Adwaita")))
	_, err = f.c.Undo(ctx)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to undo gtk"))

	entries, err := f.c.Journal.Load()
	require.NoError(t, err)
	target, err := journal.Undoable(entries)
	require.NoError(t, err)
	assert.Equal(t, "Arc", target.Value)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.gs.values["icon-theme"] = "Papirus"
	f.gs.values["cursor-theme"] = "Bibata"

	st := f.c.Status(context.Background())
	assert.Equal(t, "Adwaita", st.GTK)
	assert.Equal(t, "Papirus", st.Icons)
	assert.Equal(t, "Bibata", st.Cursors)
	assert.Empty(t, st.Window)
	assert.Empty(t, st.Wallpaper)
}

func TestNew_NoSenderDisablesNotifications(t *testing.T) {
	base := t.TempDir()
	c, err := New(Options{
		DataDir:  filepath.Join(base, "data"),
		CacheDir: filepath.Join(base, "cache"),
		Runner:   sysexec.NewFakeRunner(),
	})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.Notifier.Failed(context.Background(), "gtk", errors.New("boom")))
}
