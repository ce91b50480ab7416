package wallpaper

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcrafter/loom/internal/settings"
	"github.com/archcrafter/loom/internal/sysexec"
)

type fixture struct {
	svc    *Service
	store  *settings.Store
	runner *sysexec.FakeRunner
	base   string
}

func newFixture(t *testing.T, tools ...string) *fixture {
	t.Helper()
	base := t.TempDir()
	store := settings.Open(filepath.Join(base, "settings.json"))
	runner := sysexec.NewFakeRunner(tools...)

	svc, err := New(store, Options{
		DataDir:        filepath.Join(base, "data"),
		CacheDir:       filepath.Join(base, "cache"),
		SystemDirs:     []string{filepath.Join(base, "system")},
		NitrogenConfig: filepath.Join(base, "nitrogen", "bg-saved.cfg"),
		Runner:         runner,
	})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return &fixture{svc: svc, store: store, runner: runner, base: base}
}

func writeImage(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, imaging.Save(img, path))
}

func TestDefaultsAndSetters(t *testing.T) {
	f := newFixture(t)
	svc := f.svc

	assert.Equal(t, SourceCustom, svc.Source())
	require.NoError(t, svc.SetSource(SourceSystem))
	assert.Equal(t, SourceSystem, svc.Source())
	require.NoError(t, svc.SetSource("bogus"))
	assert.Equal(t, SourceCustom, svc.Source())

	assert.Equal(t, FillZoom, svc.FillMode())
	require.NoError(t, svc.SetFillMode(FillCentered))
	assert.Equal(t, FillCentered, svc.FillMode())
	require.NoError(t, svc.SetFillMode("invalid"))
	assert.Equal(t, FillZoom, svc.FillMode())

	assert.Equal(t, ViewGrid, svc.ViewMode())
	require.NoError(t, svc.SetViewMode(ViewList))
	assert.Equal(t, ViewList, svc.ViewMode())
	require.NoError(t, svc.SetViewMode("oops"))
	assert.Equal(t, ViewGrid, svc.ViewMode())

	assert.Equal(t, "name_asc", svc.SortMode())
	require.NoError(t, svc.SetSortMode("name_desc"))
	assert.Equal(t, "name_desc", svc.SortMode())
	require.NoError(t, svc.SetSortMode("x"))
	assert.Equal(t, "name_asc", svc.SortMode())

	assert.Equal(t, ThumbSizeDefault, svc.ThumbSize())
	require.NoError(t, svc.SetThumbSize(ThumbSizeMax+100))
	assert.Equal(t, ThumbSizeMax, svc.ThumbSize())
	require.NoError(t, svc.SetThumbSize(10))
	assert.Equal(t, ThumbSizeMin, svc.ThumbSize())
	require.NoError(t, svc.SetThumbSize(200))
	assert.Equal(t, 200, svc.ThumbSize())

	assert.Equal(t, StrengthDefault, svc.ColorizeStrength())
	require.NoError(t, svc.SetColorizeStrength(500))
	assert.Equal(t, StrengthMax, svc.ColorizeStrength())
	require.NoError(t, svc.SetColorizeStrength(1))
	assert.Equal(t, StrengthMin, svc.ColorizeStrength())
}

func TestDefaults_PersistedAndColorizedAlwaysPresent(t *testing.T) {
	f := newFixture(t)

	reloaded := settings.Open(f.store.Path())
	sec := reloaded.Section(SectionName)
	assert.Equal(t, "custom", sec.String("source", ""))
	assert.Equal(t, 220, sec.Int("thumb_size", 0))
	dirs, ok := sec.StringSlice("custom_dirs")
	require.True(t, ok)
	assert.Equal(t, []string{f.svc.LibraryDir(), f.svc.ColorizedDir()}, dirs)

	// A stored list without the colorized dir gets it appended on start
	sec.Set("custom_dirs", []any{"/elsewhere"})
	require.NoError(t, reloaded.Save())

	svc, err := New(settings.Open(f.store.Path()), Options{
		DataDir:  filepath.Join(f.base, "data"),
		CacheDir: filepath.Join(f.base, "cache"),
		Runner:   sysexec.NewFakeRunner(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/elsewhere", svc.ColorizedDir()}, svc.CustomDirs())
}

func TestCustomDirsAndSearch(t *testing.T) {
	f := newFixture(t)
	svc := f.svc

	folder := filepath.Join(f.base, "foo")
	require.NoError(t, os.MkdirAll(folder, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(f.base, "system"), 0755))

	require.NoError(t, svc.SetSource(SourceSystem))
	require.NoError(t, svc.SetCustomDir(folder))
	assert.Equal(t, SourceCustom, svc.Source())
	assert.Equal(t, []string{folder, svc.ColorizedDir()}, svc.CustomDirs())

	dirs := svc.SearchDirs()
	assert.Contains(t, dirs, folder)
	assert.Contains(t, dirs, svc.ColorizedDir())

	require.NoError(t, svc.SetSource(SourceSystem))
	dirs = svc.SearchDirs()
	assert.NotContains(t, dirs, folder)
	assert.Contains(t, dirs, svc.ColorizedDir())
	assert.Contains(t, dirs, filepath.Join(f.base, "system"))

	// Choosing the colorized dir itself doesn't duplicate it
	require.NoError(t, svc.SetCustomDir(svc.ColorizedDir()))
	assert.Equal(t, []string{svc.ColorizedDir()}, svc.CustomDirs())
}

func TestSearchDirs_SkipsMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.SetCustomDir(filepath.Join(f.base, "nope")))
	assert.Equal(t, []string{f.svc.ColorizedDir()}, f.svc.SearchDirs())
}

func TestCustomDirs_FiltersNonPaths(t *testing.T) {
	for name, value := range map[string]any{"relative": "xyz", "number": 1.23, "null": nil} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.store.Section(SectionName).Set("custom_dirs", []any{value})
			assert.Equal(t, []string{f.svc.LibraryDir()}, f.svc.CustomDirs())
		})
	}

	f := newFixture(t)
	f.store.Section(SectionName).Set("custom_dirs", "not a list")
	assert.Equal(t, []string{f.svc.LibraryDir()}, f.svc.CustomDirs())
}

func TestCustomDirs_ExpandsHome(t *testing.T) {
	f := newFixture(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	f.store.Section(SectionName).Set("custom_dirs", []any{"~/Pictures", "~/Pictures/"})
	assert.Equal(t, []string{filepath.Join(home, "Pictures")}, f.svc.CustomDirs())
}

func TestBadgeCSS(t *testing.T) {
	f := newFixture(t)

	bg, text := f.svc.BadgeCSS()
	assert.Equal(t, "rgba(20, 130, 200, 0.88)", bg)
	assert.Equal(t, "#ffffff", text)

	require.NoError(t, f.svc.SetBadgeColor("#ffffff"))
	bg, text = f.svc.BadgeCSS()
	assert.Equal(t, "rgba(255, 255, 255, 0.88)", bg)
	assert.Equal(t, "#111111", text)

	require.NoError(t, f.svc.SetBadgeColor("#000000"))
	_, text = f.svc.BadgeCSS()
	assert.Equal(t, "#ffffff", text)

	assert.Error(t, f.svc.SetBadgeColor("red"))

	// Falls back to the tag colour when the badge colour is blank
	sec := f.store.Section(SectionName)
	sec.Set("colorized_badge_color", "")
	sec.Set("colorized_tag_color", "#FF0000")
	bg, _ = f.svc.BadgeCSS()
	assert.Equal(t, "rgba(255, 0, 0, 0.88)", bg)
}

func TestLegacyVariantsImported(t *testing.T) {
	base := t.TempDir()
	legacy := filepath.Join(base, "data", "cache", "wallpaper_variants")
	writeImage(t, filepath.Join(legacy, "old.png"), color.NRGBA{1, 2, 3, 255})
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "notes.txt"), []byte("x"), 0644))

	svc, err := New(settings.Open(filepath.Join(base, "settings.json")), Options{
		DataDir:  filepath.Join(base, "data"),
		CacheDir: filepath.Join(base, "cache"),
		Runner:   sysexec.NewFakeRunner(),
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(svc.ColorizedDir(), "old.png"))
	assert.NoFileExists(t, filepath.Join(svc.ColorizedDir(), "notes.txt"))
}

func TestCurrent_FallsBackToNitrogenConfig(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "", f.svc.Current())

	cfg := filepath.Join(f.base, "nitrogen", "bg-saved.cfg")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg), 0755))
	require.NoError(t, os.WriteFile(cfg, []byte("[xin_-1]\nfile=/usr/share/backgrounds/a.jpg\nmode=5\n"), 0644))
	assert.Equal(t, "/usr/share/backgrounds/a.jpg", f.svc.Current())
}

func TestApply(t *testing.T) {
	f := newFixture(t, "nitrogen")
	wp := filepath.Join(f.svc.LibraryDir(), "a.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})

	require.NoError(t, f.svc.SetFillMode(FillCentered))
	res, err := f.svc.Apply(context.Background(), wp)
	require.NoError(t, err)
	assert.Equal(t, "Applied: a.png", res.Message)
	assert.Equal(t, wp, res.Value)
	assert.Equal(t, "", res.Previous)

	calls := f.runner.CallsTo("nitrogen")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"--set-centered", wp, "--save"}, calls[0].Args)
	assert.Equal(t, wp, f.svc.Current())

	other := filepath.Join(f.svc.LibraryDir(), "b.png")
	writeImage(t, other, color.NRGBA{10, 20, 30, 255})
	res, err = f.svc.Apply(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, wp, res.Previous)
}

func TestApply_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Apply(context.Background(), filepath.Join(f.base, "missing.png"))
	assert.ErrorIs(t, err, ErrNotFound)

	wp := filepath.Join(f.svc.LibraryDir(), "a.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})
	_, err = f.svc.Apply(context.Background(), wp)
	assert.ErrorIs(t, err, sysexec.ErrToolMissing)
	assert.Equal(t, "", f.svc.Current())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	wp := filepath.Join(f.svc.LibraryDir(), "gone.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})
	_, err := f.svc.SetDisplayName(wp, "Gone")
	require.NoError(t, err)

	res, err := f.svc.Delete(context.Background(), wp)
	require.NoError(t, err)
	assert.Equal(t, "Deleted: gone.png", res.Message)
	assert.NoFileExists(t, wp)
	assert.Empty(t, f.store.Section(SectionName).StringMap("name_overrides"))

	_, err = f.svc.Delete(context.Background(), wp)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Delete(context.Background(), f.svc.LibraryDir())
	assert.ErrorIs(t, err, ErrNotAFile)
}

func TestDelete_ThroughSymlinkedParent(t *testing.T) {
	f := newFixture(t)
	real := filepath.Join(f.base, "real")
	wp := filepath.Join(real, "walls", "a.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})
	link := filepath.Join(f.base, "link")
	require.NoError(t, os.Symlink(real, link))

	viaLink := filepath.Join(link, "walls", "a.png")
	_, err := f.svc.SetDisplayName(viaLink, "Sunset")
	require.NoError(t, err)
	require.Len(t, f.store.Section(SectionName).StringMap("name_overrides"), 1)

	_, err = f.svc.Delete(context.Background(), viaLink)
	require.NoError(t, err)
	assert.NoFileExists(t, wp)
	assert.Empty(t, f.store.Section(SectionName).StringMap("name_overrides"))
}

func TestDelete_FallsBackToSudo(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks don't apply to root")
	}
	f := newFixture(t, "sudo")

	locked := filepath.Join(f.base, "locked")
	wp := filepath.Join(locked, "a.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	askpass := filepath.Join(f.base, "askpass")
	require.NoError(t, os.WriteFile(askpass, []byte("#!/bin/sh\n"), 0755))
	f.svc.getenv = func(string) string { return "" }
	f.svc.askpassCandidates = []string{filepath.Join(f.base, "missing"), askpass}

	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		// Emulate a successful privileged rm
		os.Chmod(locked, 0755)
		return nil, os.Remove(c.Args[len(c.Args)-1])
	}

	res, err := f.svc.Delete(context.Background(), wp)
	require.NoError(t, err)
	assert.Equal(t, "Deleted: a.png", res.Message)

	calls := f.runner.CallsTo("sudo")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"-A", "-k", "rm", "-f", "--", wp}, calls[0].Args)
	assert.Equal(t, []string{"SUDO_ASKPASS=" + askpass}, calls[0].Env)
}

func TestDelete_NoAskpass(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks don't apply to root")
	}
	f := newFixture(t, "sudo")

	locked := filepath.Join(f.base, "locked")
	wp := filepath.Join(locked, "a.png")
	writeImage(t, wp, color.NRGBA{10, 20, 30, 255})
	require.NoError(t, os.Chmod(locked, 0555))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	f.svc.getenv = func(string) string { return "" }
	f.svc.askpassCandidates = nil

	_, err := f.svc.Delete(context.Background(), wp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "askpass")
	assert.FileExists(t, wp)
}

func TestResolveAskpass_PrefersEnv(t *testing.T) {
	f := newFixture(t)
	custom := filepath.Join(f.base, "my-askpass")
	require.NoError(t, os.WriteFile(custom, []byte("#!/bin/sh\n"), 0755))
	notExec := filepath.Join(f.base, "plain")
	require.NoError(t, os.WriteFile(notExec, []byte(""), 0644))

	f.svc.askpassCandidates = []string{notExec}
	f.svc.getenv = func(string) string { return custom }
	assert.Equal(t, custom, f.svc.resolveAskpass())

	f.svc.getenv = func(string) string { return notExec }
	assert.Equal(t, "", f.svc.resolveAskpass())
}

func TestThumbnail(t *testing.T) {
	f := newFixture(t)
	wp := filepath.Join(f.svc.LibraryDir(), "big.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(wp), 0755))
	require.NoError(t, imaging.Save(imaging.New(800, 400, color.NRGBA{200, 0, 0, 255}), wp))

	out, err := f.svc.Thumbnail(wp, 200)
	require.NoError(t, err)
	assert.Equal(t, f.svc.ThumbnailPath(wp, 200), out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	again, err := f.svc.Thumbnail(wp, 200)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	_, err = f.svc.Thumbnail(filepath.Join(f.base, "missing.png"), 200)
	assert.Error(t, err)
}

func TestPruneThumbnails(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		p := filepath.Join(f.svc.ThumbnailDir(), name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		mtime := now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}

	removed, err := f.svc.PruneThumbnails(2)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(f.svc.ThumbnailDir(), "a.png"))
	assert.FileExists(t, filepath.Join(f.svc.ThumbnailDir(), "c.png"))

	removed, err = f.svc.PruneThumbnails(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestWarm(t *testing.T) {
	f := newFixture(t)
	writeImage(t, filepath.Join(f.svc.LibraryDir(), "a.png"), color.NRGBA{0, 200, 0, 255})
	writeImage(t, filepath.Join(f.svc.LibraryDir(), "b.png"), color.NRGBA{200, 0, 0, 255})
	require.NoError(t, os.WriteFile(filepath.Join(f.svc.LibraryDir(), "broken.jpg"), []byte("nope"), 0644))

	stats, err := f.svc.Warm(context.Background(), 160)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 3, stats.Palettes)
	assert.Equal(t, 2, stats.Thumbnails)
	assert.Equal(t, 1, stats.Failed)

	assert.FileExists(t, f.svc.PaletteCache().Path())
	assert.Equal(t, 3, f.svc.PaletteCache().Len())
}
