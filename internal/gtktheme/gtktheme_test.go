package gtktheme

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcrafter/loom/internal/gsettings"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
)

type fixture struct {
	svc    *Service
	runner *sysexec.FakeRunner
	system string
	user   string
	cache  string
}

func newFixture(t *testing.T, tools ...string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		runner: sysexec.NewFakeRunner(tools...),
		system: filepath.Join(base, "system"),
		user:   filepath.Join(base, "user"),
		cache:  filepath.Join(base, "cache"),
	}
	f.svc = New(Options{
		SystemDirs:    []string{f.system},
		UserDirs:      []string{f.user, filepath.Join(base, "missing")},
		CacheDir:      f.cache,
		RenderTimeout: 2 * time.Second,
		Runner:        f.runner,
		Settings:      gsettings.New(f.runner, nil, nil),
	})
	return f
}

func makeTheme(t *testing.T, root, name, assets, css string) string {
	t.Helper()
	dir := filepath.Join(root, name, assets)
	require.NoError(t, os.MkdirAll(dir, 0755))
	if css != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "gtk.css"), []byte(css), 0644))
	}
	return filepath.Join(root, name)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Zephyr", "gtk-3.0", "")
	makeTheme(t, f.system, "adwaita", "gtk-2.0", "")
	makeTheme(t, f.system, "Shared", "gtk-3.0", "")
	userShared := makeTheme(t, f.user, "Shared", "gtk-3.0", "")
	makeTheme(t, f.user, "Openbox-only", "openbox-3", "")
	require.NoError(t, os.WriteFile(filepath.Join(f.user, "stray-file"), []byte("x"), 0644))

	themes := f.svc.List()
	names := make([]string, len(themes))
	for i, th := range themes {
		names[i] = th.Name
	}
	assert.Equal(t, []string{"adwaita", "Shared", "Zephyr"}, names)
	assert.Equal(t, userShared, themes[1].Path)

	_, err := f.svc.Lookup("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurrentAndApply(t *testing.T) {
	f := newFixture(t, "gsettings")
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")
	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		if c.Args[0] == "get" {
			return []byte("'Adwaita'\n"), nil
		}
		return nil, nil
	}

	assert.Equal(t, "Adwaita", f.svc.Current(context.Background()))

	res, err := f.svc.Apply(context.Background(), "Nordic")
	require.NoError(t, err)
	assert.Equal(t, model.Result{
		Kind:     model.KindGtkTheme,
		Value:    "Nordic",
		Previous: "Adwaita",
		Message:  "Applied GTK theme: Nordic",
	}, res)

	calls := f.runner.CallsTo("gsettings")
	last := calls[len(calls)-1]
	assert.Equal(t, []string{"set", gsettings.Schema, gsettings.KeyGtkTheme, "Nordic"}, last.Args)

	_, err = f.svc.Apply(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApply_WithoutGsettings(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")

	assert.Equal(t, "", f.svc.Current(context.Background()))
	_, err := f.svc.Apply(context.Background(), "Nordic")
	assert.ErrorIs(t, err, sysexec.ErrToolMissing)
}

func TestSignature(t *testing.T) {
	f := newFixture(t)
	dir := makeTheme(t, f.system, "TestTheme", "gtk-3.0", "@define-color bg_color #fff;")
	th := Theme{Name: "TestTheme", Path: dir}

	sig := Signature(th)
	assert.True(t, strings.HasPrefix(sig, "TestTheme|"))
	assert.Len(t, strings.Split(sig, "|"), 4)

	later := time.Now().Add(5 * time.Second)
	css := filepath.Join(dir, "gtk-3.0", "gtk.css")
	require.NoError(t, os.WriteFile(css, []byte("@define-color bg_color #000000;"), 0644))
	require.NoError(t, os.Chtimes(css, later, later))
	assert.NotEqual(t, sig, Signature(th))

	missing := Signature(Theme{Name: "Ghost", Path: filepath.Join(f.system, "Ghost")})
	assert.Equal(t, "Ghost|0:0|0:0|0:0", missing)
}

func TestMetadata(t *testing.T) {
	f := newFixture(t)
	dir := makeTheme(t, f.system, "Paper", "gtk-3.0", `
@import url("colors.css");
/* @define-color commented_out #123456; */
@define-color theme_fg_color @fg_color;
@define-color theme_selected_bg_color rgba(94, 129, 172, 0.9);
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gtk-3.0", "colors.css"),
		[]byte("@define-color bg_color #F5F5F5;\n@define-color fg_color #2e3440;\n@define-color theme_bg_color @bg_color;\n"), 0644))

	meta := f.svc.Metadata(Theme{Name: "Paper", Path: dir})
	assert.Equal(t, "#f5f5f5", meta.Background)
	assert.Equal(t, "#2e3440", meta.Foreground)
	assert.Equal(t, "#5e81ac", meta.Accent)
	assert.False(t, meta.Dark)
	assert.NotContains(t, meta.Colors, "commented_out")
	assert.Equal(t, []string{"#f5f5f5", "#2e3440", "#5e81ac"}, meta.Swatches())

	// Served from the cache on the second call
	assert.Equal(t, 1, f.svc.metadata.Len())
	f.svc.Metadata(Theme{Name: "Paper", Path: dir})
	assert.Equal(t, 1, f.svc.metadata.Len())

	require.NoError(t, f.svc.Close())
	assert.FileExists(t, filepath.Join(f.cache, "gtk_metadata.json"))
}

func TestMetadata_Dark(t *testing.T) {
	f := newFixture(t)
	byName := makeTheme(t, f.system, "Arc-Dark", "gtk-3.0", "")
	assert.True(t, f.svc.Metadata(Theme{Name: "Arc-Dark", Path: byName}).Dark)

	byColor := makeTheme(t, f.system, "Midnight", "gtk-3.0", "@define-color window_bg_color #1e1e2e;")
	meta := f.svc.Metadata(Theme{Name: "Midnight", Path: byColor})
	assert.True(t, meta.Dark)
	assert.Equal(t, "#1e1e2e", meta.Background)

	// GTK4-only themes are read from gtk-4.0
	gtk4 := makeTheme(t, f.system, "Four", "gtk-4.0", "@define-color window_bg_color #fafafa;")
	assert.Equal(t, "#fafafa", f.svc.Metadata(Theme{Name: "Four", Path: gtk4}).Background)
}

func TestResolveColors(t *testing.T) {
	defs := map[string]string{
		"hex":      "#ABC",
		"hex8":     "#11223344",
		"rgb":      "rgb(255, 0, 0)",
		"pct":      "rgb(100%, 50%, 0%)",
		"alias":    "@hex",
		"chain":    "@alias",
		"alpha":    "alpha(@rgb, 0.5)",
		"mix":      "mix(#000000, #ffffff, 0.5)",
		"shaded":   "shade(#808080, 1.0)",
		"darker":   "darker(#ffffff)",
		"red_dark": "shade(#ff0000, 0.5)",
		"named":    "white",
		"loop_a":   "@loop_b",
		"loop_b":   "@loop_a",
		"dangling": "@nowhere",
		"garbage":  "linear-gradient(red, blue)",
	}
	out := ResolveColors(defs)

	assert.Equal(t, "#aabbcc", out["hex"])
	assert.Equal(t, "#112233", out["hex8"])
	assert.Equal(t, "#ff0000", out["rgb"])
	assert.Equal(t, "#ff8000", out["pct"])
	assert.Equal(t, "#aabbcc", out["alias"])
	assert.Equal(t, "#aabbcc", out["chain"])
	assert.Equal(t, "#ff0000", out["alpha"])
	assert.Equal(t, "#808080", out["mix"])
	assert.Equal(t, "#808080", out["shaded"])
	// 0.7 lightness is 178.5, which rounds to even
	assert.Equal(t, "#b2b2b2", out["darker"])
	assert.Equal(t, "#602020", out["red_dark"])
	assert.Equal(t, "#ffffff", out["named"])

	for _, missing := range []string{"loop_a", "loop_b", "dangling", "garbage"} {
		assert.NotContains(t, out, missing)
	}
}

func TestProcessImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_a.css"), []byte(`@import "_b.css"; .a {}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_b.css"), []byte(`@import "_a.css"; .b {}`), 0644))

	out := ProcessImports(`@import "_a.css"; @import url("resource:///org/gtk/x.css"); @import 'gone.css';`, dir, nil)
	assert.Contains(t, out, "/* imported: _a.css */")
	assert.Contains(t, out, "/* imported: _b.css */")
	assert.Contains(t, out, "/* circular import prevented: _a.css */")
	assert.Contains(t, out, "/* import skipped: resource:///org/gtk/x.css */")
	assert.Contains(t, out, "/* import failed: gone.css */")
	assert.Contains(t, out, ".b {}")
}

func TestPreviewSlug(t *testing.T) {
	assert.Equal(t, "My-Theme_123", PreviewSlug("My-Theme_123"))

	slug := PreviewSlug("My Theme! @#$%")
	assert.Equal(t, "My_Theme______", slug)

	assert.Len(t, PreviewSlug(strings.Repeat("x", 100)), 48)
	assert.Equal(t, "Th_me", PreviewSlug("Thème"))
	assert.Equal(t, "theme", PreviewSlug(""))
}

func TestPreviewPath(t *testing.T) {
	f := newFixture(t)
	th := Theme{Name: "TestTheme", Path: filepath.Join(f.system, "TestTheme")}

	card, err := f.svc.PreviewPath(th, VariantCard, Size{320, 150})
	require.NoError(t, err)
	panel, err := f.svc.PreviewPath(th, VariantPanel, Size{640, 420})
	require.NoError(t, err)

	assert.NotEqual(t, card, panel)
	assert.Equal(t, f.svc.PreviewDir(), filepath.Dir(card))
	assert.Contains(t, card, "gtk_previews")
	assert.True(t, strings.HasSuffix(card, "_card_320x150.png"))
	assert.DirExists(t, filepath.Dir(card))

	_, err = f.svc.PreviewSize("poster")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

// renderHandler writes a fake PNG to the --output argument.
func renderHandler(count *atomic.Int64) func(sysexec.Call) ([]byte, error) {
	return func(c sysexec.Call) ([]byte, error) {
		count.Add(1)
		for i, a := range c.Args {
			if a == "--output" {
				return nil, os.WriteFile(c.Args[i+1], []byte("png"), 0644)
			}
		}
		return nil, nil
	}
}

func TestRenderPreview(t *testing.T) {
	f := newFixture(t, RendererName)
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")

	var renders atomic.Int64
	f.runner.Handler = renderHandler(&renders)

	out, err := f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
	require.NoError(t, err)
	assert.FileExists(t, out)

	calls := f.runner.CallsTo("/usr/bin/" + RendererName)
	require.Len(t, calls, 1)
	args := calls[0].Args
	assert.Equal(t, []string{"--theme", "Nordic"}, args[:2])
	assert.Equal(t, []string{"--width", "320", "--height", "150"}, args[4:])

	// Cached files are reused
	again, err := f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, int64(1), renders.Load())

	// No temp files are left behind
	leftovers, _ := filepath.Glob(filepath.Join(f.svc.PreviewDir(), ".render-*"))
	assert.Empty(t, leftovers)
}

func TestRenderPreview_ConcurrentCallsShareRender(t *testing.T) {
	f := newFixture(t, RendererName)
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")

	var renders atomic.Int64
	release := make(chan struct{})
	inner := renderHandler(&renders)
	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		<-release
		return inner(c)
	}

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.RenderPreview(context.Background(), "Nordic", VariantPanel)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), renders.Load())
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestRenderPreview_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture(t, RendererName)
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")

	var renders atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	inner := renderHandler(&renders)
	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		close(started)
		<-release
		return inner(c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.RenderPreview(ctx, "Nordic", VariantCard)
		firstErr <- err
	}()
	<-started

	secondOut := make(chan string, 1)
	go func() {
		out, err := f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
		assert.NoError(t, err)
		secondOut <- out
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	out := <-secondOut
	assert.FileExists(t, out)
	assert.Equal(t, int64(1), renders.Load())
}

func TestRenderPreview_Failures(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Nordic", "gtk-3.0", "")

	_, err := f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
	assert.ErrorIs(t, err, ErrRendererMissing)

	_, err = f.svc.RenderPreview(context.Background(), "Ghost", VariantCard)
	assert.ErrorIs(t, err, ErrNotFound)

	f.runner.Paths[RendererName] = "/usr/bin/" + RendererName
	// Exits cleanly but writes nothing
	_, err = f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
	assert.ErrorIs(t, err, ErrRenderNoOutput)

	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		return nil, &sysexec.ToolError{Tool: c.Name, Output: "no display"}
	}
	_, err = f.svc.RenderPreview(context.Background(), "Nordic", VariantCard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")

	leftovers, _ := filepath.Glob(filepath.Join(f.svc.PreviewDir(), "*"))
	assert.Empty(t, leftovers)
}

func TestWarmPreviews(t *testing.T) {
	f := newFixture(t, RendererName)
	makeTheme(t, f.system, "One", "gtk-3.0", "@define-color bg_color #ffffff;")
	makeTheme(t, f.system, "Two", "gtk-3.0", "")
	makeTheme(t, f.user, "Broken", "gtk-3.0", "")

	var renders atomic.Int64
	ok := renderHandler(&renders)
	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		if c.Args[1] == "Broken" {
			return nil, &sysexec.ToolError{Tool: c.Name, Output: "crash"}
		}
		return ok(c)
	}

	stats, err := f.svc.WarmPreviews(context.Background(), VariantCard)
	require.NoError(t, err)
	assert.Equal(t, WarmStats{Themes: 3, Rendered: 2, Failed: 1}, stats)
	assert.Equal(t, 3, f.svc.metadata.Len())

	_, err = f.svc.WarmPreviews(context.Background(), "poster")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestItems(t *testing.T) {
	f := newFixture(t, "gsettings")
	makeTheme(t, f.system, "Light", "gtk-3.0", "@define-color theme_bg_color #ffffff;")
	makeTheme(t, f.system, "Night-Dark", "gtk-3.0", "")
	f.runner.Handler = func(c sysexec.Call) ([]byte, error) {
		return []byte("'Light'"), nil
	}

	items := f.svc.Items(context.Background())
	require.Len(t, items, 2)
	assert.Equal(t, "Light", items[0].Name)
	assert.True(t, items[0].Current)
	assert.False(t, items[0].Dark)
	assert.Equal(t, []string{"#ffffff"}, items[0].Colors)
	assert.True(t, items[1].Dark)
	assert.Equal(t, model.KindGtkTheme, items[1].Kind)
}
