package windowtheme

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
)

const rcXML = `<?xml version="1.0" encoding="UTF-8"?>
<openbox_config xmlns="http://openbox.org/3.4/rc" xmlns:xi="http://www.w3.org/2001/XInclude">
  <resistance>
    <strength>10</strength>
  </resistance>
  <theme>
    <name>Clearlooks</name>
    <titleLayout>NLIMC</titleLayout>
  </theme>
</openbox_config>
`

type fixture struct {
	svc    *Service
	runner *sysexec.FakeRunner
	system string
	user   string
	rc     string
}

func newFixture(t *testing.T, tools ...string) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		runner: sysexec.NewFakeRunner(tools...),
		system: filepath.Join(base, "system"),
		user:   filepath.Join(base, "user"),
		rc:     filepath.Join(base, "openbox", "rc.xml"),
	}
	f.svc = New(Options{
		SystemDirs: []string{f.system},
		UserDirs:   []string{f.user},
		RCXML:      f.rc,
		Runner:     f.runner,
	})
	return f
}

func (f *fixture) writeRC(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(f.rc), 0755))
	require.NoError(t, os.WriteFile(f.rc, []byte(content), 0644))
}

func makeTheme(t *testing.T, root, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, name, "openbox-3"), 0755))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Clearlooks")
	makeTheme(t, f.system, "arc")
	makeTheme(t, f.user, "Clearlooks")
	require.NoError(t, os.MkdirAll(filepath.Join(f.system, "GtkOnly", "gtk-3.0"), 0755))
	// openbox-3 must be a directory
	require.NoError(t, os.MkdirAll(filepath.Join(f.system, "Fake"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.system, "Fake", "openbox-3"), nil, 0644))

	themes := f.svc.List()
	require.Len(t, themes, 2)
	assert.Equal(t, "arc", themes[0].Name)
	assert.Equal(t, "Clearlooks", themes[1].Name)
	assert.Equal(t, filepath.Join(f.user, "Clearlooks"), themes[1].Path)
}

func TestCurrent(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "", f.svc.Current())

	f.writeRC(t, rcXML)
	assert.Equal(t, "Clearlooks", f.svc.Current())

	f.writeRC(t, "<openbox_config><theme></theme></openbox_config>")
	assert.Equal(t, "", f.svc.Current())

	f.writeRC(t, "not xml <")
	assert.Equal(t, "", f.svc.Current())
}

func TestApply(t *testing.T) {
	f := newFixture(t, "openbox")
	makeTheme(t, f.system, "Nightmare")
	f.writeRC(t, rcXML)

	res, err := f.svc.Apply(context.Background(), "Nightmare")
	require.NoError(t, err)
	assert.Equal(t, model.Result{
		Kind:     model.KindWindowTheme,
		Value:    "Nightmare",
		Previous: "Clearlooks",
		Message:  "Applied window theme: Nightmare",
	}, res)
	assert.Equal(t, "Nightmare", f.svc.Current())

	data, err := os.ReadFile(f.rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, string(data), `xmlns="http://openbox.org/3.4/rc"`)
	assert.Contains(t, string(data), "<titleLayout>NLIMC</titleLayout>")
	assert.Contains(t, string(data), "<strength>10</strength>")

	calls := f.runner.CallsTo("openbox")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"--reconfigure"}, calls[0].Args)
}

func TestApply_Errors(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Nightmare")

	_, err := f.svc.Apply(context.Background(), "Nightmare")
	assert.ErrorIs(t, err, ErrNoConfig)

	f.writeRC(t, rcXML)
	_, err = f.svc.Apply(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	f.writeRC(t, "<openbox_config><desktops/></openbox_config>")
	_, err = f.svc.Apply(context.Background(), "Nightmare")
	assert.ErrorIs(t, err, ErrNoThemeNode)
}

func TestApply_ReconfigureFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, "openbox")
	makeTheme(t, f.system, "Nightmare")
	f.writeRC(t, rcXML)
	f.runner.Handler = func(sysexec.Call) ([]byte, error) {
		return nil, errors.New("not running")
	}

	_, err := f.svc.Apply(context.Background(), "Nightmare")
	require.NoError(t, err)
	assert.Equal(t, "Nightmare", f.svc.Current())
}

func TestApply_WithoutOpenbox(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Nightmare")
	f.writeRC(t, rcXML)

	_, err := f.svc.Apply(context.Background(), "Nightmare")
	require.NoError(t, err)
	assert.Empty(t, f.runner.Calls())
}

func TestItems(t *testing.T) {
	f := newFixture(t)
	makeTheme(t, f.system, "Clearlooks")
	makeTheme(t, f.system, "Onyx-Dark")
	f.writeRC(t, rcXML)

	items := f.svc.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Current)
	assert.False(t, items[0].Dark)
	assert.True(t, items[1].Dark)
	assert.Equal(t, model.KindWindowTheme, items[1].Kind)
}
