// Package windowtheme lists Openbox themes and switches the active one by
// editing rc.xml.
package windowtheme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/archcrafter/loom/internal/config"
	"github.com/archcrafter/loom/internal/model"
	"github.com/archcrafter/loom/internal/sysexec"
	"github.com/archcrafter/loom/internal/themedir"
)

// Errors.
var (
	ErrNotFound    = errors.New("theme not found")
	ErrNoConfig    = errors.New("openbox configuration file not found")
	ErrNoThemeNode = errors.New("could not find <theme><name> in rc.xml")
)

// themeNamePath locates the theme name regardless of the rc namespace.
const themeNamePath = "//theme/name"

// Theme is an installed Openbox theme.
type Theme = themedir.Entry

// Options configures a Service.
type Options struct {
	SystemDirs []string
	UserDirs   []string
	RCXML      string
	Runner     sysexec.Runner
	Logger     *slog.Logger
}

// Service manages Openbox window themes.
type Service struct {
	dirs   []string
	rcXML  string
	runner sysexec.Runner
	logger *slog.Logger
}

// New creates the service.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = sysexec.NewExecRunner()
	}
	dirs := append(config.ExpandPaths(opts.SystemDirs), config.ExpandPaths(opts.UserDirs)...)
	return &Service{
		dirs:   dirs,
		rcXML:  config.ExpandPath(opts.RCXML),
		runner: opts.Runner,
		logger: opts.Logger,
	}
}

// RCXML returns the rc.xml path.
func (s *Service) RCXML() string {
	return s.rcXML
}

// List returns themes that ship an openbox-3 directory.
func (s *Service) List() []Theme {
	return themedir.Scan(s.dirs, func(dir string) bool {
		return themedir.IsDir(filepath.Join(dir, "openbox-3"))
	})
}

// Current returns the theme named in rc.xml, empty if unknown.
func (s *Service) Current() string {
	doc, err := s.readRC()
	if err != nil {
		return ""
	}
	node := doc.FindElement(themeNamePath)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.Text())
}

func (s *Service) readRC() (*etree.Document, error) {
	if _, err := os.Stat(s.rcXML); err != nil {
		return nil, ErrNoConfig
	}
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromFile(s.rcXML); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.rcXML, err)
	}
	return doc, nil
}

// Apply writes name into rc.xml and asks Openbox to reconfigure.
// A failing reconfigure is logged; the new theme takes effect on the next
// Openbox start.
func (s *Service) Apply(ctx context.Context, name string) (model.Result, error) {
	doc, err := s.readRC()
	if err != nil {
		return model.Result{}, err
	}
	if _, ok := themedir.Find(s.List(), name); !ok {
		return model.Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	node := doc.FindElement(themeNamePath)
	if node == nil {
		return model.Result{}, ErrNoThemeNode
	}
	previous := strings.TrimSpace(node.Text())
	node.SetText(name)

	if err := writeAtomic(doc, s.rcXML); err != nil {
		return model.Result{}, fmt.Errorf("failed to apply theme: %w", err)
	}

	if _, err := s.runner.LookPath("openbox"); err == nil {
		if _, err := s.runner.Run(ctx, "openbox", "--reconfigure"); err != nil {
			s.logger.Warn("openbox reconfigure failed", "error", err)
		}
	}

	s.logger.Info("applied window theme", "theme", name)
	return model.Result{
		Kind:     model.KindWindowTheme,
		Value:    name,
		Previous: previous,
		Message:  "Applied window theme: " + name,
	}, nil
}

func writeAtomic(doc *etree.Document, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Items lists themes as rows.
func (s *Service) Items() []model.Item {
	current := s.Current()
	themes := s.List()
	items := make([]model.Item, 0, len(themes))
	for _, t := range themes {
		items = append(items, model.Item{
			Kind:    model.KindWindowTheme,
			Name:    t.Name,
			Path:    t.Path,
			Current: t.Name == current,
			Dark:    themedir.IsDarkName(t.Name),
		})
	}
	return items
}
