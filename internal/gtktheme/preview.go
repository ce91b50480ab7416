package gtktheme

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/config"
)

// Preview variants.
const (
	VariantCard  = "card"
	VariantPanel = "panel"
)

// RendererName is the preview helper looked up on PATH.
const RendererName = "loom-preview"

// Size is a preview size in pixels.
type Size struct {
	Width  int
	Height int
}

// String renders the size as WxH.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultSizes returns the default size of every variant.
func DefaultSizes() map[string]Size {
	return map[string]Size{
		VariantCard:  {Width: config.DefaultCardWidth, Height: config.DefaultCardHeight},
		VariantPanel: {Width: config.DefaultPanelWidth, Height: config.DefaultPanelHeight},
	}
}

// PreviewSlug makes a theme name safe for a file name: characters outside
// [A-Za-z0-9_-] become '_' and the result is at most 48 bytes.
func PreviewSlug(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 48 {
			break
		}
	}
	slug := b.String()
	if len(slug) > 48 {
		slug = slug[:48]
	}
	if slug == "" {
		slug = "theme"
	}
	return slug
}

// PreviewSize returns the size used for variant.
func (s *Service) PreviewSize(variant string) (Size, error) {
	size, ok := s.sizes[variant]
	if !ok {
		return Size{}, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return size, nil
}

// PreviewPath returns where the preview of t at size is cached, creating
// the preview directory. The name embeds the theme signature so edits to
// the theme invalidate old previews.
func (s *Service) PreviewPath(t Theme, variant string, size Size) (string, error) {
	if err := os.MkdirAll(s.previewDir, 0755); err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}
	digest := cache.HashString(Signature(t))[:12]
	name := fmt.Sprintf("%s_%s_%s_%s.png", PreviewSlug(t.Name), digest, variant, size)
	return filepath.Join(s.previewDir, name), nil
}

// PreviewDir returns the preview cache directory.
func (s *Service) PreviewDir() string {
	return s.previewDir
}

func (s *Service) resolveRenderer() (string, error) {
	name := s.renderer
	if name == "" {
		name = RendererName
	}
	path, err := s.runner.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRendererMissing, name)
	}
	return path, nil
}

// RenderPreview returns a PNG preview of the theme, rendering it with the
// helper when no cached file exists. Concurrent calls for the same file
// share one render and at most RenderConcurrency renders run at once.
func (s *Service) RenderPreview(ctx context.Context, name, variant string) (string, error) {
	t, err := s.Lookup(name)
	if err != nil {
		return "", err
	}
	size, err := s.PreviewSize(variant)
	if err != nil {
		return "", err
	}
	out, err := s.PreviewPath(t, variant, size)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	// The shared render outlives any one caller; each caller only stops
	// waiting when its own ctx ends.
	renderCtx := context.WithoutCancel(ctx)
	ch := s.renders.DoChan(out, func() (any, error) {
		return out, s.render(renderCtx, t, size, out)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Service) render(ctx context.Context, t Theme, size Size, out string) error {
	if _, err := os.Stat(out); err == nil {
		return nil
	}
	renderer, err := s.resolveRenderer()
	if err != nil {
		return err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	tmp, err := os.CreateTemp(s.previewDir, ".render-*.png")
	if err != nil {
		return fmt.Errorf("create temp preview: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug("rendering gtk preview", "theme", t.Name, "size", size.String())
	_, err = s.runner.Run(rctx, renderer,
		"--theme", t.Name,
		"--output", tmpPath,
		"--width", strconv.Itoa(size.Width),
		"--height", strconv.Itoa(size.Height),
	)
	if err != nil {
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("render %s timed out after %s", t.Name, s.timeout)
		}
		return fmt.Errorf("render %s: %w", t.Name, err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("render %s: %w", t.Name, ErrRenderNoOutput)
	}
	return os.Rename(tmpPath, out)
}

// WarmStats summarizes a WarmPreviews run.
type WarmStats struct {
	Themes   int
	Rendered int
	Failed   int
}

// WarmPreviews renders the variant for every installed theme.
func (s *Service) WarmPreviews(ctx context.Context, variant string) (WarmStats, error) {
	if _, err := s.PreviewSize(variant); err != nil {
		return WarmStats{}, err
	}
	if _, err := s.resolveRenderer(); err != nil {
		return WarmStats{}, err
	}

	themes := s.List()
	results := make([]error, len(themes))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range themes {
		g.Go(func() error {
			s.Metadata(t)
			_, err := s.RenderPreview(gctx, t.Name, variant)
			if err != nil {
				s.logger.Debug("preview warm failed", "theme", t.Name, "error", err)
			}
			results[i] = err
			return nil
		})
	}
	_ = g.Wait()

	stats := WarmStats{Themes: len(themes)}
	for _, err := range results {
		if err != nil {
			stats.Failed++
		} else {
			stats.Rendered++
		}
	}
	return stats, s.metadata.Flush()
}
