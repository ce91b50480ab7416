package wallpaper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/colors"
)

// ThumbnailPath returns where the thumbnail of path at size is cached.
// The name changes whenever the source file changes.
func (s *Service) ThumbnailPath(path string, size int) string {
	return filepath.Join(s.thumbDir, cache.Key(path, strconv.Itoa(size))+".png")
}

// Thumbnail returns a PNG thumbnail of path fitting size x size, creating it
// if needed. size <= 0 uses the stored thumb size.
func (s *Service) Thumbnail(path string, size int) (string, error) {
	if size <= 0 {
		size = s.ThumbSize()
	}
	out := s.ThumbnailPath(path, size)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	img, err := colors.DecodeFile(path)
	if err != nil {
		return "", err
	}
	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	tmp, err := os.CreateTemp(s.thumbDir, ".thumb-*.png")
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	if err := imaging.Encode(tmp, thumb, imaging.PNG); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return out, nil
}

// PruneThumbnails keeps the maxFiles most recently modified thumbnails and
// returns how many were removed.
func (s *Service) PruneThumbnails(maxFiles int) (int, error) {
	files, err := filepath.Glob(filepath.Join(s.thumbDir, "*.png"))
	if err != nil {
		return 0, err
	}
	if len(files) <= maxFiles {
		return 0, nil
	}

	type aged struct {
		path  string
		mtime int64
	}
	list := make([]aged, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		list = append(list, aged{path: f, mtime: info.ModTime().UnixNano()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].mtime > list[j].mtime })

	removed := 0
	for _, old := range list[min(maxFiles, len(list)):] {
		if err := os.Remove(old.path); err == nil {
			removed++
		}
	}
	return removed, nil
}

// WarmStats summarizes a Warm run.
type WarmStats struct {
	Files      int
	Palettes   int
	Thumbnails int
	Failed     int
}

// Warm computes palettes and thumbnails for every listed wallpaper in
// parallel, then flushes the palette cache.
func (s *Service) Warm(ctx context.Context, thumbSize int) (WarmStats, error) {
	entries := s.List()
	if thumbSize <= 0 {
		thumbSize = s.ThumbSize()
	}

	var palettes, thumbs, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.WarmFile(e.Path, thumbSize, &palettes, &thumbs, &failed)
			return nil
		})
	}
	err := g.Wait()

	if flushErr := s.palettes.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	return WarmStats{
		Files:      len(entries),
		Palettes:   int(palettes.Load()),
		Thumbnails: int(thumbs.Load()),
		Failed:     int(failed.Load()),
	}, err
}

// WarmFile caches the palette and thumbnail of one file. Counters may be nil.
func (s *Service) WarmFile(path string, thumbSize int, palettes, thumbs, failed *atomic.Int64) {
	if len(s.Palette(path, s.paletteSize)) > 0 && palettes != nil {
		palettes.Add(1)
	}
	if _, err := s.Thumbnail(path, thumbSize); err != nil {
		s.logger.Debug("thumbnail failed", "path", path, "error", err)
		if failed != nil {
			failed.Add(1)
		}
		return
	}
	if thumbs != nil {
		thumbs.Add(1)
	}
}

// PaletteCache exposes the palette cache for stats and clearing.
func (s *Service) PaletteCache() *cache.SignatureCache[[]string] {
	return s.palettes
}
