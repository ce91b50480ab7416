package wallpaper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/archcrafter/loom/internal/cache"
	"github.com/archcrafter/loom/internal/colors"
	"github.com/archcrafter/loom/internal/sysexec"
)

// Palette returns up to count representative colours for path, served from
// the signature cache when the file is unchanged.
func (s *Service) Palette(path string, count int) []string {
	if count <= 0 {
		count = s.paletteSize
	}
	key := cache.Key(path, strconv.Itoa(count))

	palette, _ := s.palettes.GetOrCompute(key, func() ([]string, error) {
		p, err := colors.PaletteFromFile(path, count)
		if err != nil {
			s.logger.Debug("palette extraction failed, using fallback", "path", path, "error", err)
		}
		return p, nil
	})
	if len(palette) > count {
		palette = palette[:count]
	}
	return append([]string(nil), palette...)
}

// Similar returns colours near the given base palette.
func (s *Service) Similar(base []string) []string {
	return colors.Similar(base)
}

// Theory returns colour-theory companions for the given base palette.
func (s *Service) Theory(base []string) []string {
	return colors.Theory(base)
}

// RecentSwatches returns the most recently used colorize colours, newest first.
func (s *Service) RecentSwatches() []string {
	values, ok := s.section.StringSlice(keyRecentSwatches)
	if !ok {
		return []string{}
	}
	return colors.Unique(values, recentSwatchLimit)
}

// RecordSwatch moves hex to the front of the recent swatches list.
func (s *Service) RecordSwatch(hex string) error {
	normalized := colors.Unique([]string{hex}, 1)
	if len(normalized) == 0 {
		return nil
	}
	color := normalized[0]

	current, _ := s.section.StringSlice(keyRecentSwatches)
	merged := []string{color}
	for _, c := range colors.Unique(current, 64) {
		if c != color {
			merged = append(merged, c)
		}
	}
	if len(merged) > recentSwatchCap {
		merged = merged[:recentSwatchCap]
	}
	s.section.Set(keyRecentSwatches, toAny(merged))
	return s.save()
}

// safeStem replaces every non-alphanumeric rune with '_' and keeps at most 48 runes.
func safeStem(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	runes := make([]rune, 0, len(stem))
	for _, r := range stem {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, '_')
		}
		if len(runes) == 48 {
			break
		}
	}
	return string(runes)
}

// ColorizedName returns the file name of the variant of src tinted with color.
func ColorizedName(src, color string, strength int) string {
	digest := cache.HashString(src)[:10]
	tag := strings.ToLower(strings.TrimPrefix(color, "#"))
	return fmt.Sprintf("%s_%s_%s_%d.png", safeStem(src), digest, tag, strength)
}

// Colorize writes a tinted copy of src into the colorized dir using
// ImageMagick and returns its path. An existing variant is reused.
func (s *Service) Colorize(ctx context.Context, src, color string, strength int) (string, error) {
	if info, err := os.Stat(src); err != nil || info.IsDir() {
		return "", fmt.Errorf("source image not found: %w", ErrNotFound)
	}
	normalized, ok := colors.Normalize(color)
	if !ok {
		return "", fmt.Errorf("invalid colour %q", color)
	}
	strength = clampInt(strength, StrengthMin, StrengthMax)

	out := filepath.Join(s.colorizedDir, ColorizedName(src, normalized, strength))
	if _, err := os.Stat(out); err == nil {
		return out, s.RecordSwatch(normalized)
	}

	magick := sysexec.MagickBinary(s.runner)
	if magick == "" {
		return "", ErrMagickMissing
	}

	_, err := s.runner.Run(ctx, magick, src, "-fill", normalized, "-colorize", strconv.Itoa(strength), out)
	if err != nil {
		os.Remove(out)
		return "", fmt.Errorf("colorize failed: %w", err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("colorize produced no output: %w", err)
	}

	s.logger.Debug("created colorized variant", "src", src, "out", out)
	return out, s.RecordSwatch(normalized)
}
