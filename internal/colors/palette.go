package colors

import (
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	// Register decoders for the wallpaper formats imaging doesn't cover.
	_ "golang.org/x/image/webp"
)

// FallbackPalette is returned when an image yields no usable colours.
var FallbackPalette = []string{"#4c566a", "#5e81ac", "#88c0d0", "#a3be8c", "#ebcb8b"}

const (
	paletteSampleSize  = 80
	paletteSampleTotal = 1800
	quantStep          = 24
	minPaletteDistance = 30
	minAlpha           = 20
)

// DecodeFile opens and decodes an image, applying EXIF orientation.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

type bucket struct {
	rgb   [3]int
	count int
	first int
}

// ExtractPalette picks up to count representative colours from img.
//
// The image is shrunk to fit 80x80, sampled on a grid, quantized to
// steps of 24 per channel and ranked by frequency; colours closer than 30
// to an already picked one are skipped. Near-transparent pixels are ignored.
// An image with no usable pixels yields nil.
func ExtractPalette(img image.Image, count int) []string {
	if count <= 0 {
		count = len(FallbackPalette)
	}

	small := imaging.Fit(img, paletteSampleSize, paletteSampleSize, imaging.Box)
	bounds := small.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	step := max(1, (width*height)/paletteSampleTotal)

	buckets := make(map[[3]int]*bucket)
	order := 0
	for y := 0; y < height; y += step {
		row := y * small.Stride
		for x := 0; x < width; x += step {
			i := row + x*4
			if small.Pix[i+3] < minAlpha {
				continue
			}
			key := [3]int{
				int(small.Pix[i]) / quantStep * quantStep,
				int(small.Pix[i+1]) / quantStep * quantStep,
				int(small.Pix[i+2]) / quantStep * quantStep,
			}
			b, ok := buckets[key]
			if !ok {
				b = &bucket{rgb: key, first: order}
				buckets[key] = b
				order++
			}
			b.count++
		}
	}

	ranked := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ranked = append(ranked, b)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	var picked [][3]int
	for _, b := range ranked {
		distinct := true
		for _, p := range picked {
			if Distance(b.rgb, p) < minPaletteDistance {
				distinct = false
				break
			}
		}
		if distinct {
			picked = append(picked, b.rgb)
		}
		if len(picked) >= count {
			break
		}
	}

	out := make([]string, 0, len(picked))
	for _, p := range picked {
		out = append(out, fmt.Sprintf("#%02x%02x%02x", p[0], p[1], p[2]))
	}
	return out
}

// PaletteFromFile decodes path and extracts a palette, falling back to
// FallbackPalette when decoding fails or no colours are found.
func PaletteFromFile(path string, count int) ([]string, error) {
	if count <= 0 {
		count = len(FallbackPalette)
	}
	img, err := DecodeFile(path)
	if err != nil {
		return fallback(count), err
	}
	colors := ExtractPalette(img, count)
	if len(colors) == 0 {
		return fallback(count), nil
	}
	return colors, nil
}

func fallback(count int) []string {
	n := min(count, len(FallbackPalette))
	return append([]string(nil), FallbackPalette[:n]...)
}
