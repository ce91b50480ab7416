// Package colors implements the colour heuristics used for wallpaper
// palettes, swatch suggestions and light/dark classification.
package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is a colour with channels in [0, 1].
type RGB struct {
	R, G, B float64
}

// DefaultSeed is used when no base colours are supplied.
const DefaultSeed = "#5e81ac"

// LightThreshold is the luminance at or above which a colour counts as light.
const LightThreshold = 0.56

// ParseHex parses "#rrggbb" (leading # optional).
// Anything else yields mid grey, matching how swatches degrade in the UI.
func ParseHex(hex string) RGB {
	value := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(value) != 6 {
		return RGB{0.5, 0.5, 0.5}
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return RGB{0.5, 0.5, 0.5}
	}
	return RGB{
		R: float64((n>>16)&0xff) / 255.0,
		G: float64((n>>8)&0xff) / 255.0,
		B: float64(n&0xff) / 255.0,
	}
}

// Hex formats the colour as lowercase "#rrggbb", clamping each channel.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

// channel scales v to 0-255, rounding halves to even.
func channel(v float64) int {
	n := int(math.RoundToEven(v * 255))
	return max(0, min(255, n))
}

// Bytes returns the channels scaled to 0-255.
func (c RGB) Bytes() (r, g, b int) {
	return channel(c.R), channel(c.G), channel(c.B)
}

// Luminance returns the Rec. 709 relative luminance in [0, 1].
func (c RGB) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Normalize converts "#RRGGBB", "rrggbb" or "#rgb" to lowercase "#rrggbb".
func Normalize(s string) (string, bool) {
	value := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(value) == 3 {
		value = string([]byte{value[0], value[0], value[1], value[1], value[2], value[2]})
	}
	if len(value) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(value, 16, 32); err != nil {
		return "", false
	}
	return "#" + value, true
}

// Unique normalizes colours and removes duplicates, keeping first
// occurrences in order. Invalid entries are skipped. limit <= 0 means no limit.
func Unique(colors []string, limit int) []string {
	seen := make(map[string]bool, len(colors))
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		n, ok := Normalize(c)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Mix linearly interpolates from base towards target. ratio is clamped to [0, 1].
func Mix(base, target string, ratio float64) string {
	ratio = math.Max(0, math.Min(1, ratio))
	b := ParseHex(base)
	t := ParseHex(target)
	return RGB{
		R: b.R + (t.R-b.R)*ratio,
		G: b.G + (t.G-b.G)*ratio,
		B: b.B + (t.B-b.B)*ratio,
	}.Hex()
}

// IsLight reports whether the colour's luminance is at least LightThreshold.
func IsLight(hex string) bool {
	return ParseHex(hex).Luminance() >= LightThreshold
}

// Distance is the euclidean distance between two 0-255 RGB triples.
func Distance(a, b [3]int) float64 {
	dr := float64(a[0] - b[0])
	dg := float64(a[1] - b[1])
	db := float64(a[2] - b[2])
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// BadgeColors returns a translucent CSS background and a contrasting text
// colour for the given badge colour. Invalid input uses the default blue.
func BadgeColors(hex string) (background, text string) {
	raw := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(raw) != 6 {
		raw = "1482C8"
	}
	n, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		n = 0x1482c8
	}
	r, g, b := int((n>>16)&0xff), int((n>>8)&0xff), int(n&0xff)

	lum := (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255.0
	text = "#ffffff"
	if lum > 0.62 {
		text = "#111111"
	}
	return fmt.Sprintf("rgba(%d, %d, %d, 0.88)", r, g, b), text
}
