package colors

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

type svMul struct{ s, v float64 }

var (
	similarHueOffsets = []float64{0.0, 0.03, -0.03, 0.07, -0.07, 0.12, -0.12}
	similarMuls       = []svMul{{1.0, 1.0}, {1.1, 1.0}, {0.9, 1.1}, {1.2, 0.95}}

	// Analogous, complement, split-complement, triadic and square offsets.
	theoryDegrees = []float64{0, 30, -30, 180, 150, -150, 120, -120, 90, -90}
	theoryMuls    = []svMul{{1.0, 1.0}, {0.85, 1.08}, {1.15, 0.92}}
	monoValues    = []float64{0.28, 0.42, 0.56, 0.70, 0.84, 0.95}
)

const (
	similarLimit = 30
	theoryLimit  = 36
)

// hsv returns hue in turns [0, 1), saturation and value.
func hsv(hex string) (h, s, v float64) {
	c := ParseHex(hex)
	deg, s, v := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsv()
	return deg / 360.0, s, v
}

func fromHSV(h, s, v float64) string {
	c := colorful.Hsv(wrapTurn(h)*360.0, s, v)
	return RGB{R: c.R, G: c.G, B: c.B}.Hex()
}

// wrapTurn maps h into [0, 1) the way a floored modulo does.
func wrapTurn(h float64) float64 {
	h = math.Mod(h, 1.0)
	if h < 0 {
		h += 1.0
	}
	return h
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Similar returns up to 30 colours near the first five base colours,
// varying hue slightly and nudging saturation and value.
func Similar(base []string) []string {
	seeds := base
	if len(seeds) > 5 {
		seeds = seeds[:5]
	}
	if len(seeds) == 0 {
		seeds = []string{DefaultSeed}
	}

	var result []string
	for _, seed := range seeds {
		h, s, v := hsv(seed)
		for _, dh := range similarHueOffsets {
			for _, m := range similarMuls {
				ns := clamp(s*m.s, 0.18, 1.0)
				nv := clamp(v*m.v, 0.2, 1.0)
				result = append(result, fromHSV(h+dh, ns, nv))
			}
		}
	}
	return Unique(result, similarLimit)
}

// Theory returns up to 36 colour-theory companions (analogous, complementary,
// split-complementary, triadic, square and monochromatic) for the first
// three distinct base colours.
func Theory(base []string) []string {
	seeds := Unique(base, 3)
	if len(seeds) == 0 {
		seeds = []string{"#5E81AC"}
	}

	var result []string
	for _, seed := range seeds {
		h, s, v := hsv(seed)
		for _, deg := range theoryDegrees {
			nh := h + deg/360.0
			for _, m := range theoryMuls {
				ns := clamp(s*m.s, 0.18, 1.0)
				nv := clamp(v*m.v, 0.16, 1.0)
				result = append(result, fromHSV(nh, ns, nv))
			}
		}

		monoSat := math.Max(0.12, s*0.75)
		for _, vv := range monoValues {
			result = append(result, fromHSV(h, monoSat, vv))
		}
	}
	return Unique(result, theoryLimit)
}
