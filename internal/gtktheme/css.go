package gtktheme

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/archcrafter/loom/internal/colors"
)

// importRegex matches @import "file.css"; or @import 'file.css'; or @import url("file.css");
var importRegex = regexp.MustCompile(`@import\s+(?:url\s*\(\s*)?["']([^"']+)["']\s*\)?;?`)

// defineColorRegex matches @define-color name value;
var defineColorRegex = regexp.MustCompile(`@define-color\s+([A-Za-z0-9_-]+)\s+([^;]+);`)

// commentRegex matches /* ... */ blocks.
var commentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)

// maxAliasDepth bounds @name alias chains.
const maxAliasDepth = 12

// ProcessImports resolves and inlines @import statements in CSS.
// Imports are resolved relative to baseDir. The seen map prevents
// circular imports. resource:// and unreadable imports are left as comments.
func ProcessImports(css string, baseDir string, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	return importRegex.ReplaceAllStringFunc(css, func(match string) string {
		submatch := importRegex.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		importPath := submatch[1]
		if strings.Contains(importPath, "://") && !strings.HasPrefix(importPath, "file://") {
			return "/* import skipped: " + importPath + " */"
		}
		importPath = strings.TrimPrefix(importPath, "file://")

		fullPath := importPath
		if !filepath.IsAbs(importPath) {
			fullPath = filepath.Join(baseDir, importPath)
		}

		if seen[fullPath] {
			return "/* circular import prevented: " + importPath + " */"
		}
		seen[fullPath] = true

		importedCSS, err := os.ReadFile(fullPath)
		if err != nil {
			return "/* import failed: " + importPath + " */"
		}

		processed := ProcessImports(string(importedCSS), filepath.Dir(fullPath), seen)
		return "/* imported: " + importPath + " */\n" + processed
	})
}

// DefineColors returns the raw @define-color declarations in css.
// Later declarations override earlier ones, as in GTK.
func DefineColors(css string) map[string]string {
	css = commentRegex.ReplaceAllString(css, "")
	out := make(map[string]string)
	for _, m := range defineColorRegex.FindAllStringSubmatch(css, -1) {
		out[m[1]] = strings.TrimSpace(m[2])
	}
	return out
}

// ResolveColors resolves every declaration in defs to "#rrggbb".
// Declarations that cannot be resolved are omitted.
func ResolveColors(defs map[string]string) map[string]string {
	out := make(map[string]string, len(defs))
	for name := range defs {
		if hex, ok := resolveValue(defs[name], defs, 0); ok {
			out[name] = hex
		}
	}
	return out
}

// resolveValue evaluates a GTK colour expression: hex, rgb()/rgba(), a
// named colour, an @alias, or alpha()/shade()/mix()/lighter()/darker().
func resolveValue(value string, defs map[string]string, depth int) (string, bool) {
	if depth > maxAliasDepth {
		return "", false
	}
	value = strings.TrimSpace(value)

	if alias, ok := strings.CutPrefix(value, "@"); ok {
		next, found := defs[alias]
		if !found {
			return "", false
		}
		return resolveValue(next, defs, depth+1)
	}

	if strings.HasPrefix(value, "#") {
		return parseHexColor(value)
	}

	name, args, ok := splitCall(value)
	if !ok {
		return namedColor(value)
	}

	switch name {
	case "rgb", "rgba":
		return parseRGB(args)
	case "alpha":
		if len(args) != 2 {
			return "", false
		}
		return resolveValue(args[0], defs, depth+1)
	case "shade":
		if len(args) != 2 {
			return "", false
		}
		base, ok := resolveValue(args[0], defs, depth+1)
		factor, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
		if !ok || err != nil {
			return "", false
		}
		return shade(base, factor), true
	case "lighter":
		if len(args) != 1 {
			return "", false
		}
		base, ok := resolveValue(args[0], defs, depth+1)
		if !ok {
			return "", false
		}
		return shade(base, 1.3), true
	case "darker":
		if len(args) != 1 {
			return "", false
		}
		base, ok := resolveValue(args[0], defs, depth+1)
		if !ok {
			return "", false
		}
		return shade(base, 0.7), true
	case "mix":
		if len(args) != 3 {
			return "", false
		}
		a, okA := resolveValue(args[0], defs, depth+1)
		b, okB := resolveValue(args[1], defs, depth+1)
		ratio, err := strconv.ParseFloat(strings.TrimSpace(args[2]), 64)
		if !okA || !okB || err != nil {
			return "", false
		}
		return colors.Mix(a, b, ratio), true
	}
	return "", false
}

// splitCall splits "fn(a, b(c), d)" into fn and its top-level arguments.
func splitCall(value string) (string, []string, bool) {
	open := strings.IndexByte(value, '(')
	if open <= 0 || !strings.HasSuffix(value, ")") {
		return "", nil, false
	}
	name := strings.ToLower(strings.TrimSpace(value[:open]))
	inner := value[open+1 : len(value)-1]

	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(inner[start:]))
	return name, args, true
}

func parseHexColor(value string) (string, bool) {
	raw := strings.TrimPrefix(value, "#")
	switch len(raw) {
	case 4:
		raw = raw[:3]
	case 8:
		raw = raw[:6]
	}
	return colors.Normalize(raw)
}

// parseRGB converts rgb()/rgba() arguments (0-255 or percentages) to hex.
func parseRGB(args []string) (string, bool) {
	if len(args) < 3 {
		return "", false
	}
	var ch [3]int
	for i := 0; i < 3; i++ {
		arg := strings.TrimSpace(args[i])
		var v float64
		if pct, ok := strings.CutSuffix(arg, "%"); ok {
			f, err := strconv.ParseFloat(pct, 64)
			if err != nil {
				return "", false
			}
			v = f * 255 / 100
		} else {
			f, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return "", false
			}
			v = f
		}
		ch[i] = max(0, min(255, int(math.Round(v))))
	}
	return fmt.Sprintf("#%02x%02x%02x", ch[0], ch[1], ch[2]), true
}

var namedColors = map[string]string{
	"white":       "#ffffff",
	"black":       "#000000",
	"transparent": "#000000",
	"red":         "#ff0000",
	"green":       "#008000",
	"blue":        "#0000ff",
	"gray":        "#808080",
	"grey":        "#808080",
}

func namedColor(value string) (string, bool) {
	hex, ok := namedColors[strings.ToLower(value)]
	return hex, ok
}

// shade scales lightness and saturation the way GTK's shade() does, in
// HSL space.
func shade(hex string, factor float64) string {
	c := colors.ParseHex(hex)
	h, sat, l := colorful.Color{R: c.R, G: c.G, B: c.B}.Hsl()
	l = math.Max(0, math.Min(1, l*factor))
	sat = math.Max(0, math.Min(1, sat*factor))
	out := colorful.Hsl(h, sat, l)
	return colors.RGB{R: out.R, G: out.G, B: out.B}.Hex()
}
