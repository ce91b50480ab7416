package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/archcrafter/loom/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // name, title, path, kind, comment, color, current, dark, colorized, modified, size
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex    *regexp.Regexp
	cutoff   time.Time
	sizeVal  int64
	boolVal  bool
	colorVal string
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies simple criteria for filtering items.
type FilterOptions struct {
	Kind        string        // Exact match on kind ("" = any)
	Since       time.Duration // Only items modified within this window (0 = all)
	CurrentOnly bool          // Only the item currently in use
	Limit       int           // Maximum results (0 = unlimited)
}

// Filter filters items based on the provided options.
func Filter(items []model.Item, opts FilterOptions) []model.Item {
	now := time.Now()
	result := make([]model.Item, 0, len(items))

	for _, item := range items {
		if opts.Kind != "" && item.Kind != opts.Kind {
			continue
		}
		if opts.Since > 0 && item.ModTimeTime().Before(now.Add(-opts.Since)) {
			continue
		}
		if opts.CurrentOnly && !item.Current {
			continue
		}
		result = append(result, item)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "0" || s == "" {
		return 0, nil
	}

	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Examples:
//   - "name~forest" - name contains "forest"
//   - "dark=true" - dark themes only
//   - "colorized=false,size>2MB" - large originals
//   - "modified<7d" - untouched for a week
//   - "color=#5e81ac" - palette contains the colour
func ParseFilter(expr string) (*FilterExpr, error) {
	if expr == "" {
		return &FilterExpr{}, nil
	}

	filter := &FilterExpr{
		Conditions: make([]FilterCondition, 0),
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "name=Arc" or "path~dark".
func parseCondition(s string) (FilterCondition, error) {
	// Longest operators first so "!=" isn't read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpRegex,
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
			}
			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}
			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "name", "id":
		c.Field = "name"
	case "title", "display":
		c.Field = "title"
	case "path", "file":
		c.Field = "path"
	case "kind", "type":
		c.Field = "kind"
	case "comment", "description":
		c.Field = "comment"
	case "color", "colour":
		c.Field = "color"
		c.colorVal = strings.ToLower(strings.TrimSpace(c.Value))
		if !strings.HasPrefix(c.colorVal, "#") {
			c.colorVal = "#" + c.colorVal
		}
	case "current", "active":
		c.Field = "current"
		c.boolVal = parseBool(c.Value)
	case "dark":
		c.boolVal = parseBool(c.Value)
	case "colorized", "colourised":
		c.Field = "colorized"
		c.boolVal = parseBool(c.Value)
	case "modified", "mtime", "time":
		c.Field = "modified"
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid modified value: %w", err)
		}
		c.cutoff = time.Now().Add(-dur)
	case "size":
		n, err := humanize.ParseBytes(c.Value)
		if err != nil {
			return fmt.Errorf("invalid size value: %w", err)
		}
		c.sizeVal = int64(n)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}
	return nil
}

// parseBool parses various boolean representations.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y", "t":
		return true
	default:
		return false
	}
}

// Match tests if an item matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(item model.Item) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(item) {
			return false
		}
	}
	return true
}

// Match tests if an item matches this single condition.
func (c *FilterCondition) Match(item model.Item) bool {
	switch c.Field {
	case "name":
		return c.matchString(item.Name)
	case "title":
		return c.matchString(item.Title())
	case "path":
		return c.matchString(item.Path)
	case "kind":
		return c.matchString(item.Kind)
	case "comment":
		return c.matchString(item.Comment)
	case "color":
		return c.matchColor(item.Colors)
	case "current":
		return c.matchBool(item.Current)
	case "dark":
		return c.matchBool(item.Dark)
	case "colorized":
		return c.matchBool(item.Colorized)
	case "modified":
		return c.matchTime(item.ModTimeTime())
	case "size":
		return c.matchInt(item.Size, c.sizeVal)
	default:
		return false
	}
}

func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

func (c *FilterCondition) matchColor(colors []string) bool {
	found := false
	for _, col := range colors {
		if strings.EqualFold(col, c.colorVal) {
			found = true
			break
		}
	}
	switch c.Operator {
	case FilterOpEqual, FilterOpContains:
		return found
	case FilterOpNotEqual:
		return !found
	default:
		return false
	}
}

func (c *FilterCondition) matchInt(fieldValue, condValue int64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == condValue
	case FilterOpNotEqual:
		return fieldValue != condValue
	case FilterOpGreater:
		return fieldValue > condValue
	case FilterOpLess:
		return fieldValue < condValue
	case FilterOpGreaterEq:
		return fieldValue >= condValue
	case FilterOpLessEq:
		return fieldValue <= condValue
	default:
		return false
	}
}

func (c *FilterCondition) matchBool(fieldValue bool) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.boolVal
	case FilterOpNotEqual:
		return fieldValue != c.boolVal
	default:
		return false
	}
}

// matchTime compares against now-duration: "modified>1h" means within the last hour.
func (c *FilterCondition) matchTime(fieldValue time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return fieldValue.After(c.cutoff)
	case FilterOpLess:
		return fieldValue.Before(c.cutoff)
	case FilterOpGreaterEq:
		return !fieldValue.Before(c.cutoff)
	case FilterOpLessEq:
		return !fieldValue.After(c.cutoff)
	default:
		return false
	}
}

// FilterWithExpr filters items using a filter expression.
func FilterWithExpr(items []model.Item, expr *FilterExpr) []model.Item {
	if expr == nil || len(expr.Conditions) == 0 {
		return items
	}

	result := make([]model.Item, 0, len(items))
	for _, item := range items {
		if expr.Match(item) {
			result = append(result, item)
		}
	}
	return result
}
