package listing

import (
	"regexp"
	"strings"
)

// dateRule recognises one upstream date shape and rewrites it as YYYY.MM.DD.
type dateRule struct {
	name    string
	pattern *regexp.Regexp
	format  func(input string, match []string) string
}

// dateRules are tried in order; the first matching rule wins.
var dateRules = []dateRule{
	{
		name:    "compact",
		pattern: regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`),
		format: func(_ string, m []string) string {
			return m[1] + "." + m[2] + "." + m[3]
		},
	},
	{
		// Ranges such as "2025.1.5~2025.1.7" keep only the first date.
		name:    "dotted",
		pattern: regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})`),
		format: func(_ string, m []string) string {
			return m[1] + "." + padTwo(m[2]) + "." + padTwo(m[3])
		},
	},
	{
		// Only the dashes are rewritten, so "2025-11-29T20:00" keeps its
		// time suffix. Display code depends on this shape.
		name:    "iso",
		pattern: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`),
		format: func(input string, _ []string) string {
			return strings.ReplaceAll(input, "-", ".")
		},
	},
}

// NormalizeDate converts an upstream date string into YYYY.MM.DD form.
// Returns false when the input is absent or matches none of the known shapes;
// that is an expected outcome, not an error.
func NormalizeDate(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if absentTokens[s] {
		return "", false
	}

	for _, rule := range dateRules {
		if m := rule.pattern.FindStringSubmatch(s); m != nil {
			return rule.format(s, m), true
		}
	}
	return "", false
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// DateFields lists the upstream date fields in priority order.
var DateFields = []string{
	"dispStartDttm",
	"perfStartDay",
	"startDate",
	"playStartDate",
	"prodStartDate",
	"periodInfo",
	"playPeriod",
	"date",
}

// ResolveDate returns the first field in DateFields that is present and
// accepted by NormalizeDate, or Unscheduled.
func ResolveDate(rec Record) string {
	for _, field := range DateFields {
		raw, ok := rec.value(field)
		if !ok {
			continue
		}
		if date, ok := NormalizeDate(raw); ok {
			return date
		}
	}
	return Unscheduled
}
