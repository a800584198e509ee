package listing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a raw upstream object decoded with json.Decoder.UseNumber.
type Record map[string]any

// absentTokens are string values treated the same as a missing field.
var absentTokens = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
}

// String returns the first field among keys holding a usable scalar value.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		if s, ok := r.value(key); ok {
			return s
		}
	}
	return ""
}

// value reads key as a trimmed string. Numbers and booleans are formatted;
// objects, arrays and absent tokens report false.
func (r Record) value(key string) (string, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return "", false
	}

	var s string
	switch tv := v.(type) {
	case string:
		s = tv
	case json.Number:
		s = tv.String()
	case float64:
		s = strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		s = strconv.Itoa(tv)
	case bool:
		s = strconv.FormatBool(tv)
	default:
		return "", false
	}

	s = strings.TrimSpace(s)
	if absentTokens[s] {
		return "", false
	}
	return s, true
}
