package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fleetdocs/internal/domain"
)

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)\\s*```")

// Placeholder strings providers use for missing values.
var blankValues = map[string]struct{}{
	"null": {}, "n/a": {}, "na": {}, "none": {}, "not found": {}, "not available": {}, "-": {},
}

// StripCodeFences removes a markdown code fence around a JSON reply and any
// chatter before or after the outermost object.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

// ParseFieldMap decodes a provider reply into a FieldMap covering the
// schema. Keys outside the schema are dropped; missing keys stay blank.
func ParseFieldMap(schema domain.Schema, raw string) (*domain.FieldMap, error) {
	text := StripCodeFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty reply")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("parsing reply JSON: %w (raw: %s)", err, Truncate(text, 300))
	}
	if inner, ok := obj["data"].(map[string]any); ok && len(obj) <= 2 {
		obj = inner
	}

	lowered := make(map[string]any, len(obj))
	for k, v := range obj {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}

	fm := schema.NewFieldMap()
	for _, name := range fm.Names() {
		v, ok := obj[name]
		if !ok {
			v, ok = lowered[name]
		}
		if ok {
			fm.Set(name, stringify(v))
		}
	}
	return fm, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		if _, blank := blankValues[strings.ToLower(strings.TrimSpace(t))]; blank {
			return ""
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
