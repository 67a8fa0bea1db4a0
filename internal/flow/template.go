package flow

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prompt templates use {{field}} placeholders bound to input fields and
// {{#if field}}...{{/if}} sections that render only when the governing
// optional field is present and non-empty.

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if\s+([a-zA-Z0-9_]+)\s*\}\}(.*?)\{\{/if\}\}`)
	placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)
)

// Render substitutes input fields into the template.
func Render(template string, input map[string]interface{}) string {
	out := conditionalRe.ReplaceAllStringFunc(template, func(match string) string {
		groups := conditionalRe.FindStringSubmatch(match)
		field, body := groups[1], groups[2]
		if present(input[field]) {
			return body
		}
		return ""
	})

	out = placeholderRe.ReplaceAllStringFunc(out, func(match string) string {
		groups := placeholderRe.FindStringSubmatch(match)
		if v, ok := input[groups[1]]; ok && v != nil {
			return formatValue(v)
		}
		return ""
	})

	return strings.TrimSpace(out)
}

func present(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	case bool:
		return val
	}
	return true
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case []interface{}, map[string]interface{}:
		b, err := json.Marshal(val)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}
