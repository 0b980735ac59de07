package tools

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StringArg returns a string argument.
func StringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok
}

// BoolArg returns a boolean argument, or fallback when absent.
func BoolArg(args map[string]any, key string, fallback bool) bool {
	if b, ok := args[key].(bool); ok {
		return b
	}
	return fallback
}

// IntArg returns an integer argument. JSON numbers decode as float64.
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	}
	return fallback
}

// StringSliceArg returns an array-of-strings argument.
func StringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// FormatValue renders a handler value as text: strings verbatim, numbers
// in shortest form, everything else as JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// ParseArgs converts string values (form fields, --arg flags) to call
// arguments using the function's schema types. Array values may be repeated
// or comma-separated. filepath and all_records are never taken from values.
func ParseArgs(tool *Tool, values map[string][]string) (map[string]any, error) {
	args := make(map[string]any)
	for name, prop := range tool.Schema.Properties {
		if name == "filepath" || name == "all_records" {
			continue
		}
		vs := values[name]
		if len(vs) == 0 {
			continue
		}
		raw := strings.TrimSpace(vs[0])
		switch prop.Type {
		case "boolean":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidArgType, name)
			}
			args[name] = b
		case "integer":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgType, name)
			}
			args[name] = n
		case "number":
			x, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidArgType, name)
			}
			args[name] = x
		case "array":
			var items []any
			for _, v := range vs {
				for _, part := range strings.Split(v, ",") {
					if p := strings.TrimSpace(part); p != "" {
						items = append(items, p)
					}
				}
			}
			args[name] = items
		default:
			args[name] = vs[0]
		}
	}
	return args, nil
}
