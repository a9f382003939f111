package tools

// EmptyRequest represents a request with no parameters.
// Used by tools that don't require any input arguments.
type EmptyRequest struct{}

// Argument helpers shared by tool handlers. MCP arguments arrive as
// map[string]interface{} with JSON types, so numbers are float64.

// StringArg returns a string argument or the default when absent.
func StringArg(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// BoolArg returns a boolean argument or the default when absent.
func BoolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// IntArg returns an integer argument or the default when absent.
func IntArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
