package tools

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Tool is a capability provider the planner can schedule and the executor can invoke.
//
// Invoke should report expected upstream failures (not found, API error status)
// as a descriptive text result and reserve the error return for failures it
// cannot describe that way, such as transport errors or invalid arguments.
type Tool interface {
	Name() string                                                    // Unique tool name
	Description() string                                             // Capability summary shown to the planner
	Parameters() []ParameterDef                                      // Accepted arguments
	Invoke(ctx context.Context, args map[string]any) (string, error) // Perform one call
}

// ParameterDef parameter definition
type ParameterDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string" | "integer" | "number" | "boolean"
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// stringArg returns a trimmed string argument, or "" when absent or not a string.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// intArg returns an integral argument, or def when absent.
// JSON numbers arrive as float64 or json.Number depending on the decoder.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
