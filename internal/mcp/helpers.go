package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// optionalJSON decodes the named string argument into target when present.
func optionalJSON(req mcp.CallToolRequest, name string, target any) (bool, error) {
	raw := req.GetString(name, "")
	if raw == "" {
		return false, nil
	}
	if err := parseJSON(raw, target); err != nil {
		return false, fmt.Errorf("invalid %s JSON: %w", name, err)
	}
	return true, nil
}

// splitIDs splits a comma-separated id list, dropping blanks.
func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
