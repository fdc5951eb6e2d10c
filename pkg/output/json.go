package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes data as indented JSON.
func JSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the JSON envelope for errors, shared by the CLI and the
// HTTP API.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Hint    string         `json:"hint,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// JSONError writes a structured error. Write failures are ignored.
func JSONError(w io.Writer, code, msg, hint string, details map[string]any) {
	_ = JSON(w, ErrorResponse{Error: msg, Code: code, Hint: hint, Details: details})
}
