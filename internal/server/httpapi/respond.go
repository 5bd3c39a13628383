package httpapi

import (
	"encoding/json"
	"net/http"
)

// writeJSON encodes v as the response body. v may be a map, a struct or
// a bare slice of validation messages.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the single-field {"error": msg} shape used across
// the API.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
