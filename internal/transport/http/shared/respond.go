// Package shared holds response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "onboard/pkg/domain-errors"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error to its HTTP status and writes the standard
// error envelope. Unknown errors become 500 with a generic message so
// internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	var body errorBody
	body.Error.Code = string(code)
	if code == dErrors.CodeInternal {
		body.Error.Message = "internal error"
	} else {
		body.Error.Message = err.Error()
	}
	WriteJSON(w, dErrors.HTTPStatus(code), body)
}
