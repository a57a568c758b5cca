// internal/app/system/auth/respond.go
package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/learnhub/internal/app/system/identity"
	"github.com/dalemusser/learnhub/internal/app/system/limits"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"message","code"} with its status.
// Unclassified errors are rendered as AUTH_SYSTEM_ERROR. The cause of a
// system error is never sent to the client.
func WriteError(w http.ResponseWriter, err error) {
	e := identity.AsError(err)
	WriteJSON(w, e.Status, ErrorBody{Message: e.Message, Code: string(e.Code)})
}

// DecodeJSON reads a JSON request body of at most limits.MaxJSONBodySize
// into v. An empty body leaves v untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
