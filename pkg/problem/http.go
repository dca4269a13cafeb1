package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dwsmith1983/outcome/pkg/outcome"
)

// Write sends resp: content type, status line, then the JSON body.
func Write(w http.ResponseWriter, resp Response) error {
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		return fmt.Errorf("write %d response: %w", resp.StatusCode, err)
	}
	return nil
}

// Render builds the response for o, attaches the request context of r and writes it.
func Render[T any](w http.ResponseWriter, r *http.Request, o outcome.Outcome[T], opts ...Option) (Response, error) {
	resp := New(o, opts...).WithRequest(RequestInfoFrom(r))
	return resp, Write(w, resp)
}
