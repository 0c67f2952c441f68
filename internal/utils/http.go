package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WriteJSON marshals data and writes it as the response body with the
// given status code. The Content-Type header is set before the status
// line. A marshaling failure answers 500 and returns the wrapped error;
// nothing of the payload reaches the client in that case.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "response serialization failed", http.StatusInternalServerError)
		return 0, fmt.Errorf("marshal response body: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(body)
}
