package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/validation"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes payload with status.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write json response")
	}
}

// Error writes err. The status comes from the first matching entry in statuses;
// otherwise field validation errors and ErrBadRequest map to 400 and anything else
// to 500. Field messages are always included.
func Error(w http.ResponseWriter, err error, statuses map[error]int) {
	fields, invalid := validation.As(err)

	status := http.StatusInternalServerError
	if invalid || errors.Is(err, ErrBadRequest) {
		status = http.StatusBadRequest
	}
	for target, code := range statuses {
		if errors.Is(err, target) {
			status = code
			break
		}
	}

	body := ErrorBody{Error: err.Error(), Fields: fields}
	if invalid && status == http.StatusBadRequest {
		body.Error = "validation failed"
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	JSON(w, status, body)
}

// DecodeJSON reads a JSON request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// ErrBadRequest marks malformed request bodies and parameters.
var ErrBadRequest = errors.New("bad request")
