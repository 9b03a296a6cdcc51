package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/validation"
)

var errMissing = errors.New("missing")

func TestError(t *testing.T) {
	statuses := map[error]int{errMissing: http.StatusNotFound}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantFields bool
	}{
		{"mapped sentinel", fmt.Errorf("lookup: %w", errMissing), http.StatusNotFound, false},
		{"validation", validation.Errors{"email": "Email is required"}, http.StatusBadRequest, true},
		{"bad request", fmt.Errorf("%w: nope", ErrBadRequest), http.StatusBadRequest, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
		{"mapped with fields", fmt.Errorf("%w: %w", errMissing, validation.Errors{"general": "not here"}), http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err, statuses)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantFields, len(body.Fields) > 0)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var p payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Deep"}`))
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, "Deep", p.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, DecodeJSON(req, &p))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	assert.ErrorIs(t, DecodeJSON(req, &p), ErrBadRequest)
}
