package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"single", "SELECT value FROM kv WHERE key = ?", "SELECT value FROM kv WHERE key = $1"},
		{"several", "INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)", "INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.query))
		})
	}
}
