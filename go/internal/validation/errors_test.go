package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	errs := Errors{}
	assert.NoError(t, errs.Err())

	errs.Add("password", "Password is required")
	errs.Add("password", "Password must be at least 6 characters")
	errs.Add("email", "Email is required")

	err := errs.Err()
	require.Error(t, err)
	assert.Equal(t, "email: Email is required; password: Password is required", err.Error())

	errs.Set("password", "replaced")
	assert.Equal(t, "replaced", errs["password"])

	wrapped := fmt.Errorf("validation failed: %w", err)
	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Email is required", got["email"])
}

func TestIsEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"student@nexora.com", true},
		{"a.b+c@sub.example.org", true},
		{"student@nexora", false},
		{"student nexora.com", false},
		{"@nexora.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEmail(tt.in))
		})
	}
}
