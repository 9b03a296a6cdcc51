package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("NATS_URL", "")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRoutesCommands(t *testing.T) {
	out := execute(t, "routes", "list")
	assert.Contains(t, out, "/main-dashboard")
	assert.Contains(t, out, "public")

	out = execute(t, "--storage", "memory", "routes", "resolve", "/rewards-and-achievements")
	assert.Contains(t, out, "redirect to /user-authentication")
	assert.Contains(t, out, "return to /rewards-and-achievements after login")

	out = execute(t, "--storage", "memory", "routes", "resolve", "/missing")
	assert.Contains(t, out, "render * (not-found)")
}

func TestProgressCommand(t *testing.T) {
	out := execute(t, "--storage", "memory", "progress", "--json")
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.EqualValues(t, 240, view["daily_goal"])

	out = execute(t, "--storage", "memory", "progress")
	assert.Contains(t, out, "Level      1")
}

func TestRewardsCommands(t *testing.T) {
	out := execute(t, "--storage", "memory", "rewards", "list")
	assert.Contains(t, out, "0 points available")

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--storage", "memory", "rewards", "redeem", "1"})
	assert.Error(t, cmd.Execute())

	cmd = rootCmd()
	cmd.SetArgs([]string{"--storage", "memory", "rewards", "redeem", "abc"})
	assert.Error(t, cmd.Execute())
}

func TestInvalidConfigOverride(t *testing.T) {
	t.Setenv("NATS_URL", "")
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--storage", "mongo", "progress"})
	assert.Error(t, cmd.Execute())
}
