package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, feeding stdin and capturing stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "defaults", level: "", format: ""},
		{name: "debug console", level: "debug", format: "console"},
		{name: "json", level: "warn", format: "json"},
		{name: "bad level", level: "loud", format: "console", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set("logging.level", tt.level)
			viper.Set("logging.format", tt.format)
			t.Cleanup(func() {
				viper.Set("logging.level", "info")
				viper.Set("logging.format", "console")
			})

			err := setupLogging()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLocalSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret")

	first, err := localSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := localSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A secret too short to sign with is replaced.
	require.NoError(t, os.WriteFile(path, []byte("short\n"), 0o600))
	replaced, err := localSecret(path)
	require.NoError(t, err)
	assert.Len(t, replaced, 64)
	assert.NotEqual(t, first, replaced)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "smarttrack dev\n", out)
}

func TestCommands_EndToEnd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SMARTTRACK_RESPONDER_MODE", "rules")
	t.Setenv("SMARTTRACK_APP_TIMEZONE", "UTC")
	t.Setenv("SMARTTRACK_AMQP_URL", "")

	_, err := execute(t, "", "auth", "whoami")
	require.ErrorIs(t, err, errNotSignedIn)

	out, err := execute(t, "", "auth", "signup", "--email", "Asha@Example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "asha@example.com")
	assert.FileExists(t, filepath.Join(home, ".config", "smarttrack", "token"))
	assert.FileExists(t, filepath.Join(home, ".config", "smarttrack", "smarttrack.db"))

	out, err = execute(t, "", "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "asha@example.com")

	out, err = execute(t, "", "seed", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 8 sample payments")

	out, err = execute(t, "", "ask", "how much on food?")
	require.NoError(t, err)
	assert.Contains(t, out, "₹615")

	out, err = execute(t, "", "history", "--category", "food")
	require.NoError(t, err)
	assert.Contains(t, out, "Swiggy")
	assert.NotContains(t, out, "Uber")

	out, err = execute(t, "1\n", "simulate", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Got it! Saved")

	out, err = execute(t, "", "summary", "--json", "--top=-1")
	require.NoError(t, err)
	var summary struct {
		Count      int `json:"count"`
		Categories []struct {
			Category string `json:"category"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 9, summary.Count)
	assert.Len(t, summary.Categories, 6)

	out, err = execute(t, "", "backup", filepath.Join(home, "copy.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up 9 transactions and 1 users")
	assert.FileExists(t, filepath.Join(home, "copy.db"))

	statement := filepath.Join("testdata", "statement.ofx")
	out, err = execute(t, "", "import", "ofx", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 payments")

	out, err = execute(t, "", "import", "ofx", statement)
	require.NoError(t, err)
	assert.Contains(t, out, "All 3 payments were already imported")

	out, err = execute(t, "", "history", "--category", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "15 Jan 2025")

	_, err = execute(t, "", "auth", "signout")
	require.NoError(t, err)

	_, err = execute(t, "", "auth", "whoami")
	require.ErrorIs(t, err, errNotSignedIn)
}

func TestSeedRequiresDemoFlag(t *testing.T) {
	cmd := seedCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "pass --demo")
}
