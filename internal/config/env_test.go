package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/lettatool/pkg/cerr"
)

var envKeys = []string{
	"LETTA_API_KEY", "LETTA_AGENT_ID", "LETTA_BASE_URL", "LETTA_HTTP_TIMEOUT",
	"DISCORD_BOT_TOKEN", "LETTA_STORAGE_TYPE", "LETTA_TOOLS_DIR",
	"LETTA_S3_BUCKET", "LETTA_S3_PREFIX", "LETTA_S3_REGION",
	"LETTA_LOG_LEVEL", "LETTA_LOG_FORMAT",
}

// unsetEnv removes every variable LoadEnv reads for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadEnv_Defaults(t *testing.T) {
	unsetEnv(t)
	chdir(t, t.TempDir())

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, env.BaseURL)
	assert.Equal(t, 30*time.Second, env.Timeout)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, "tools", env.ToolsDir)
	assert.Equal(t, "tools/", env.S3Prefix)
	assert.Equal(t, "ap-northeast-1", env.S3Region)
	assert.Equal(t, slog.LevelInfo, env.SlogLevel())
	assert.Empty(t, env.APIKey)
	assert.Empty(t, env.RedactSecret)
}

func TestLoadEnv_FromEnvironment(t *testing.T) {
	unsetEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("LETTA_API_KEY", "sk-test")
	t.Setenv("LETTA_AGENT_ID", "agent-1")
	t.Setenv("LETTA_HTTP_TIMEOUT", "5s")
	t.Setenv("DISCORD_BOT_TOKEN", "secret")
	t.Setenv("LETTA_LOG_LEVEL", "debug")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", env.APIKey)
	assert.Equal(t, "agent-1", env.AgentID)
	assert.Equal(t, 5*time.Second, env.Timeout)
	assert.Equal(t, "secret", env.RedactSecret)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_DotEnv(t *testing.T) {
	unsetEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("LETTA_API_KEY=from-file\nLETTA_AGENT_ID=agent-file\n"), 0o600))
	t.Setenv("LETTA_AGENT_ID", "agent-env")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-file", env.APIKey)
	assert.Equal(t, "agent-env", env.AgentID, "process environment wins over .env")
}

func TestLoadEnv_InvalidTimeout(t *testing.T) {
	unsetEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("LETTA_HTTP_TIMEOUT", "soon")

	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestAPIEnv_RequireAPIKey(t *testing.T) {
	err := (&APIEnv{}).RequireAPIKey()
	assert.True(t, cerr.IsCode(err, cerr.MissingCredential))
	assert.NoError(t, (&APIEnv{APIKey: "k"}).RequireAPIKey())
}

func TestAPIEnv_ResolveAgentID(t *testing.T) {
	tests := []struct {
		name     string
		env      APIEnv
		explicit string
		want     string
		wantErr  bool
	}{
		{name: "explicit wins", env: APIEnv{AgentID: "env"}, explicit: "arg", want: "arg"},
		{name: "falls back to env", env: APIEnv{AgentID: "env"}, want: "env"},
		{name: "neither", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.env.ResolveAgentID(tt.explicit)
			if tt.wantErr {
				assert.True(t, cerr.IsCode(err, cerr.MissingAgentID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
