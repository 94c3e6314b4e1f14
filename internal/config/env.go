package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/clog"
)

const DefaultBaseURL = "https://api.letta.com"

type APIEnv struct {
	APIKey  string        `envconfig:"LETTA_API_KEY"`
	AgentID string        `envconfig:"LETTA_AGENT_ID"`
	BaseURL string        `envconfig:"LETTA_BASE_URL" default:"https://api.letta.com"`
	Timeout time.Duration `envconfig:"LETTA_HTTP_TIMEOUT" default:"30s"`
}

type StorageEnv struct {
	Type     string `envconfig:"LETTA_STORAGE_TYPE" default:"local"`
	ToolsDir string `envconfig:"LETTA_TOOLS_DIR" default:"tools"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"LETTA_S3_BUCKET"`
	S3Prefix string `envconfig:"LETTA_S3_PREFIX" default:"tools/"`
	S3Region string `envconfig:"LETTA_S3_REGION" default:"ap-northeast-1"`
}

type LogEnv struct {
	LogLevel  string `envconfig:"LETTA_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LETTA_LOG_FORMAT" default:"text"`
}

type Env struct {
	APIEnv
	StorageEnv
	LogEnv
	// RedactSecret is replaced by a placeholder in pulled source code.
	RedactSecret string `envconfig:"DISCORD_BOT_TOKEN"`
}

// LoadEnv reads the process environment, after merging a .env file from the
// working directory when one exists. Variables already set take precedence.
func LoadEnv() (*Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	var env Env
	// Variable names are spelled out in the tags, so no prefix.
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// RequireAPIKey must pass before any request is sent.
func (e *APIEnv) RequireAPIKey() error {
	if e.APIKey == "" {
		return cerr.NewError(cerr.MissingCredential, "LETTA_API_KEY environment variable not set", nil)
	}
	return nil
}

// ResolveAgentID prefers an explicit argument over LETTA_AGENT_ID.
func (e *APIEnv) ResolveAgentID(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if e.AgentID != "" {
		return e.AgentID, nil
	}
	return "", cerr.NewError(cerr.MissingAgentID, "LETTA_AGENT_ID not set and no agent ID provided", nil)
}

func (e *LogEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	return clog.ParseLevel(e.LogLevel)
}
