package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boardvec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
provider:
  base_url: https://api.example.com
  access_token: tok-123
reader:
  base_url: https://reader.example.com
ai:
  embedding_host: http://localhost:9100
  embedding_model: nomic-embed-text
storage:
  path: /tmp/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, "tok-123", cfg.Provider.AccessToken)
	assert.Equal(t, "https://reader.example.com", cfg.Reader.BaseURL)
	assert.Equal(t, "http://localhost:9100", cfg.AI.EmbeddingHost)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  base_url: https://api.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, cfg.AI.EmbeddingHost, cfg.AI.VisionHost)
	assert.Equal(t, "embeddinggemma", cfg.AI.EmbeddingModel)
	assert.Equal(t, "llava", cfg.AI.VisionModel)
	assert.Equal(t, "boardvec.db", cfg.Storage.Path)
	assert.Equal(t, 50, cfg.Quota.FreeLifetimeLimit)
	assert.Equal(t, 25, cfg.Quota.FreeChannelLimit)
}

func TestLoadMissingProviderURL(t *testing.T) {
	path := writeConfig(t, `
reader:
  base_url: https://reader.example.com
`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOARDVEC_PROVIDER_TOKEN", "env-provider")
	t.Setenv("BOARDVEC_AI_TOKEN", "env-ai")

	path := writeConfig(t, `
provider:
  base_url: https://api.example.com
  access_token: file-token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-provider", cfg.Provider.AccessToken)
	assert.Equal(t, "env-ai", cfg.AI.APIToken)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, 2000, cfg.Quota.ProMonthly)
}
