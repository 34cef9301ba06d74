package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
port = "9090"
cors_allowed_origins = ["https://learn.example.com"]

[db]
driver = "sqlite"
sqlite_path = "/tmp/lingua-test.db"

[auth]
jwt_secret_key = "from-file"
access_token_ttl = 900

[extraction]
provider = "gemini"
gemini_api_key = "g-key"
max_images = 3
openai_temperature = 0.3

[playback]
voices = ["de-DE-Neural2-A", "de-DE-Neural2-B"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lingua.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{ConfigPathEnv, "PORT", "DB_DRIVER", "EXTRACT_PROVIDER", "ACCESS_TOKEN_TTL", "CATALOG_CACHE_TTL"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "none", cfg.Extraction.Provider)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 10*time.Minute, cfg.TreeTTL())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, sampleTOML)
	t.Setenv("JWT_SECRET_KEY", "from-env")
	t.Setenv("EXTRACT_MAX_IMAGES", "5")
	t.Setenv("TTS_VOICES", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/lingua-test.db", cfg.DB.SQLitePath)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecretKey, "env wins over file")
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, "gemini", cfg.Extraction.Provider)
	assert.Equal(t, 5, cfg.Extraction.MaxImages)
	require.NotNil(t, cfg.Extraction.OpenAITemperature)
	assert.InDelta(t, 0.3, *cfg.Extraction.OpenAITemperature, 1e-9)
	assert.Equal(t, []string{"de-DE-Neural2-A", "de-DE-Neural2-B"}, cfg.Playback.Voices)
	assert.Equal(t, []string{"https://learn.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.DB.AutoMigrate, "unset keys keep their defaults")
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	t.Setenv(ConfigPathEnv, writeConfig(t, `port = "7000"`))
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Address())
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"bad toml":     `port = `,
		"bad driver":   "[db]\ndriver = \"mysql\"",
		"bad provider": "[extraction]\nprovider = \"claude\"",
		"bad ttl":      "[auth]\naccess_token_ttl = 0",
		"bad limits":   "[extraction]\nmax_edge_px = -1",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
