package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, "blog", cfg.MongoDB)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE=memory\nTOKEN_TTL=1h\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("SECRET_KEY", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("STORE")
		os.Unsetenv("TOKEN_TTL")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "from-env", cfg.SecretKey)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("STORE", "cassandra")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")

	for name, env := range map[string][2]string{
		"malformed token ttl": {"TOKEN_TTL", "a week"},
		"zero token ttl":      {"TOKEN_TTL", "0s"},
		"negative token ttl":  {"TOKEN_TTL", "-1h"},
		"zero cache ttl":      {"SUMMARY_CACHE_TTL", "0"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorIs(t, err, ErrBadTTL)
		})
	}
}
