package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every VAULTPANEL_ env var that Load() reads.
var allConfigKeys = []string{
	"VAULTPANEL_SUPABASE_URL",
	"VAULTPANEL_SUPABASE_ANON_KEY",
	"VAULTPANEL_LISTEN_ADDR",
	"VAULTPANEL_DB_PATH",
	"VAULTPANEL_SECRET_KEY",
	"VAULTPANEL_DATABASE_URL",
	"VAULTPANEL_TOAST_DURATION",
	"VAULTPANEL_HTTP_TIMEOUT",
	"VAULTPANEL_SECURE_COOKIES",
}

// isolateConfigEnv saves and unsets all VAULTPANEL_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VAULTPANEL_SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("VAULTPANEL_SUPABASE_ANON_KEY", "anon-key")
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)
	t.Setenv("VAULTPANEL_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("VAULTPANEL_DB_PATH", "/tmp/test.db")
	t.Setenv("VAULTPANEL_SECRET_KEY", strings.Repeat("ab", 32))
	t.Setenv("VAULTPANEL_DATABASE_URL", "postgres://localhost/vault")
	t.Setenv("VAULTPANEL_TOAST_DURATION", "5s")
	t.Setenv("VAULTPANEL_HTTP_TIMEOUT", "10s")
	t.Setenv("VAULTPANEL_SECURE_COOKIES", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://project.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon-key", cfg.SupabaseAnonKey)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Len(t, cfg.SecretKey, 32)
	assert.True(t, cfg.PersistsSession())
	assert.True(t, cfg.UsesDirectDatabase())
	assert.Equal(t, 5*time.Second, cfg.ToastDuration)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.SecureCookies)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "vaultpanel.db", cfg.DBPath)
	assert.Nil(t, cfg.SecretKey)
	assert.False(t, cfg.PersistsSession())
	assert.False(t, cfg.UsesDirectDatabase())
	assert.Equal(t, 3*time.Second, cfg.ToastDuration)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.SecureCookies)
}

func TestLoad_MissingRequired(t *testing.T) {
	isolateConfigEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULTPANEL_SUPABASE_URL")

	t.Setenv("VAULTPANEL_SUPABASE_URL", "https://project.supabase.co")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULTPANEL_SUPABASE_ANON_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"VAULTPANEL_SUPABASE_URL":   "project.supabase.co",
		"VAULTPANEL_SECRET_KEY":     "short",
		"VAULTPANEL_TOAST_DURATION": "soon",
		"VAULTPANEL_HTTP_TIMEOUT":   "-1s",
		"VAULTPANEL_SECURE_COOKIES": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			isolateConfigEnv(t)
			setRequired(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestParseSecretKey(t *testing.T) {
	hexKey, err := parseSecretKey(strings.Repeat("0f", 32))
	require.NoError(t, err)
	assert.Len(t, hexKey, 32)

	b64Key, err := parseSecretKey("AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	require.NoError(t, err)
	assert.Equal(t, byte(31), b64Key[31])

	_, err = parseSecretKey("AAECAwQ=")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	isolateConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"VAULTPANEL_SUPABASE_URL=https://from-file.supabase.co\nVAULTPANEL_SUPABASE_ANON_KEY=file-key\n",
	), 0o600))
	t.Setenv("VAULTPANEL_SUPABASE_ANON_KEY", "env-key")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://from-file.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "env-key", cfg.SupabaseAnonKey, "existing environment wins over the file")
}
