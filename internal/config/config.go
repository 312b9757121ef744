// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// secretKeySize is the AES-256 key length VAULTPANEL_SECRET_KEY must decode to.
const secretKeySize = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SupabaseURL     string
	SupabaseAnonKey string
	ListenAddr      string
	DBPath          string
	// SecretKey enables encrypted session persistence; nil keeps the session
	// in memory only.
	SecretKey     []byte
	DatabaseURL   string
	ToastDuration time.Duration
	HTTPTimeout   time.Duration
	SecureCookies bool
}

// PersistsSession reports whether the backend session survives restarts.
func (c *Config) PersistsSession() bool {
	return c.SecretKey != nil
}

// UsesDirectDatabase reports whether entries are read from Postgres directly
// instead of through the data API.
func (c *Config) UsesDirectDatabase() bool {
	return c.DatabaseURL != ""
}

// LoadDotEnv seeds the environment from the given .env files. Variables that
// are already set win, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a validated Config.
// VAULTPANEL_SUPABASE_URL and VAULTPANEL_SUPABASE_ANON_KEY are required.
// Optional variables with defaults: VAULTPANEL_LISTEN_ADDR (127.0.0.1:8080),
// VAULTPANEL_DB_PATH (vaultpanel.db), VAULTPANEL_TOAST_DURATION (3s),
// VAULTPANEL_HTTP_TIMEOUT (30s), VAULTPANEL_SECURE_COOKIES (false).
// VAULTPANEL_SECRET_KEY and VAULTPANEL_DATABASE_URL are optional.
func Load() (*Config, error) {
	supabaseURL := strings.TrimSpace(os.Getenv("VAULTPANEL_SUPABASE_URL"))
	if supabaseURL == "" {
		return nil, errors.New("VAULTPANEL_SUPABASE_URL is required")
	}
	u, err := url.Parse(supabaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("VAULTPANEL_SUPABASE_URL %q must be an http(s) URL", supabaseURL)
	}

	anonKey := strings.TrimSpace(os.Getenv("VAULTPANEL_SUPABASE_ANON_KEY"))
	if anonKey == "" {
		return nil, errors.New("VAULTPANEL_SUPABASE_ANON_KEY is required")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("VAULTPANEL_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	dbPath := "vaultpanel.db"
	if v, ok := os.LookupEnv("VAULTPANEL_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	var secretKey []byte
	if v := strings.TrimSpace(os.Getenv("VAULTPANEL_SECRET_KEY")); v != "" {
		secretKey, err = parseSecretKey(v)
		if err != nil {
			return nil, fmt.Errorf("VAULTPANEL_SECRET_KEY: %w", err)
		}
	}

	toastDuration, err := durationEnv("VAULTPANEL_TOAST_DURATION", 3*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := durationEnv("VAULTPANEL_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	secureCookies := false
	if v, ok := os.LookupEnv("VAULTPANEL_SECURE_COOKIES"); ok && v != "" {
		secureCookies, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VAULTPANEL_SECURE_COOKIES has invalid boolean %q: %w", v, err)
		}
	}

	return &Config{
		SupabaseURL:     strings.TrimRight(supabaseURL, "/"),
		SupabaseAnonKey: anonKey,
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		SecretKey:       secretKey,
		DatabaseURL:     strings.TrimSpace(os.Getenv("VAULTPANEL_DATABASE_URL")),
		ToastDuration:   toastDuration,
		HTTPTimeout:     httpTimeout,
		SecureCookies:   secureCookies,
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

// parseSecretKey accepts a 32-byte key as 64 hex characters or as standard
// base64.
func parseSecretKey(v string) ([]byte, error) {
	if len(v) == hex.EncodedLen(secretKeySize) {
		if key, err := hex.DecodeString(v); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, errors.New("must be 64 hex characters or base64")
	}
	if len(key) != secretKeySize {
		return nil, fmt.Errorf("must decode to %d bytes, got %d", secretKeySize, len(key))
	}
	return key, nil
}
