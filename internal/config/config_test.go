package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_BACKEND", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 5, cfg.NotifyBurst)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("HTTP_ADDR=:9999\nNTFY_TOPIC=https://ntfy.sh/orders\n"), 0o600))

	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("NTFY_TOPIC", "")
	t.Setenv("JWT_SECRET", "x")

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Empty(t, cfg.NtfyTopic)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"mongo without uri", map[string]string{"STORE_BACKEND": "mongo", "MONGO_URI": ""}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "postgres"}},
		{"prod without secret", map[string]string{"ENV": "prod", "JWT_SECRET": ""}},
		{"bad ttl", map[string]string{"JWT_TTL": "soon"}},
		{"bad bool", map[string]string{"MONGO_TRANSACTIONS": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "dev")
			t.Setenv("JWT_SECRET", "x")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "none.env"))
			assert.Error(t, err)
		})
	}
}
