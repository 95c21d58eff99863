package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  readTimeout: 5s
ai:
  apiKey: file-key
  requestTimeout: 30s
store:
  driver: postgres
  host: db
  port: 5432
  user: app
  password: "p@ss"
  name: skillscope
auth:
  mode: jwt
  jwtSecret: s3cret
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("LOVABLE_API_KEY", "env-key")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, "redis", cfg.Feed.Driver)
	assert.Equal(t, "redis:6379", cfg.Feed.Redis.Addr)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/skillscope?sslmode=disable", cfg.PostgresDSN())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("AI_API_KEY", "k")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "none", cfg.Auth.Mode)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults with key", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"unknown auth", func(c *Config) { c.Auth.Mode = "oauth" }, "auth.mode"},
		{"jwt without secret", func(c *Config) { c.Auth.Mode = "jwt" }, "jwtSecret"},
		{"supabase without url", func(c *Config) { c.Store.Driver = "supabase" }, "supabase"},
		{"bedrock needs no key", func(c *Config) { c.AI.Provider = "Bedrock"; c.AI.APIKey = "" }, ""},
		{"gateway needs key", func(c *Config) { c.AI.APIKey = "" }, "apiKey"},
		{"redis without addr", func(c *Config) { c.Feed.Driver = "redis" }, "feed.redis.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.AI.APIKey = "k"
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	c := Default()
	c.Store.User, c.Store.Password, c.Store.Host, c.Store.Port, c.Store.Name = "u", "p", "h", 3306, "d"
	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())

	c.Store.URL = "custom"
	assert.Equal(t, "custom", c.MySQLDSN())
}
