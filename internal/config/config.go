package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	AI struct {
		// Provider is gateway (OpenAI-compatible) or bedrock.
		Provider       string        `yaml:"provider"`
		BaseURL        string        `yaml:"baseURL"`
		APIKey         string        `yaml:"apiKey"`
		Model          string        `yaml:"model"`
		RequestTimeout time.Duration `yaml:"requestTimeout"`
		MaxTokens      int           `yaml:"maxTokens"`
		Breaker        struct {
			Enabled      bool          `yaml:"enabled"`
			MaxRequests  uint32        `yaml:"maxRequests"`
			Interval     time.Duration `yaml:"interval"`
			Timeout      time.Duration `yaml:"timeout"`
			FailureRatio float64       `yaml:"failureRatio"`
			MinRequests  uint32        `yaml:"minRequests"`
		} `yaml:"breaker"`
		Bedrock struct {
			Region  string `yaml:"region"`
			ModelID string `yaml:"modelId"`
		} `yaml:"bedrock"`
	} `yaml:"ai"`

	Store struct {
		// Driver is memory, postgres, mysql or supabase.
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Migrate  bool   `yaml:"migrate"`
		Supabase struct {
			URL        string `yaml:"url"`
			ServiceKey string `yaml:"serviceKey"`
		} `yaml:"supabase"`
		// MindMaps is default (same driver) or dynamodb.
		MindMaps string `yaml:"mindMaps"`
		DynamoDB struct {
			Region string `yaml:"region"`
			Table  string `yaml:"table"`
		} `yaml:"dynamodb"`
	} `yaml:"store"`

	Feed struct {
		// Driver is memory or redis.
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"feed"`

	Minio struct {
		Enabled    bool          `yaml:"enabled"`
		Endpoint   string        `yaml:"endpoint"`
		AccessKey  string        `yaml:"accessKey"`
		SecretKey  string        `yaml:"secretKey"`
		BucketName string        `yaml:"bucketName"`
		Region     string        `yaml:"region"`
		UseSSL     bool          `yaml:"useSSL"`
		PresignTTL time.Duration `yaml:"presignTTL"`
	} `yaml:"minio"`

	Auth struct {
		// Mode is none, jwt or supabase.
		Mode        string `yaml:"mode"`
		JWTSecret   string `yaml:"jwtSecret"`
		Issuer      string `yaml:"issuer"`
		Audience    string `yaml:"audience"`
		DefaultUser string `yaml:"defaultUser"`
	} `yaml:"auth"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	Tracing struct {
		Exporter    string  `yaml:"exporter"`
		Endpoint    string  `yaml:"endpoint"`
		Insecure    bool    `yaml:"insecure"`
		ServiceName string  `yaml:"serviceName"`
		SampleRatio float64 `yaml:"sampleRatio"`
	} `yaml:"tracing"`

	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
}

// Default returns the settings used for keys the file and environment leave unset.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.CORSOrigins = []string{"*"}

	c.AI.Provider = "gateway"
	c.AI.BaseURL = "https://ai.gateway.lovable.dev/v1"
	c.AI.Model = "google/gemini-2.5-flash"
	c.AI.RequestTimeout = 60 * time.Second
	c.AI.MaxTokens = 4096
	c.AI.Breaker.Enabled = true
	c.AI.Breaker.MaxRequests = 3
	c.AI.Breaker.Interval = 60 * time.Second
	c.AI.Breaker.Timeout = 30 * time.Second
	c.AI.Breaker.FailureRatio = 0.6
	c.AI.Breaker.MinRequests = 5
	c.AI.Bedrock.Region = "us-east-1"
	c.AI.Bedrock.ModelID = "anthropic.claude-3-5-haiku-20241022-v1:0"

	c.Store.Driver = "memory"
	c.Store.SSLMode = "disable"
	c.Store.Migrate = true
	c.Store.MindMaps = "default"
	c.Store.DynamoDB.Table = "mindmaps"

	c.Feed.Driver = "memory"
	c.Minio.PresignTTL = 24 * time.Hour

	c.Auth.Mode = "none"
	c.Auth.DefaultUser = "local-user"

	c.RateLimit.RequestsPerSecond = 2
	c.RateLimit.Burst = 10

	c.Tracing.Exporter = "none"
	c.Tracing.ServiceName = "skillscope"
	c.Tracing.SampleRatio = 1

	c.Log.Mode = "production"
	return &c
}

// Load reads .env (when present), then the YAML file at path (when present),
// then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	str(&c.AI.Provider, "AI_PROVIDER")
	str(&c.AI.BaseURL, "AI_BASE_URL")
	str(&c.AI.APIKey, "AI_API_KEY", "LOVABLE_API_KEY")
	str(&c.AI.Model, "AI_MODEL")
	str(&c.Store.Driver, "STORE_DRIVER")
	str(&c.Store.URL, "DATABASE_URL")
	str(&c.Store.Supabase.URL, "SUPABASE_URL")
	str(&c.Store.Supabase.ServiceKey, "SUPABASE_SERVICE_KEY")
	str(&c.Auth.Mode, "AUTH_MODE")
	str(&c.Auth.JWTSecret, "JWT_SECRET")
	str(&c.Log.Mode, "LOG_MODE")

	var addr string
	str(&addr, "REDIS_ADDR")
	if addr != "" {
		c.Feed.Redis.Addr = addr
		c.Feed.Driver = "redis"
	}

	var port string
	str(&port, "SERVER_PORT")
	if port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("SERVER_PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	return nil
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s %q: want one of %s", name, v, strings.Join(allowed, ", "))
}

// Validate rejects unknown drivers and modes, and settings a driver cannot start without.
func (c *Config) Validate() error {
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	c.Store.MindMaps = strings.ToLower(c.Store.MindMaps)
	c.Feed.Driver = strings.ToLower(c.Feed.Driver)
	c.Auth.Mode = strings.ToLower(c.Auth.Mode)
	c.Tracing.Exporter = strings.ToLower(c.Tracing.Exporter)

	errs := []error{
		oneOf("ai.provider", c.AI.Provider, "gateway", "bedrock"),
		oneOf("store.driver", c.Store.Driver, "memory", "postgres", "mysql", "supabase"),
		oneOf("store.mindMaps", c.Store.MindMaps, "default", "dynamodb"),
		oneOf("feed.driver", c.Feed.Driver, "memory", "redis"),
		oneOf("auth.mode", c.Auth.Mode, "none", "jwt", "supabase"),
		oneOf("tracing.exporter", c.Tracing.Exporter, "none", "stdout", "otlp"),
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.AI.Provider == "gateway" && c.AI.APIKey == "" {
		errs = append(errs, errors.New("ai.apiKey (AI_API_KEY or LOVABLE_API_KEY) is required for the gateway provider"))
	}
	if c.Auth.Mode == "jwt" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret is required for auth mode jwt"))
	}
	needsSupabase := c.Store.Driver == "supabase" || c.Auth.Mode == "supabase"
	if needsSupabase && (c.Store.Supabase.URL == "" || c.Store.Supabase.ServiceKey == "") {
		errs = append(errs, errors.New("store.supabase url and serviceKey are required"))
	}
	if c.Feed.Driver == "redis" && c.Feed.Redis.Addr == "" {
		errs = append(errs, errors.New("feed.redis.addr is required for the redis feed"))
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rateLimit.requestsPerSecond must not be negative"))
	}
	return errors.Join(errs...)
}

// PostgresDSN prefers store.url and otherwise builds a lib/pq URL.
func (c *Config) PostgresDSN() string {
	if c.Store.URL != "" {
		return c.Store.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Store.User, c.Store.Password),
		Host:     fmt.Sprintf("%s:%d", c.Store.Host, c.Store.Port),
		Path:     "/" + c.Store.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Store.SSLMode),
	}
	return u.String()
}

// MySQLDSN prefers store.url and otherwise builds a go-sql-driver DSN.
func (c *Config) MySQLDSN() string {
	if c.Store.URL != "" {
		return c.Store.URL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Store.User,
		c.Store.Password,
		c.Store.Host,
		c.Store.Port,
		c.Store.Name,
	)
}
