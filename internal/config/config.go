// Package config loads the application configuration from environment
// variables. Every knob has a safe default so the binary starts with an empty
// environment; validation catches values that would misbehave at runtime
// (zero timeouts, out-of-range sample ratios) rather than letting them fail
// deep inside a request.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the origins allowed to call the API from a browser. Empty
// means allow-all.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig controls the HSTS response header.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig controls OpenTelemetry trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port of the collector
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE, plaintext gRPC when true
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// OpenAIConfig configures the chat-completion client behind recommendations
// and the chat endpoint. MaxRetries bounds transport/server failures only;
// 429 responses are waited out for as long as the request context allows.
type OpenAIConfig struct {
	APIKey       string        // OPENAI_API_KEY
	BaseURL      string        // OPENAI_BASE_URL
	Model        string        // OPENAI_MODEL
	Temperature  float64       // OPENAI_TEMPERATURE
	MaxTokens    int           // OPENAI_MAX_TOKENS
	MaxRetries   int           // OPENAI_MAX_RETRIES
	InitialDelay time.Duration // OPENAI_INITIAL_DELAY, backoff base
}

// MovieAPIConfig configures the outbound streaming-availability search
// provider. An empty BaseURL disables the search endpoint.
type MovieAPIConfig struct {
	BaseURL string        // MOVIE_API_URL
	APIKey  string        // MOVIE_API_KEY
	Timeout time.Duration // MOVIE_API_TIMEOUT
}

// Config is the full runtime configuration, grouped by concern.
type Config struct {
	// HTTP server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging and docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Storage
	DBPath string // SQLite file path

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Edge protection
	CORS     CORSConfig
	Security SecurityConfig

	// Outbound clients
	OpenAI   OpenAIConfig
	MovieAPI MovieAPIConfig

	// Tracing
	OTEL OTELConfig
}

// MustLoad is Load for main(): a config error at boot is fatal, so panic.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment, fills in defaults, normalizes a few lenient
// inputs, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              envStr("PORT", "8080"),
		ReadTimeout:       envDur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      envDur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       envDur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    envInt("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(envStr("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(envStr("LOG_LEVEL", "info")),
		LogPretty:      envBool("LOG_PRETTY", false),
		SwaggerEnabled: envBool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(envStr("API_BASE_PATH", "/api/v1")),

		DBPath: envStr("DB_PATH", "app.db"),

		RateRPS:   envFloat("RATE_RPS", 5.0),
		RateBurst: envInt("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: csvList(envStr("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: envBool("ENABLE_HSTS", false),
			HSTSMaxAge: envDur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OpenAI: OpenAIConfig{
			APIKey:       envStr("OPENAI_API_KEY", ""),
			BaseURL:      envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:        envStr("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:  envFloat("OPENAI_TEMPERATURE", 0.7),
			MaxTokens:    envInt("OPENAI_MAX_TOKENS", 1000),
			MaxRetries:   envInt("OPENAI_MAX_RETRIES", 3),
			InitialDelay: envDur("OPENAI_INITIAL_DELAY", time.Second),
		},
		MovieAPI: MovieAPIConfig{
			BaseURL: envStr("MOVIE_API_URL", ""),
			APIKey:  envStr("MOVIE_API_KEY", ""),
			Timeout: envDur("MOVIE_API_TIMEOUT", 10*time.Second),
		},

		OTEL: OTELConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			Endpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: envStr("OTEL_SERVICE_NAME", "go-subscriptions-backend"),
			SampleRatio: envFloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// normalize smooths over inputs that are wrong in spirit but obvious in
// intent: "warning" for "warn", unknown Gin modes fall back to release.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

// validate rejects values that would break the server at runtime. The first
// violation wins; the error names the offending variable.
func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if c.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if c.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if c.OpenAI.MaxRetries < 0 {
		return errors.New("OPENAI_MAX_RETRIES must be >= 0")
	}
	if c.OpenAI.InitialDelay <= 0 {
		return errors.New("OPENAI_INITIAL_DELAY must be > 0")
	}
	if c.MovieAPI.Timeout <= 0 {
		return errors.New("MOVIE_API_TIMEOUT must be > 0")
	}
	if c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// Env readers. Unset and empty are treated the same, and an unparsable value
// falls back to the default rather than erroring: a typo'd RATE_RPS should
// not take the service down.

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// csvList splits a comma-separated value into trimmed, non-empty entries.
// Returns nil for an empty input so callers can test "configured at all".
func csvList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath forces a leading slash and strips any trailing one, so
// "/api/v1", "api/v1" and "api/v1/" all mount the same group.
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
