package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	// Keep ambient env from bleeding into the default-value assertions.
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if recover() == nil {
			t.Fatal("MustLoad should panic when Load fails")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_DefaultsAreValid(t *testing.T) {
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatal("MustLoad returned an empty base path")
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // unknown mode normalizes to release

	t.Setenv("LOG_LEVEL", "warning") // alias for warn
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/")

	t.Setenv("DB_PATH", "db.sqlite")

	// Unparsable numbers fall back to their defaults.
	t.Setenv("RATE_RPS", "x")
	t.Setenv("RATE_BURST", "nope")

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("OPENAI_MAX_TOKENS", "512")
	t.Setenv("OPENAI_MAX_RETRIES", "5")
	t.Setenv("OPENAI_INITIAL_DELAY", "250ms")
	t.Setenv("MOVIE_API_URL", "https://movies.example.com")
	t.Setenv("MOVIE_API_KEY", "mk-test")
	t.Setenv("MOVIE_API_TIMEOUT", "5s")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second || cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second || cfg.MaxHeaderBytes != 8192 {
		t.Fatalf("server fields: %+v", cfg)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want normalized release", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn (alias of warning)", cfg.LogLevel)
	}
	if !cfg.LogPretty || !cfg.SwaggerEnabled {
		t.Fatalf("bool flags: %+v", cfg)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate fields should keep defaults on bad parse: %+v", cfg)
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins = %#v, want %#v", cfg.CORS.AllowedOrigins, want)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security: %+v", cfg.Security)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4o" ||
		cfg.OpenAI.Temperature != 0.2 || cfg.OpenAI.MaxTokens != 512 ||
		cfg.OpenAI.MaxRetries != 5 || cfg.OpenAI.InitialDelay != 250*time.Millisecond {
		t.Fatalf("openai: %+v", cfg.OpenAI)
	}
	if cfg.MovieAPI.BaseURL != "https://movies.example.com" ||
		cfg.MovieAPI.APIKey != "mk-test" || cfg.MovieAPI.Timeout != 5*time.Second {
		t.Fatalf("movie api: %+v", cfg.MovieAPI)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure ||
		cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel: %+v", cfg.OTEL)
	}
}

func TestLoad_ClientDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.Model != "gpt-4o-mini" ||
		cfg.OpenAI.MaxRetries != 3 || cfg.OpenAI.InitialDelay != time.Second {
		t.Fatalf("openai defaults: %+v", cfg.OpenAI)
	}
	if cfg.MovieAPI.BaseURL != "" || cfg.MovieAPI.Timeout != 10*time.Second {
		t.Fatalf("movie api defaults: %+v", cfg.MovieAPI)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default: %q", cfg.APIBasePath)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		key, val, wantErr string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"PORT", "   ", "PORT must not be empty"},
		{"READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"DB_PATH", "   ", "DB_PATH must not be empty"},
		{"RATE_RPS", "-1", "RATE_RPS"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"OPENAI_MAX_RETRIES", "-1", "OPENAI_MAX_RETRIES"},
		{"OPENAI_INITIAL_DELAY", "0s", "OPENAI_INITIAL_DELAY"},
		{"MOVIE_API_TIMEOUT", "0s", "MOVIE_API_TIMEOUT"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Load() error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnvReaders(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if envStr("X_EMPTY", "d") != "d" {
		t.Fatal("empty var should yield the default")
	}
	t.Setenv("X_SET", "val")
	if envStr("X_SET", "d") != "val" {
		t.Fatal("set var should be read")
	}

	t.Setenv("F_OK", "3.14")
	t.Setenv("F_BAD", "nope")
	if envFloat("F_OK", 0) != 3.14 || envFloat("F_BAD", 1.23) != 1.23 {
		t.Fatal("envFloat parse/fallback broken")
	}

	t.Setenv("I_OK", "42")
	t.Setenv("I_BAD", "x")
	if envInt("I_OK", 0) != 42 || envInt("I_BAD", 7) != 7 {
		t.Fatal("envInt parse/fallback broken")
	}

	t.Setenv("D_OK", "150ms")
	t.Setenv("D_BAD", "zzz")
	if envDur("D_OK", time.Second) != 150*time.Millisecond || envDur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatal("envDur parse/fallback broken")
	}
}

func TestEnvBool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"} {
		key := fmt.Sprintf("B_T_%d", i)
		t.Setenv(key, v)
		if !envBool(key, false) {
			t.Fatalf("envBool(%q) = false, want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off", "Off"} {
		key := fmt.Sprintf("B_F_%d", i)
		t.Setenv(key, v)
		if envBool(key, true) {
			t.Fatalf("envBool(%q) = true, want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !envBool("B_EMPTY", true) || envBool("B_EMPTY", false) {
		t.Fatal("empty var should yield the default")
	}
}

func TestCSVList(t *testing.T) {
	if out := csvList(""); out != nil {
		t.Fatalf("csvList(\"\") = %#v, want nil", out)
	}
	want := []string{"a", "b", "c"}
	if got := csvList(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, want) {
		t.Fatalf("csvList = %#v, want %#v", got, want)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{" / ", "/"},
		{"v1", "/v1"},
		{"/v1/", "/v1"},
		{"api/v1/", "/api/v1"},
		{"/api/v1", "/api/v1"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
