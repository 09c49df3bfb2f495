package config

import (
	"os"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal time.Duration
		expected   time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "30m", time.Hour, 30 * time.Minute},
		{"uses default for empty", "TEST_DUR_2", "", time.Hour, time.Hour},
		{"uses default for garbage", "TEST_DUR_3", "soon", time.Hour, time.Hour},
		{"uses default for negative", "TEST_DUR_4", "-5s", time.Hour, time.Hour},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				t.Setenv(tc.key, tc.envValue)
			}

			result := getEnvAsDurationOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, result)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/smartstudy")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("TUTOR_MAX_RETRIES", "")

	cfg := Load()
	if !cfg.IsProduction() {
		t.Error("Expected production env")
	}
	if cfg.LogFormat != "json" {
		t.Errorf("Expected json log format in production, got %q", cfg.LogFormat)
	}
	if cfg.TutorMaxRetries != 3 {
		t.Errorf("Expected 3 tutor retries, got %d", cfg.TutorMaxRetries)
	}
	if cfg.TutorRetryDelay != 2*time.Second {
		t.Errorf("Expected 2s retry delay, got %s", cfg.TutorRetryDelay)
	}
	if cfg.ReminderPollInterval != time.Hour {
		t.Errorf("Expected hourly reminder poll, got %s", cfg.ReminderPollInterval)
	}
}

func TestLoad_GeminiTutorDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/smartstudy")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TUTOR_PROVIDER", "gemini")
	t.Setenv("TUTOR_MODEL", "")

	cfg := Load()
	if cfg.TutorModel != "gemini-1.5-flash" {
		t.Errorf("Expected gemini default model, got %q", cfg.TutorModel)
	}
}
