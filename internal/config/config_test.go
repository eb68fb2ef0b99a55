package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default http addr: %q", cfg.HTTPAddr)
	}
	if cfg.FPLBaseURL != "https://fantasy.premierleague.com/api" {
		t.Fatalf("unexpected default FPL base url: %q", cfg.FPLBaseURL)
	}
	if cfg.SnapshotTTL != 24*time.Hour {
		t.Fatalf("unexpected default snapshot ttl: %s", cfg.SnapshotTTL)
	}
	if cfg.SnapshotRefreshInterval != cfg.SnapshotTTL {
		t.Fatalf("refresh interval should default to the ttl, got %s", cfg.SnapshotRefreshInterval)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("unexpected default gemini model: %q", cfg.GeminiModel)
	}
	if cfg.HistoryDBPath != "" {
		t.Fatalf("history db should be disabled by default, got %q", cfg.HistoryDBPath)
	}
}

func TestLoad_SnapshotConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("explicit values", func(t *testing.T) {
		t.Setenv("SNAPSHOT_TTL", "6h")
		t.Setenv("SNAPSHOT_REFRESH_INTERVAL", "30m")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SnapshotTTL != 6*time.Hour {
			t.Fatalf("unexpected snapshot ttl: %s", cfg.SnapshotTTL)
		}
		if cfg.SnapshotRefreshInterval != 30*time.Minute {
			t.Fatalf("unexpected refresh interval: %s", cfg.SnapshotRefreshInterval)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("SNAPSHOT_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid SNAPSHOT_TTL")
		}
	})

	t.Run("negative ttl", func(t *testing.T) {
		t.Setenv("SNAPSHOT_TTL", "-1h")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative SNAPSHOT_TTL")
		}
	})
}

func TestLoad_FPLConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("valid values", func(t *testing.T) {
		t.Setenv("FPL_TIMEOUT", "15s")
		t.Setenv("FPL_MAX_RETRIES", "3")
		t.Setenv("FPL_CIRCUIT_FAILURE_COUNT", "7")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FPLTimeout != 15*time.Second {
			t.Fatalf("unexpected FPL timeout: %s", cfg.FPLTimeout)
		}
		if cfg.FPLMaxRetries != 3 {
			t.Fatalf("unexpected FPL max retries: %d", cfg.FPLMaxRetries)
		}
		if cfg.FPLCircuitFailureCount != 7 {
			t.Fatalf("unexpected FPL circuit failure count: %d", cfg.FPLCircuitFailureCount)
		}
	})

	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("FPL_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative FPL_MAX_RETRIES")
		}
	})
}

func TestLoad_GeminiConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("GEMINI_API_KEY", " secret-key ")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")
	t.Setenv("GEMINI_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GeminiAPIKey != "secret-key" {
		t.Fatalf("gemini key should be trimmed, got %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "gemini-1.5-pro" {
		t.Fatalf("unexpected gemini model: %q", cfg.GeminiModel)
	}
	if cfg.GeminiTimeout != 45*time.Second {
		t.Fatalf("unexpected gemini timeout: %s", cfg.GeminiTimeout)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "fpl-assistant-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "fpl-assistant-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}
