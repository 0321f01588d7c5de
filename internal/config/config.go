package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL  = "http://localhost:3000"
	defaultTimeout = 30 * time.Second
)

// Storage backends for the persisted session record
const (
	StorageKeyring = "keyring"
	StorageFile    = "file"
	StorageMemory  = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API Configuration
	API APIConfig

	// Storage Configuration
	Storage StorageConfig

	// Logging Configuration
	Logging LoggingConfig

	// Development backend Configuration
	DevAPI DevAPIConfig
}

// APIConfig holds the REST backend settings used by the CLI
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects where the session record and theme preference live
type StorageConfig struct {
	Backend   string // keyring, file, memory
	ConfigDir string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// DevAPIConfig holds settings for the local development backend
type DevAPIConfig struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	SeedFile    string
	UploadDir   string
	AdminEmail  string
	AdminPass   string
	CORSOrigins []string

	// Login and register attempts per second per client IP; 0 disables throttling
	AuthRatePerSecond float64
	AuthBurst         int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := getenv("RECHARGEX_API_URL", defaultAPIURL)

	timeout := defaultTimeout
	if raw := os.Getenv("RECHARGEX_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RECHARGEX_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	backend := getenv("RECHARGEX_STORAGE", StorageKeyring)
	switch backend {
	case StorageKeyring, StorageFile, StorageMemory:
	default:
		return nil, fmt.Errorf("invalid RECHARGEX_STORAGE %q, must be one of: keyring, file, memory", backend)
	}

	configDir := os.Getenv("RECHARGEX_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "rechargex")
	}

	// Logging configuration - the CLI is interactive, so console output by default
	logLevel := getenv("LOG_LEVEL", "warn")
	logFormat := getenv("LOG_FORMAT", "console")

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("DEVAPI_TOKEN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DEVAPI_TOKEN_TTL %q: %w", raw, err)
		}
		tokenTTL = d
	}

	authRate := 1.0
	if raw := os.Getenv("DEVAPI_AUTH_RATE"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid DEVAPI_AUTH_RATE %q: must be a non-negative number", raw)
		}
		authRate = v
	}
	authBurst := 10
	if raw := os.Getenv("DEVAPI_AUTH_BURST"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid DEVAPI_AUTH_BURST %q: must be a positive integer", raw)
		}
		authBurst = v
	}

	return &Config{
		API: APIConfig{
			BaseURL: apiURL,
			Timeout: timeout,
		},
		Storage: StorageConfig{
			Backend:   backend,
			ConfigDir: configDir,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		DevAPI: DevAPIConfig{
			Addr:        getenv("DEVAPI_ADDR", ":3000"),
			DatabaseURL: getenv("DEVAPI_DATABASE_URL", "rechargex-dev.sqlite"),
			JWTSecret:   os.Getenv("DEVAPI_JWT_SECRET"),
			TokenTTL:    tokenTTL,
			SeedFile:    os.Getenv("DEVAPI_SEED_FILE"),
			UploadDir:   getenv("DEVAPI_UPLOAD_DIR", "uploads"),
			AdminEmail:  os.Getenv("DEVAPI_ADMIN_EMAIL"),
			AdminPass:   os.Getenv("DEVAPI_ADMIN_PASSWORD"),
			CORSOrigins: []string{getenv("DEVAPI_CORS_ORIGIN", "http://localhost:5173")},

			AuthRatePerSecond: authRate,
			AuthBurst:         authBurst,
		},
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
