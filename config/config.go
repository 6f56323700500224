package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageR2    = "r2"
)

// Config holds every setting of the application.
type Config struct {
	AppEnv         string
	DatabaseURL    string
	MigrationsPath string
	JWTSecretKey   string
	JWTTTL         time.Duration
	ServerPort     int
	LogFile        string

	CORSAllowedOrigins []string

	StorageDriver      string
	ImageDir           string
	PublicImageBaseURL string
	R2AccountID        string
	R2AccessKeyID      string
	R2SecretAccessKey  string
	R2BucketName       string
	R2PublicBaseURL    string

	// LoanResetOnEdit drops any pending or concluded loan when the owner edits a player.
	LoanResetOnEdit bool
}

// Load reads the configuration from the environment, loading a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL environment variable: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", ttl)
	}

	resetOnEdit, err := strconv.ParseBool(getEnv("LOAN_RESET_ON_EDIT", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOAN_RESET_ON_EDIT environment variable: %w", err)
	}

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		DatabaseURL:        dbURL,
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "db/migrations"),
		JWTSecretKey:       jwtKey,
		JWTTTL:             ttl,
		ServerPort:         port,
		LogFile:            os.Getenv("LOG_FILE"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		ImageDir:           getEnv("IMAGE_DIR", "public/images"),
		PublicImageBaseURL: getEnv("PUBLIC_IMAGE_BASE_URL", "/images/"),
		R2AccountID:        os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    os.Getenv("R2_PUBLIC_BASE_URL"),
		LoanResetOnEdit:    resetOnEdit,
	}

	switch cfg.StorageDriver {
	case StorageLocal:
	case StorageR2:
		if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" ||
			cfg.R2BucketName == "" || cfg.R2PublicBaseURL == "" {
			return nil, fmt.Errorf("STORAGE_DRIVER=r2 requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
