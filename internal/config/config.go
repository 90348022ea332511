package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	StoreDriver     string // "postgres" or "memory"
	JWTSecret       string
	TokenExpiration time.Duration
	SecureCookies   bool
	AllowedOrigins  []string

	RateLimit RateLimitConfig
	LLM       LLMConfig
}

// RateLimitConfig configures admission control in front of /api/ask.
type RateLimitConfig struct {
	Window        time.Duration
	MaxRequests   int
	Backend       string // "memory" or "redis"
	RedisURL      string
	SweepInterval time.Duration
}

// LLMConfig configures the answer generator.
type LLMConfig struct {
	Provider string // "openai" or "ark"
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	RPS      float64
	Burst    int

	// Ark credentials, used when Provider is "ark".
	ArkAccessKey string
	ArkSecretKey string
	ArkRegion    string
}

var ErrInvalidConfig = errors.New("invalid configuration")

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}

	storeDriver := strings.ToLower(getEnv("STORE_DRIVER", "postgres"))
	dbURL := getEnv("DATABASE_URL", "")
	if storeDriver == "postgres" && dbURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is required when STORE_DRIVER=postgres", ErrInvalidConfig)
	}
	if storeDriver != "postgres" && storeDriver != "memory" {
		return nil, fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, storeDriver)
	}

	tokenExpHours, err := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	secureCookies, err := getEnvBool("SECURE_COOKIES", false)
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}
	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     dbURL,
		StoreDriver:     storeDriver,
		JWTSecret:       getEnv("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		TokenExpiration: time.Hour * time.Duration(tokenExpHours),
		SecureCookies:   secureCookies,
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RateLimit:       rateLimit,
		LLM:             llm,
	}

	log.Printf("Loaded config: Port=%s, Store=%s, DB_URL=***, TokenExp=%s, RateLimit=%d/%s (%s), LLM=%s/%s",
		cfg.HTTPPort, cfg.StoreDriver, cfg.TokenExpiration,
		cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.Backend,
		cfg.LLM.Provider, cfg.LLM.Model)

	return cfg, nil
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	window, err := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}
	maxRequests, err := getEnvInt("RATE_LIMIT_MAX", 5)
	if err != nil {
		return RateLimitConfig{}, err
	}
	if window <= 0 || maxRequests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("%w: RATE_LIMIT_WINDOW and RATE_LIMIT_MAX must be positive", ErrInvalidConfig)
	}
	sweep, err := getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}

	backend := strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory"))
	redisURL := getEnv("REDIS_URL", "")
	switch backend {
	case "memory":
	case "redis":
		if redisURL == "" {
			return RateLimitConfig{}, fmt.Errorf("%w: REDIS_URL is required when RATE_LIMIT_BACKEND=redis", ErrInvalidConfig)
		}
	default:
		return RateLimitConfig{}, fmt.Errorf("%w: unknown RATE_LIMIT_BACKEND %q", ErrInvalidConfig, backend)
	}

	return RateLimitConfig{
		Window:        window,
		MaxRequests:   maxRequests,
		Backend:       backend,
		RedisURL:      redisURL,
		SweepInterval: sweep,
	}, nil
}

func loadLLMConfig() (LLMConfig, error) {
	timeoutSeconds, err := getEnvInt("LLM_TIMEOUT_SECONDS", 60)
	if err != nil {
		return LLMConfig{}, err
	}
	rps, err := getEnvFloat("LLM_RPS", 2)
	if err != nil {
		return LLMConfig{}, err
	}
	burst, err := getEnvInt("LLM_BURST", 4)
	if err != nil {
		return LLMConfig{}, err
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	cfg := LLMConfig{
		Provider:     provider,
		APIKey:       getEnv("LLM_API_KEY", ""),
		Model:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		Timeout:      time.Duration(timeoutSeconds) * time.Second,
		RPS:          rps,
		Burst:        burst,
		ArkAccessKey: getEnv("ARK_ACCESS_KEY", ""),
		ArkSecretKey: getEnv("ARK_SECRET_KEY", ""),
		ArkRegion:    getEnv("ARK_REGION", "cn-beijing"),
	}

	switch provider {
	case "openai":
		cfg.BaseURL = getEnv("LLM_BASE_URL", "https://api.openai.com/v1")
	case "ark":
		cfg.BaseURL = getEnv("LLM_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	default:
		return LLMConfig{}, fmt.Errorf("%w: unknown LLM_PROVIDER %q", ErrInvalidConfig, provider)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
// Blank values count as unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q: %v", ErrInvalidConfig, key, raw, err)
	}
	return val, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q: %v", ErrInvalidConfig, key, raw, err)
	}
	return val, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s value %q: %v", ErrInvalidConfig, key, raw, err)
	}
	return val, nil
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s value %q: %v", ErrInvalidConfig, key, raw, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
