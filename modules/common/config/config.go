package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config - all environment-driven settings
type Config struct {
	// Generation service (consumed)
	GenerationAPIURL string
	PollAPIURL       string

	// Workflow knobs
	SubmitTimeout    time.Duration
	MaxPolls         int
	PollInterval     time.Duration
	FallbackImageURL string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase
	SupabaseURL        string
	SupabaseServiceKey string

	// Archive
	ArchiveEnabled bool
	ArchiveBucket  string

	// Server
	Port string
}

var globalConfig *Config

// LoadConfig - load environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := false
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	submitTimeout := 120 * time.Second
	if secStr := os.Getenv("SUBMIT_TIMEOUT_SECONDS"); secStr != "" {
		if parsed, err := strconv.Atoi(secStr); err == nil && parsed > 0 {
			submitTimeout = time.Duration(parsed) * time.Second
		}
	}

	maxPolls := 20
	if pollStr := os.Getenv("MAX_POLLS"); pollStr != "" {
		if parsed, err := strconv.Atoi(pollStr); err == nil && parsed > 0 {
			maxPolls = parsed
		}
	}

	pollInterval := 500 * time.Millisecond
	if msStr := os.Getenv("POLL_INTERVAL_MS"); msStr != "" {
		if parsed, err := strconv.Atoi(msStr); err == nil && parsed >= 0 {
			pollInterval = time.Duration(parsed) * time.Millisecond
		}
	}

	archiveEnabled := false
	if archStr := os.Getenv("ARCHIVE_ENABLED"); archStr != "" {
		if parsed, err := strconv.ParseBool(archStr); err == nil {
			archiveEnabled = parsed
		}
	}

	globalConfig = &Config{
		// Generation service
		GenerationAPIURL: getEnv("GENERATION_API_URL", "http://localhost:3000/api/generate-creative"),
		PollAPIURL:       getEnv("POLL_API_URL", "http://localhost:3000/api/poll-image"),

		// Workflow knobs
		SubmitTimeout:    submitTimeout,
		MaxPolls:         maxPolls,
		PollInterval:     pollInterval,
		FallbackImageURL: getEnv("FALLBACK_IMAGE_URL", "https://dummyimage.com/1080x1080/111827/f5f5f5.png&text=Backup"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		// Archive
		ArchiveEnabled: archiveEnabled,
		ArchiveBucket:  getEnv("ARCHIVE_BUCKET", "creatives"),

		// Server
		Port: getEnv("PORT", "8080"),
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Generation API: %s", globalConfig.GenerationAPIURL)
	log.Printf("   Poll API: %s", globalConfig.PollAPIURL)
	log.Printf("   Polling: %d attempts x %v", globalConfig.MaxPolls, globalConfig.PollInterval)
	log.Printf("   Redis: %s:%s (TLS: %v)", globalConfig.RedisHost, globalConfig.RedisPort, globalConfig.RedisUseTLS)
	log.Printf("   Archive: %v", globalConfig.ArchiveEnabled)

	return globalConfig, nil
}

// GetConfig - fetch the loaded config
func GetConfig() *Config {
	if globalConfig == nil {
		log.Fatal("❌ Config not loaded. Call LoadConfig() first.")
	}
	return globalConfig
}

// SetConfig - override the loaded config (tests)
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// validate - required settings
func (c *Config) validate() error {
	if c.GenerationAPIURL == "" {
		return fmt.Errorf("GENERATION_API_URL is required")
	}
	if c.PollAPIURL == "" {
		return fmt.Errorf("POLL_API_URL is required")
	}
	if c.ArchiveEnabled && (c.SupabaseURL == "" || c.SupabaseServiceKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required when ARCHIVE_ENABLED is set")
	}
	return nil
}

// getEnv - environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis connection string
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
