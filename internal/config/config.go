// Package config loads service configuration from the environment, with
// an optional .env file for development. A .env in the user's home
// config directory takes priority over one in the working directory so
// secrets can live outside the deployed tree.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	AppEnv string
	Port   string

	DatabasePath string
	WorkDir      string

	TickInterval  time.Duration
	MaxConcurrent int

	TTSBaseURL string
	TTSAPIKey  string
	TTSVoiceID string
	TTSTimeout time.Duration

	FFmpegTimeout time.Duration

	GraphBaseURL      string
	GraphVersion      string
	FacebookPageID    string
	FacebookPageToken string
	ShareToStory      bool
}

// Load reads configuration, preferring ~/.viralreels/.env, then ./.env,
// then plain environment variables.
func Load() *Config {
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".viralreels", ".env"))
	}
	_ = godotenv.Load()

	return &Config{
		AppEnv: getEnv("APP_ENV", "production"),
		Port:   getEnv("PORT", "8080"),

		DatabasePath: getEnv("DATABASE_PATH", "data/viralreels.db"),
		WorkDir:      getEnv("WORK_DIR", "data/videos"),

		TickInterval:  getDuration("TICK_INTERVAL", 30*time.Second),
		MaxConcurrent: getInt("MAX_CONCURRENT", 2),

		TTSBaseURL: os.Getenv("TTS_BASE_URL"),
		TTSAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		TTSVoiceID: os.Getenv("TTS_VOICE_ID"),
		TTSTimeout: getDuration("TTS_TIMEOUT", 60*time.Second),

		FFmpegTimeout: getDuration("FFMPEG_TIMEOUT", 120*time.Second),

		GraphBaseURL:      os.Getenv("GRAPH_BASE_URL"),
		GraphVersion:      os.Getenv("GRAPH_VERSION"),
		FacebookPageID:    os.Getenv("FACEBOOK_PAGE_ID"),
		FacebookPageToken: os.Getenv("FACEBOOK_PAGE_TOKEN"),
		ShareToStory:      getBool("SHARE_TO_STORY", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
