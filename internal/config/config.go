// Package config loads service configuration from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Port         string
	SnapshotPath string
	LogLevel     string
	LogJSON      bool

	// Spotify credentials are optional; when absent the search adapter
	// serves fallback results instead of calling the upstream catalog.
	SpotifyClientID     string
	SpotifyClientSecret string
}

// Load reads configuration from environment variables, falling back to
// sensible local-development defaults. A .env file is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getEnv("PORT", "8080"),
		SnapshotPath:        getEnv("SNAPSHOT_PATH", "data/setlist.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogJSON:             os.Getenv("LOG_JSON") == "true",
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
