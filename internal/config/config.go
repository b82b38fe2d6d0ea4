package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries the tunables the engine consumes but does not own.
// Values come from the environment; main loads .env first via godotenv.
type Config struct {
	Port           string
	AllowedOrigins []string

	// ValueTolerance is the relative tolerance for stage-2 value matching.
	ValueTolerance float64
	// DateToleranceDays bounds the date gap for the higher stage-2 score.
	DateToleranceDays int
	// SimilarityThreshold is the minimum stage-3 description ratio.
	SimilarityThreshold float64
	// PreambleRows is the metadata preamble dropped from contable files.
	PreambleRows int
}

func Load() Config {
	return Config{
		Port:                envString("PORT", "8080"),
		AllowedOrigins:      envList("ALLOWED_ORIGINS", "http://localhost:3000"),
		ValueTolerance:      envFloat("VALUE_TOLERANCE", 0.05),
		DateToleranceDays:   envInt("DATE_TOLERANCE_DAYS", 3),
		SimilarityThreshold: envFloat("SIMILARITY_THRESHOLD", 0.7),
		PreambleRows:        envInt("PREAMBLE_ROWS", 4),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envList(key, fallback string) []string {
	v := envString(key, fallback)
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
