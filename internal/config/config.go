package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Load reads the .env file specified by EPISTATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("EPISTATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static bearer key. Empty disables authentication.
func APIKey() string {
	return os.Getenv("API_KEY")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// KnowledgeFile returns the path of the YAML knowledge file, or "" when unset.
func KnowledgeFile() string {
	return os.Getenv("KNOWLEDGE_FILE")
}

// VectorDim returns the knowledge-base dimension used when no knowledge file sets one.
// Defaults to 6 if not set.
func VectorDim() int {
	dim, err := strconv.Atoi(os.Getenv("VECTOR_DIM"))
	if err != nil || dim <= 0 {
		return 6
	}
	return dim
}

// BatchConcurrency bounds parallel aggregation and scoring.
// Defaults to 8 if not set.
func BatchConcurrency() int {
	n, err := strconv.Atoi(os.Getenv("BATCH_CONCURRENCY"))
	if err != nil || n <= 0 {
		return 8
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// ZapLevel parses LogLevel, falling back to info on unknown values.
func ZapLevel() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(LogLevel()))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
