package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	AppName = "sentinel-stt"
	Version = "1.0.0"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	ModelPath string
	ModelsDir string
	ModelName string

	DefaultSampleRate int

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		ModelPath: getEnv("STT_MODEL_PATH", ""),
		ModelsDir: getEnv("STT_MODELS_DIR", ""),
		ModelName: getEnv("STT_MODEL", ""),

		DefaultSampleRate: getEnvInt("STT_DEFAULT_SAMPLE_RATE", 16000),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}
}

// ResolveModelPath picks the model folder: STT_MODEL_PATH wins, otherwise
// STT_MODELS_DIR joined with STT_MODEL. There is deliberately no default;
// serving an arbitrary model silently is worse than failing readiness.
func (c *Config) ResolveModelPath() (string, error) {
	if c.ModelPath != "" {
		return c.ModelPath, nil
	}
	if c.ModelsDir != "" && c.ModelName != "" {
		return filepath.Join(c.ModelsDir, c.ModelName), nil
	}
	return "", fmt.Errorf("no model configured: set STT_MODEL_PATH, or STT_MODELS_DIR and STT_MODEL")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
