package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string

	DataDir     string
	SQLitePath  string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SheetsEndpoint      string
	SheetsSecret        string
	SheetsTimeoutSecond int
}

func Load() Config {
	// A missing .env is the normal case outside dev.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sheetsTimeout, err := strconv.Atoi(getEnv("SHEETS_TIMEOUT_SECONDS", "10"))
	if err != nil || sheetsTimeout < 1 {
		sheetsTimeout = 10
	}

	return Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigin:       getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DataDir:             getEnv("DATA_DIR", "data"),
		SQLitePath:          os.Getenv("SQLITE_PATH"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		SheetsEndpoint:      strings.TrimSpace(os.Getenv("SHEETS_ENDPOINT")),
		SheetsSecret:        strings.TrimSpace(os.Getenv("SHEETS_SECRET")),
		SheetsTimeoutSecond: sheetsTimeout,
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
