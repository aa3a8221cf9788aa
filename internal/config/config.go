package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            string
	DatabaseDSN     string
	Env             string
	LogLevel        string
	SessionTTLHours int
	RelayQueueCap   int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	return Config{
		Port:            getenv("APP_PORT", "8080"),
		DatabaseDSN:     getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=chatoy port=5432 sslmode=disable TimeZone=UTC"),
		Env:             getenv("APP_ENV", "dev"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		SessionTTLHours: getenvInt("SESSION_TTL_HOURS", 48),
		RelayQueueCap:   getenvInt("RELAY_QUEUE_CAP", 256),
	}
}
