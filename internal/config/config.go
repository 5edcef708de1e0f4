package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env            string
	Port           int
	StoreBackend   string // postgres, redis or memory
	DBURL          string
	RedisAddr      string
	RedisPass      string
	RedisDB        int
	JWTSecret      string
	OTLPEndpoint   string
	CacheTTL       time.Duration
	AllowedOrigins []string
}

func Load() Config {
	return Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 8080),
		StoreBackend:   getEnv("STORE_BACKEND", "postgres"),
		DBURL:          buildDBURL(),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
		CacheTTL:       time.Duration(getEnvInt("BROWSE_CACHE_TTL_SECONDS", 15)) * time.Second,
		AllowedOrigins: splitNonEmpty(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "favehub")
	pass := getEnv("DB_PASSWORD", "favehub")
	name := getEnv("DB_NAME", "favehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
		}

		return num
	}
	return fallback
}
