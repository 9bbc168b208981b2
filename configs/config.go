package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Instagram struct {
	GraphURL    string
	AccountID   string
	AccessToken string
}

type Facebook struct {
	GraphURL    string
	PageID      string
	AccessToken string
}

// Poll controls how long the Instagram publisher waits for a container
// to finish processing.
type Poll struct {
	MaxAttempts      int
	Interval         time.Duration
	PublishOnTimeout bool
}

type Config struct {
	Port                   string
	PostgresURI            string
	RedisURI               string
	FrontendURL            string
	CronSecret             string
	SweepSchedule          string
	SweepLockTTL           time.Duration
	ClaimLease             time.Duration
	GraphRequestsPerSecond float64
	HTTPTimeout            time.Duration
	Instagram              Instagram
	Facebook               Facebook
	Poll                   Poll
	R2                     R2
}

func LoadConfig() *Config {
	return &Config{
		Port:                   getEnv("PORT", "3000"),
		PostgresURI:            getEnv("POSTGRES_URI", ""),
		RedisURI:               getEnv("REDIS_URI", ""),
		FrontendURL:            getEnv("FRONTEND_URL", "http://localhost:5173"),
		CronSecret:             getEnv("CRON_SECRET", ""),
		SweepSchedule:          getEnv("SWEEP_SCHEDULE", "@every 1m"),
		SweepLockTTL:           getEnvDuration("SWEEP_LOCK_TTL", 10*time.Minute),
		ClaimLease:             getEnvDuration("CLAIM_LEASE", 15*time.Minute),
		GraphRequestsPerSecond: getEnvFloat("GRAPH_REQUESTS_PER_SECOND", 5),
		HTTPTimeout:            getEnvDuration("GRAPH_HTTP_TIMEOUT", 60*time.Second),
		Instagram: Instagram{
			GraphURL:    getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com/v21.0"),
			AccountID:   getEnv("INSTAGRAM_ACCOUNT_ID", ""),
			AccessToken: getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		},
		Facebook: Facebook{
			GraphURL:    getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v21.0"),
			PageID:      getEnv("FACEBOOK_PAGE_ID", ""),
			AccessToken: getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", ""),
		},
		Poll: Poll{
			MaxAttempts:      getEnvInt("INSTAGRAM_POLL_MAX_ATTEMPTS", 10),
			Interval:         getEnvDuration("INSTAGRAM_POLL_INTERVAL", 3*time.Second),
			PublishOnTimeout: getEnvBool("INSTAGRAM_PUBLISH_ON_POLL_TIMEOUT", true),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
