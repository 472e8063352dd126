package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	Password     string // empty disables the login wall
	LogDirectory string

	// Remote origin (the tunneled anomaly-detection server)
	OriginBaseURL     string
	OriginTimeout     time.Duration
	BypassHeader      string // header that skips the tunnel's browser warning page
	BypassHeaderValue string

	ThumbnailConcurrency int // how many thumbnail loads run at once
	ThumbnailMaxSize     int // longest edge of a downscaled thumbnail, pixels

	// Live feed
	StreamURL           string
	StreamPath          string
	StreamNamespace     string
	StreamEvent         string
	StreamTransport     string // "socketio" or "websocket"
	StreamDialTimeout   time.Duration
	StreamReadTimeout   time.Duration
	StreamMaxRetries    int
	StreamRetryDelay    time.Duration
	StreamMaxRetryDelay time.Duration

	// Development origin
	OriginPort         int
	AnomalyDirectory   string
	DatabasePath       string
	ReplayDirectory    string
	ReplayVideoPath    string
	ReplayInterval     time.Duration
	ReplayAnomalyEvery int
	ChainCacheTTL      time.Duration
	FrameBufferLimit   int
	FrameFlushInterval time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:         getEnvAsInt("PORT", 8080),
		Password:     getEnv("DASHBOARD_PASSWORD", ""),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		OriginBaseURL:     getEnv("ORIGIN_BASE_URL", "http://localhost:5000"),
		OriginTimeout:     getEnvAsSeconds("ORIGIN_TIMEOUT_SEC", 10),
		BypassHeader:      getEnv("TUNNEL_BYPASS_HEADER", "ngrok-skip-browser-warning"),
		BypassHeaderValue: getEnv("TUNNEL_BYPASS_VALUE", "true"),

		ThumbnailConcurrency: getEnvAsInt("THUMBNAIL_CONCURRENCY", 6),
		ThumbnailMaxSize:     getEnvAsInt("THUMBNAIL_MAX_PX", 200),

		StreamURL:           getEnv("STREAM_URL", "ws://localhost:5000"),
		StreamPath:          getEnv("STREAM_PATH", "/socket.io/"),
		StreamNamespace:     getEnv("STREAM_NAMESPACE", "/ws/video_feed"),
		StreamEvent:         getEnv("STREAM_EVENT", "video_frame"),
		StreamTransport:     getEnv("STREAM_TRANSPORT", "socketio"),
		StreamDialTimeout:   getEnvAsSeconds("STREAM_DIAL_TIMEOUT_SEC", 10),
		StreamReadTimeout:   getEnvAsSeconds("STREAM_READ_TIMEOUT_SEC", 60),
		StreamMaxRetries:    getEnvAsInt("STREAM_MAX_RETRIES", 5),
		StreamRetryDelay:    getEnvAsMillis("STREAM_RETRY_DELAY_MS", 1000),
		StreamMaxRetryDelay: getEnvAsMillis("STREAM_MAX_RETRY_DELAY_MS", 30000),

		OriginPort:         getEnvAsInt("ORIGIN_PORT", 5000),
		AnomalyDirectory:   getEnv("ANOMALY_DIR", filepath.Join("anomaly_results", "annotated_anomalies")),
		DatabasePath:       getEnv("DB_PATH", filepath.Join("data", "chain.db")),
		ReplayDirectory:    getEnv("REPLAY_DIR", filepath.Join("static", "images", "anomaly_frames")),
		ReplayVideoPath:    getEnv("VIDEO_PATH", ""),
		ReplayInterval:     getEnvAsMillis("REPLAY_INTERVAL_MS", 50),
		ReplayAnomalyEvery: getEnvAsInt("REPLAY_ANOMALY_EVERY", 50),
		ChainCacheTTL:      getEnvAsSeconds("CHAIN_CACHE_TTL_SEC", 300),
		FrameBufferLimit:   getEnvAsInt("BUFFER_LIMIT", 7),
		FrameFlushInterval: getEnvAsSeconds("FLUSH_INTERVAL", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}

func getEnvAsMillis(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Millisecond
}
