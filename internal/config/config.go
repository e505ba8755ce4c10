package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	CameraDevice string // device index ("0") or stream URL
	ModelPath    string // YuNet face detection ONNX model
	LyricsPath   string // empty uses the built-in catalog
	LogoPath     string // optional image shown at the bottom of the kiosk page

	ScoreThreshold    float64
	PollInterval      time.Duration
	SingleFace        bool // follow one face with the single-face tracking constants
	MaxFaces          int
	MatchRadius       float64
	ReassignThreshold float64
	BoxPadding        float64
	Mirror            bool

	DatabasePath         string
	HistoryBufferLimit   int
	HistoryFlushInterval time.Duration
	HistoryRetention     time.Duration // 0 keeps history forever
	LogDirectory         string
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		Password:             getEnv("PASSWORD", "lyrics"),
		CameraDevice:         getEnv("CAMERA_DEVICE", "0"),
		ModelPath:            getEnv("MODEL_PATH", filepath.Join(".", "models", "face_detection_yunet_2023mar.onnx")),
		LyricsPath:           getEnv("LYRICS_PATH", ""),
		LogoPath:             getEnv("LOGO_PATH", ""),
		ScoreThreshold:       getEnvAsFloat("SCORE_THRESHOLD", 0.3),
		PollInterval:         time.Duration(getEnvAsInt("POLL_INTERVAL_MS", 200)) * time.Millisecond,
		SingleFace:           getEnvAsBool("SINGLE_FACE", false),
		MaxFaces:             getEnvAsInt("MAX_FACES", 3),
		MatchRadius:          getEnvAsFloat("MATCH_RADIUS", 150),
		ReassignThreshold:    getEnvAsFloat("REASSIGN_THRESHOLD", 250),
		BoxPadding:           getEnvAsFloat("BOX_PADDING", 0),
		Mirror:               getEnvAsBool("MIRROR", true),
		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "history.db")),
		HistoryBufferLimit:   getEnvAsInt("HISTORY_BUFFER_LIMIT", 500),
		HistoryFlushInterval: time.Duration(getEnvAsInt("HISTORY_FLUSH_INTERVAL", 30)) * time.Second,
		HistoryRetention:     time.Duration(getEnvAsInt("HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
