package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

// Config is read from the environment exactly once at process start.
// The signing secret, algorithm and token TTL must never change during
// the process lifetime; rotating the secret invalidates every
// outstanding token.
type Config struct {
	Port        int
	Database    DatabaseConfig
	JWTSecret   string
	JWTAlg      string
	TokenTTLMin int
	CORSOrigins []string
	LogConfig   logger.LogConfig
	FileStore   FileStoreConfig
	AI          AIConfig
	Chat        ChatConfig
	Cleanup     CleanupConfig
	MaxUpload   int64
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type FileStoreConfig struct {
	Type string
	Data map[string]interface{}
}

type AIConfig struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Model        string
	AnalyzeModel string
	TimeoutSec   int
}

type ChatConfig struct {
	MaxSessions   int
	SessionTTLMin int
	MaxMessages   int
	ContextWindow int
}

type CleanupConfig struct {
	Schedule     string
	UploadMaxAge int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getint("PORT", 8080),
		Database: DatabaseConfig{
			DSN:      os.Getenv("DATABASE_URL"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getint("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTAlg:      getenv("JWT_ALGORITHM", "HS256"),
		TokenTTLMin: getint("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		CORSOrigins: getlist("CORS_ORIGINS"),
		LogConfig: logger.LogConfig{
			File:    os.Getenv("LOG_FILE"),
			Level:   getenv("LOG_LEVEL", "info"),
			Console: getbool("LOG_CONSOLE", true),
		},
		AI: AIConfig{
			Provider:     getenv("AI_PROVIDER", "openai"),
			APIKey:       os.Getenv("AI_API_KEY"),
			BaseURL:      os.Getenv("AI_BASE_URL"),
			Model:        getenv("AI_MODEL", "gpt-3.5-turbo"),
			AnalyzeModel: getenv("AI_ANALYZE_MODEL", "gpt-4o-mini"),
			TimeoutSec:   getint("AI_TIMEOUT_SECONDS", 30),
		},
		Chat: ChatConfig{
			MaxSessions:   getint("CHAT_MAX_SESSIONS", 1024),
			SessionTTLMin: getint("CHAT_SESSION_TTL_MINUTES", 60),
			MaxMessages:   getint("CHAT_MAX_MESSAGES", 20),
			ContextWindow: getint("CHAT_CONTEXT_WINDOW", 10),
		},
		Cleanup: CleanupConfig{
			Schedule:     getenv("CLEANUP_SCHEDULE", "0 * * * *"),
			UploadMaxAge: getint("UPLOAD_ORPHAN_MAX_AGE_HOURS", 24),
		},
		MaxUpload: int64(getint("MAX_UPLOAD_BYTES", 20*1024*1024)),
	}

	storeType := getenv("FILE_STORE_TYPE", "local")
	switch storeType {
	case "local":
		cfg.FileStore = FileStoreConfig{
			Type: "local",
			Data: map[string]interface{}{
				"dir": getenv("FILE_STORE_DIR", "./uploaded_files"),
			},
		}
	case "s3":
		cfg.FileStore = FileStoreConfig{
			Type: "s3",
			Data: map[string]interface{}{
				"endpoint":   os.Getenv("S3_ENDPOINT"),
				"secret_id":  os.Getenv("S3_SECRET_ID"),
				"secret_key": os.Getenv("S3_SECRET_KEY"),
				"bucket":     os.Getenv("S3_BUCKET"),
				"region":     getenv("S3_REGION", "us-east-1"),
				"prefix":     os.Getenv("S3_PREFIX"),
				"use_ssl":    getbool("S3_USE_SSL", true),
			},
		}
	default:
		return nil, fmt.Errorf("FILE_STORE_TYPE must be local or s3")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.User == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("DATABASE_URL or DB_USER/DB_NAME is required")
	}
	if cfg.TokenTTLMin <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
