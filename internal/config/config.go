package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	MinIO    MinIOConfig
	SMTP     SMTPConfig
	Render   RenderConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string // public base URL used to build verification links
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

type MinIOConfig struct {
	Endpoint string
	User     string
	Password string
	Bucket   string
	UseSSL   bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	SenderName string
	DailyLimit int
}

type RenderConfig struct {
	// FontTimeoutSec bounds how long renderers wait for remote fonts
	// before falling back to built-in faces.
	FontTimeoutSec int
}

func Load() *Config {
	// Load .env if present (development); production reads env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	minioSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	dailyLimit, _ := strconv.Atoi(getEnv("EMAIL_DAILY_LIMIT", "500"))
	fontTimeout, _ := strconv.Atoi(getEnv("RENDER_FONT_TIMEOUT_SEC", "3"))

	return &Config{
		App: AppConfig{
			Port:    getEnv("APP_PORT", "8080"),
			Env:     getEnv("APP_ENV", "development"),
			BaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "certcat_user"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "certcat_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-this-secret"),
		},
		MinIO: MinIOConfig{
			Endpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
			User:     getEnv("MINIO_USER", "minioadmin"),
			Password: getEnv("MINIO_PASSWORD", "minioadmin123"),
			Bucket:   getEnv("MINIO_BUCKET", "certcat-assets"),
			UseSSL:   minioSSL,
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:       smtpPort,
			User:       getEnv("SMTP_USER", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "CertCat"),
			DailyLimit: dailyLimit,
		},
		Render: RenderConfig{
			FontTimeoutSec: fontTimeout,
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
