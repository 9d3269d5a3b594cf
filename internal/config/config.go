package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	AppPort         string
	AppEnv          string
	ConfirmoBaseURL string
	PublicBaseURL   string
	ReturnURL       string
}

const defaultConfirmoBaseURL = "https://confirmo.net"

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBPort:          os.Getenv("DB_PORT"),
		AppPort:         os.Getenv("APP_PORT"),
		AppEnv:          os.Getenv("APP_ENV"),
		ConfirmoBaseURL: os.Getenv("CONFIRMO_BASE_URL"),
		PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
		ReturnURL:       os.Getenv("RETURN_URL"),
	}

	if cfg.ConfirmoBaseURL == "" {
		cfg.ConfirmoBaseURL = defaultConfirmoBaseURL
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// NotificationURL is the public endpoint Confirmo calls back on.
func (c *Config) NotificationURL() string {
	return c.PublicBaseURL + "/confirmo/webhook"
}
