package api

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvConfig reads configuration from the environment, optionally seeded
// from a .env file.
type EnvConfig struct{}

func NewEnvConfig() *EnvConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
	return &EnvConfig{}
}

func (cfg *EnvConfig) GetJWTSecret() string {
	return os.Getenv("JWT_SECRET")
}

func (cfg *EnvConfig) GetServerPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func (cfg *EnvConfig) GetAllowedOrigins() []string {
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{"http://localhost:3000", "http://localhost:8080"}
}
