package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config func to get env value from key
func Config(key string) string {
	if err := godotenv.Load(".env"); err != nil {
		return os.Getenv(key)
	}
	return os.Getenv(key)
}
