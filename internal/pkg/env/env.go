package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds. Containers usually inject
// the environment directly, so a missing file only gets logged.
func SetupEnvFile() bool {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/filmpass to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		values, err := godotenv.Read(envFile)
		if err == nil {
			Env = values
			return true
		}
	}

	log.Warn("[Env] no .env file found, using process environment only")
	return false
}
