package initializers

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. Missing file is not
// fatal for deployments that inject real environment variables.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("no .env file found: %w", err)
	}
	log.Println("Env loaded successfully")
	return nil
}
