package main

import (
	"os"

	"github.com/spigell/resume-tailor/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env with GEMINI_API_KEY_FILE, AUDIT_POSTGRES_DSN and friends.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
