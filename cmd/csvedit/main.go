package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists; real environment variables win
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("csvedit failed", "error", err)
		os.Exit(1)
	}
}
