package main

import (
	"fmt"
	"os"

	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/server"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/binge?sslmode=disable"
	}

	logCfg := logger.DefaultConfig()
	logCfg.Console = true
	logCfg.FilePath = os.Getenv("LOG_FILE")
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		logCfg.Level = logger.ParseLevel(lvl)
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Close()
	}()

	srv, err := server.New(dbURL)
	if err != nil {
		logger.Error("Failed to create server", logger.F("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("Error closing server", logger.F("error", err))
		}
	}()

	if err := srv.Start(":" + port); err != nil {
		logger.Error("Server failed", logger.F("error", err))
		os.Exit(1)
	}
}
