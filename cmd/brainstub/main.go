package main

import (
	"log"

	"fundbridge/internal/infrastructure/brainstub"
	"fundbridge/pkg/config"
	"fundbridge/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := brainstub.NewServer(cfg, nil)

	logger.Info("Starting stub Brain API on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
