//go:build !gcloud

package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// loadDotEnv reads a .env file from the working directory when one exists.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}
}

// Validate accepts an empty configuration: without PRIMIND_TASKS_URL fired
// alerts are only surfaced through prompt streams.
func (c *TaskQueueConfig) Validate() error {
	return nil
}
