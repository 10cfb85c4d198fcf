package config

import (
	"log/slog"
	"os"

	"github.com/subosito/gotenv"
)

// LoadEnv loads config/envs/.env.<env> into the process environment.
// Variables already set in the environment win. The path is relative to
// the working directory, so run the binary from the repository root.
func LoadEnv(env string) {
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			wd = "unknown"
		}
		slog.Warn("[Config] No .env file found, using OS environment",
			slog.String("file", envFile),
			slog.String("working_dir", wd),
			slog.String("error", err.Error()))
	}
}
