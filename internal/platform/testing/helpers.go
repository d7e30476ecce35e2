// Package testing holds helpers shared by package tests.
package testing

import (
	"testing"

	"streetguide-server-go/internal/platform/config"
	"streetguide-server-go/internal/platform/logging"
)

// SetupTestConfig returns the default config with logs under a temp dir
// and the mock delays disabled.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Level = "ERROR"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.File = "test.log"
	cfg.Guide.MockDelay = 0
	cfg.Guide.VoiceDelay = 0
	return cfg
}

// SetupTestLogger creates a logger writing to a temp dir; it is closed on cleanup.
func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	t.Cleanup(func() { _ = logger.Close() })

	return logger
}
