package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the etender_agent binary for testing
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "etender_agent")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/etender_agent ./cmd/etender_agent'", binaryPath)
	}

	return binaryPath
}
