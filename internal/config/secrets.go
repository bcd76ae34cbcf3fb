package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is where Docker mounts secrets.
const DefaultSecretsDir = "/run/secrets"

// ReadSecret reads <dir>/<name>. When the file does not exist it falls back
// to the environment variable envKey; an empty result is not an error, the
// caller decides whether the secret is mandatory.
func ReadSecret(dir, name, envKey string) (string, error) {
	filePath := filepath.Join(dir, name)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return strings.TrimSpace(os.Getenv(envKey)), nil
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	return strings.TrimSpace(string(secretBytes)), nil
}
