// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the
// key name and the file contents (trimmed) are the value.
//
// Supported key files: gemini-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GeminiKeyFile is the secrets-directory filename holding the Gemini API key.
const GeminiKeyFile = "gemini-api-key"

// GeminiKeyEnv is the environment variable holding the Gemini API key.
const GeminiKeyEnv = "GEMINI_API_KEY"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory or missing files are not errors; Load
// returns an empty map. Unreadable files produce a warning on stderr but
// do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// GeminiAPIKey resolves the API key with explicit > environment > secrets
// directory precedence. Returns empty when no key is configured.
func GeminiAPIKey(loaded map[string]string, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(GeminiKeyEnv); v != "" {
		return v
	}
	return loaded[GeminiKeyFile]
}
