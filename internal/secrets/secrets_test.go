// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiKeyFile, "  AIza-test-key  \n")
				return dir
			},
			want: map[string]string{
				GeminiKeyFile: "AIza-test-key",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiKeyFile, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				GeminiKeyFile: "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, GeminiKeyFile, "real-key")
				return dir
			},
			want: map[string]string{
				GeminiKeyFile: "real-key",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiKeyFile, "a-key")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				GeminiKeyFile: "a-key",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeminiAPIKey(t *testing.T) {
	loaded := map[string]string{GeminiKeyFile: "from-file"}

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv(GeminiKeyEnv, "from-env")
		assert.Equal(t, "from-flag", GeminiAPIKey(loaded, "from-flag"))
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv(GeminiKeyEnv, "from-env")
		assert.Equal(t, "from-env", GeminiAPIKey(loaded, ""))
	})

	t.Run("file is the fallback", func(t *testing.T) {
		t.Setenv(GeminiKeyEnv, "")
		assert.Equal(t, "from-file", GeminiAPIKey(loaded, ""))
	})

	t.Run("empty when unset", func(t *testing.T) {
		t.Setenv(GeminiKeyEnv, "")
		assert.Empty(t, GeminiAPIKey(nil, ""))
	})
}
