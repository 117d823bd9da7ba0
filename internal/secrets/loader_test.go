package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

	secret, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", secret)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("   "), 0o600))

	_, err := Load(Source{Name: "gemini api key", File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("SCREENER_TEST_KEY", " env-secret ")

	secret, err := Load(Source{Name: "key", Env: []string{"SCREENER_MISSING_KEY", "SCREENER_TEST_KEY"}})
	require.NoError(t, err)
	assert.Equal(t, "env-secret", secret)
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{})
	require.EqualError(t, err, "secret is not configured")
}
