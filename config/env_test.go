package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"backend_url":"http://json:1","app_port":9000,"upload_concurrency":2}`), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte("backend_url: http://yaml:2\nsearch_debounce: 150ms\nnested:\n  ignored: true\n"), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nTOKEN_STORE='redis'\nBACKEND_URL=\"http://dotenv:3\"\n"), 0o600))
	t.Setenv("APP_PORT", "7000")
	t.Setenv("MAX_BODY_BYTES", "1024")

	require.NoError(t, loadFromFiles(jsonPath, yamlPath, envPath))
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	assert.Equal(t, "http://dotenv:3", get("BACKEND_URL", ""))
	assert.Equal(t, "7000", get("APP_PORT", ""))
	assert.Equal(t, "redis", get("TOKEN_STORE", ""))
	assert.Equal(t, "2", get("UPLOAD_CONCURRENCY", ""))
	assert.Equal(t, 150*time.Millisecond, duration("SEARCH_DEBOUNCE", time.Second))
	assert.Equal(t, int64(1024), positiveInt64("MAX_BODY_BYTES", 1))
	assert.Empty(t, get("NESTED", ""))
}

func TestLoadFromFiles_MissingFilesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, loadFromFiles(filepath.Join(dir, "a.json"), filepath.Join(dir, "a.yaml"), filepath.Join(dir, ".env")))
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	assert.Equal(t, defaultBackendURL, get("BACKEND_URL", ""))
	assert.Equal(t, "4", get("UPLOAD_CONCURRENCY", ""))
}

func TestLoadFromFiles_BadYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("backend_url: [unterminated"), 0o600))

	assert.Error(t, loadFromFiles(filepath.Join(dir, "a.json"), yamlPath, filepath.Join(dir, ".env")))
}

func TestDuration_BareMilliseconds(t *testing.T) {
	mu.Lock()
	values["HTTP_TIMEOUT"] = "250"
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		delete(values, "HTTP_TIMEOUT")
		mu.Unlock()
	})

	assert.Equal(t, 250*time.Millisecond, duration("HTTP_TIMEOUT", time.Second))
}
