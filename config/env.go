package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBackendURL     = "http://localhost:8001"
	defaultRedisAddr      = "localhost:6379"
	defaultAppKey         = "change-me-in-production"
	defaultAppPort        = "8080"
	defaultAppEnv         = "local"
	defaultTokenStore     = "file"
	defaultHTTPTimeout    = 30 * time.Second
	defaultSearchDebounce = 300 * time.Millisecond
	defaultTokenTTL       = 24 * time.Hour
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json, config/app.yaml and .env once, in that order,
// then lets the process environment override any key.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", "config/app.yaml", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":            defaultAppEnv,
		"APP_PORT":           defaultAppPort,
		"APP_KEY":            defaultAppKey,
		"LOG_LEVEL":          "",
		"BACKEND_URL":        defaultBackendURL,
		"TOKEN_STORE":        defaultTokenStore,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"UPLOAD_CONCURRENCY": "4",
		"CORS_ORIGINS":       "*",
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

// AppKey is the secret the token file is encrypted with.
func AppKey() string {
	_ = Load()
	return get("APP_KEY", defaultAppKey)
}

func LogLevel() string {
	_ = Load()
	return strings.ToLower(get("LOG_LEVEL", ""))
}

// BackendURL is the catalog API origin, without the /api prefix.
func BackendURL() string {
	_ = Load()
	return strings.TrimRight(get("BACKEND_URL", defaultBackendURL), "/")
}

func HTTPTimeout() time.Duration {
	_ = Load()
	return duration("HTTP_TIMEOUT", defaultHTTPTimeout)
}

// SearchDebounce is the settle delay applied to list search and filter input.
func SearchDebounce() time.Duration {
	_ = Load()
	return duration("SEARCH_DEBOUNCE", defaultSearchDebounce)
}

// TokenStore names the token persistence driver: file, redis or memory.
func TokenStore() string {
	_ = Load()
	driver := strings.ToLower(get("TOKEN_STORE", defaultTokenStore))
	switch driver {
	case "file", "redis", "memory":
		return driver
	default:
		return defaultTokenStore
	}
}

func TokenFile() string {
	_ = Load()
	if p := get("TOKEN_FILE", ""); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".muestras", "token")
	}
	return filepath.Join(home, ".muestras", "token")
}

func TokenTTL() time.Duration {
	_ = Load()
	return duration("TOKEN_TTL", defaultTokenTTL)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func UploadConcurrency() int {
	_ = Load()
	n, err := strconv.Atoi(get("UPLOAD_CONCURRENCY", "4"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

func CORSOrigins() []string {
	_ = Load()
	return list(get("CORS_ORIGINS", "*"))
}

// TrustedProxies are the peers (addresses or CIDRs) whose X-Forwarded-For
// header is believed. Empty means the peer address is the client.
func TrustedProxies() []string {
	_ = Load()
	return list(get("TRUSTED_PROXIES", ""))
}

func list(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// MaxBodyBytes caps JSON request bodies on the console (default 4 MB).
func MaxBodyBytes() int64 {
	_ = Load()
	return positiveInt64("MAX_BODY_BYTES", 4<<20)
}

// MaxUploadBytes caps multipart uploads on the console (default 32 MB).
func MaxUploadBytes() int64 {
	_ = Load()
	return positiveInt64("MAX_UPLOAD_BYTES", 32<<20)
}

// LoginRateLimit is how many login attempts one address may make per minute.
func LoginRateLimit() int {
	_ = Load()
	return int(positiveInt64("LOGIN_RATE_LIMIT", 10))
}

func positiveInt64(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(get(key, ""), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", ".")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

func loadFromFiles(jsonPath, yamlPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(jsonPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeYAMLConfig(yamlPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeScalars(raw, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeScalars(raw, out)
	return nil
}

// mergeScalars copies string, number and bool values; nested objects are ignored.
func mergeScalars(raw map[string]interface{}, out map[string]string) {
	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron lets the process environment override known keys and any key
// with a recognised prefix.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		idx := strings.IndexByte(kv, '=')
		if idx <= 0 {
			continue
		}
		key := kv[:idx]
		if _, known := out[key]; known || isConfigKey(key) {
			out[key] = kv[idx+1:]
		}
	}
}

func isConfigKey(key string) bool {
	for _, prefix := range []string{"APP_", "BACKEND_", "HTTP_", "SEARCH_", "TOKEN_", "REDIS_", "STORAGE_", "S3_", "UPLOAD_", "CORS_", "LOG_", "MAX_", "LOGIN_", "TRUSTED_"} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := get(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// Bare integers are milliseconds.
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return fallback
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env, app.json and app.yaml are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key at runtime. CLI flags use it to win over files and
// environment; tests use it to isolate settings.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
