package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol)
	OpenAIAPIKey  string // API key for chat completions and embeddings
	OpenAIModel   string // Chat model, e.g. gpt-4o-mini
	OpenAIBaseURL string // Optional override for OpenAI-compatible gateways

	// Embedding configuration
	EmbeddingModel     string
	EmbeddingDimension int

	// Cache configuration
	RedisURL          string // Remote cache backend; empty selects the in-process backend
	CacheTTLSeconds   int    // Default TTL for price and review summary entries
	SessionTTLSeconds int    // Session history TTL, refreshed on write

	// Agent configuration
	AgentTimeoutSeconds int // Wall-clock bound for one chat turn
	AgentMaxRetries     int // Embedding batch retries during index builds

	// Policy retrieval configuration
	VectorStorePath string // Directory holding the index snapshot files
	VectorBackend   string // "file" (flat index snapshot) or "postgres" (pgvector)

	// Optional chat transports
	TelegramBotToken string

	// Server configuration
	Mode        string // prod, dev or demo
	Addr        string
	Port        int
	Data        string
	Driver      string // sqlite or postgres
	DSN         string
	CORSOrigins []string
	LogLevel    string
	Version     string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if an LLM API key is configured.
// Without it the server still starts, but every agent reports failure.
func (p *Profile) IsLLMEnabled() bool {
	return p.OpenAIAPIKey != ""
}

// CacheTTL returns the default cache TTL as a duration.
func (p *Profile) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// SessionTTL returns the session TTL as a duration.
func (p *Profile) SessionTTL() time.Duration {
	return time.Duration(p.SessionTTLSeconds) * time.Second
}

// AgentTimeout returns the per-turn wall-clock bound as a duration.
func (p *Profile) AgentTimeout() time.Duration {
	return time.Duration(p.AgentTimeoutSeconds) * time.Second
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.OpenAIAPIKey = getEnvOrDefault("OPENAI_API_KEY", "")
	p.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini")
	p.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", "")

	p.EmbeddingModel = getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDimension = getEnvOrDefaultInt("EMBEDDING_DIMENSION", 1536)

	p.RedisURL = getEnvOrDefault("REDIS_URL", "")
	p.CacheTTLSeconds = getEnvOrDefaultInt("CACHE_TTL_SECONDS", 3600)
	p.SessionTTLSeconds = getEnvOrDefaultInt("SESSION_TTL_SECONDS", 1800)

	p.AgentTimeoutSeconds = getEnvOrDefaultInt("AGENT_TIMEOUT_SECONDS", 30)
	p.AgentMaxRetries = getEnvOrDefaultInt("AGENT_MAX_RETRIES", 3)

	p.VectorStorePath = getEnvOrDefault("VECTOR_STORE_PATH", "")
	p.VectorBackend = getEnvOrDefault("VECTOR_BACKEND", "file")

	p.TelegramBotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", "")

	if p.Addr == "" {
		p.Addr = getEnvOrDefault("API_HOST", "")
	}
	if p.Port == 0 {
		p.Port = getEnvOrDefaultInt("API_PORT", 8000)
	}
	p.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	origins := getEnvOrDefault("CORS_ORIGINS", "*")
	p.CORSOrigins = p.CORSOrigins[:0]
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			p.CORSOrigins = append(p.CORSOrigins, origin)
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.EmbeddingDimension <= 0 {
		return errors.Errorf("invalid embedding dimension %d", p.EmbeddingDimension)
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}
	if p.VectorBackend != "file" && p.VectorBackend != "postgres" {
		return errors.Errorf("unsupported vector backend %q", p.VectorBackend)
	}
	if p.VectorBackend == "postgres" && p.Driver != "postgres" {
		return errors.New("vector backend postgres requires the postgres database driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "smartshop")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/smartshop"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("smartshop_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.VectorStorePath == "" {
		p.VectorStorePath = filepath.Join(dataDir, "vector_store")
	}

	return nil
}
