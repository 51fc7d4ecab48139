package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credential names reported by the env check and configuration errors.
const (
	CredentialOpenAIKey  = "OPENAI_API_KEY"
	CredentialStoreAddrs = "LENNY_STORE_ADDRS"
)

// Config holds the Lenny service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chat      ChatConfig      `yaml:"chat"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds browser access settings for the chat widget.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // must outlast a streamed answer
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds content store connection and index settings.
type StoreConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	CacheTTLSec      int      `yaml:"embedding_cache_ttl_sec"` // 0 = no expiry
}

// OpenAIConfig holds model provider settings.
type OpenAIConfig struct {
	APIKey         string   `yaml:"api_key"`
	BaseURL        string   `yaml:"base_url"`
	EmbeddingModel string   `yaml:"embedding_model"`
	Dimensions     int      `yaml:"dimensions"`
	ChatModel      string   `yaml:"chat_model"`
	Temperature    *float32 `yaml:"temperature"` // nil = provider default
	TimeoutSec     int      `yaml:"timeout_sec"`
}

// RetrievalConfig holds query embedding and similarity search settings.
type RetrievalConfig struct {
	AppMatchCount     int      `yaml:"app_match_count"`
	AppMatchThreshold *float64 `yaml:"app_match_threshold"`
	AppContentTypes   []string `yaml:"app_content_types"`
	KBMatchCount      int      `yaml:"kb_match_count"`
	KBMatchThreshold  *float64 `yaml:"kb_match_threshold"`
	MaxInputChars     int      `yaml:"max_input_chars"`
	EmbedTimeoutSec   int      `yaml:"embed_timeout_sec"`
	SearchTimeoutSec  int      `yaml:"search_timeout_sec"`
}

// ChatConfig holds answer generation settings.
type ChatConfig struct {
	MaxTokens            int           `yaml:"max_tokens"`
	HistoryTurns         int           `yaml:"history_turns"`
	GenerationTimeoutSec int           `yaml:"generation_timeout_sec"`
	Context              ContextConfig `yaml:"context"`
}

// ContextConfig caps the entries of each kind placed in the grounding context.
type ContextConfig struct {
	Actions    int `yaml:"actions"`
	Components int `yaml:"components"`
	Pages      int `yaml:"pages"`
	KB         int `yaml:"kb"`
}

// IngestConfig holds content loader settings.
type IngestConfig struct {
	BatchSize       int `yaml:"batch_size"`
	Workers         int `yaml:"workers"`
	MaxAPIBatchSize int `yaml:"max_api_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from a YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	c.Store.Addrs = splitList(c.Store.Addrs)
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "lenny:"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Store.HNSWM <= 0 {
		c.Store.HNSWM = 16
	}
	if c.Store.HNSWEFConstruct <= 0 {
		c.Store.HNSWEFConstruct = 200
	}

	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-large"
	}
	if c.OpenAI.Dimensions <= 0 {
		c.OpenAI.Dimensions = 1536
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o"
	}
	if c.OpenAI.TimeoutSec <= 0 {
		c.OpenAI.TimeoutSec = 120
	}

	c.applyRetrievalDefaults()
	c.applyChatDefaults()

	c.Auth.APIKeys = splitList(c.Auth.APIKeys)
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Content-Type"}
		if len(c.Auth.APIKeys) > 0 {
			c.CORS.AllowedHeaders = append(c.CORS.AllowedHeaders, "Authorization")
		}
	}

	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 64
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.MaxAPIBatchSize <= 0 {
		c.Ingest.MaxAPIBatchSize = 256
	}
}

func (c *Config) applyRetrievalDefaults() {
	r := &c.Retrieval
	if r.AppMatchCount <= 0 {
		r.AppMatchCount = 25
	}
	if r.AppMatchThreshold == nil {
		r.AppMatchThreshold = ptr(0.20)
	}
	if len(r.AppContentTypes) == 0 {
		r.AppContentTypes = []string{"action", "component", "page"}
	}
	if r.KBMatchCount <= 0 {
		r.KBMatchCount = 3
	}
	if r.KBMatchThreshold == nil {
		r.KBMatchThreshold = ptr(0.50)
	}
	if r.MaxInputChars <= 0 {
		r.MaxInputChars = 30000
	}
	if r.EmbedTimeoutSec <= 0 {
		r.EmbedTimeoutSec = 15
	}
	if r.SearchTimeoutSec <= 0 {
		r.SearchTimeoutSec = 5
	}
}

func (c *Config) applyChatDefaults() {
	ch := &c.Chat
	if ch.MaxTokens <= 0 {
		ch.MaxTokens = 1500
	}
	if ch.HistoryTurns <= 0 {
		ch.HistoryTurns = 6
	}
	if ch.GenerationTimeoutSec <= 0 {
		ch.GenerationTimeoutSec = 120
	}
	if ch.Context.Actions <= 0 {
		ch.Context.Actions = 20
	}
	if ch.Context.Components <= 0 {
		ch.Context.Components = 8
	}
	if ch.Context.Pages <= 0 {
		ch.Context.Pages = 5
	}
	if ch.Context.KB <= 0 {
		ch.Context.KB = 2
	}
}

// Validate checks the configuration for correctness.
// Credentials are not required here; see Credentials.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if t := c.Retrieval.AppMatchThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("retrieval.app_match_threshold must be within [0, 1], got %v", *t)
	}
	if t := c.Retrieval.KBMatchThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("retrieval.kb_match_threshold must be within [0, 1], got %v", *t)
	}
	for _, ct := range c.Retrieval.AppContentTypes {
		switch ct {
		case "action", "component", "page":
		default:
			return fmt.Errorf(
				"retrieval.app_content_types entries must be \"action\", \"component\" or \"page\", got %q", ct,
			)
		}
	}
	if c.OpenAI.Temperature != nil && (*c.OpenAI.Temperature < 0 || *c.OpenAI.Temperature > 2) {
		return fmt.Errorf("openai.temperature must be within [0, 2], got %v", *c.OpenAI.Temperature)
	}
	return nil
}

// Credentials reports which secrets are configured.
type Credentials struct {
	OpenAIKey  bool
	StoreAddrs bool
}

// Credentials returns the presence of the required credentials.
func (c *Config) Credentials() Credentials {
	return Credentials{
		OpenAIKey:  c.OpenAI.APIKey != "",
		StoreAddrs: len(c.Store.Addrs) > 0,
	}
}

// Presence maps credential names to whether they are set.
func (c Credentials) Presence() map[string]bool {
	return map[string]bool{
		CredentialOpenAIKey:  c.OpenAIKey,
		CredentialStoreAddrs: c.StoreAddrs,
	}
}

// Missing lists the names of absent credentials in a stable order.
func (c Credentials) Missing() []string {
	var missing []string
	if !c.OpenAIKey {
		missing = append(missing, CredentialOpenAIKey)
	}
	if !c.StoreAddrs {
		missing = append(missing, CredentialStoreAddrs)
	}
	return missing
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// splitList splits comma-separated entries and drops blanks, so a list can be
// fed from a single ${VAR} that is unset or holds several values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
