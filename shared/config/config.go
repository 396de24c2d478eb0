package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"learning-path/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI       AIConfig               `yaml:"ai"`
	YouTube  YouTubeConfig          `yaml:"youtube"`
	Storage  StorageConfig          `yaml:"storage"`
	Cache    CacheConfig            `yaml:"cache"`
	Server   ServerConfig           `yaml:"server"`
	Email    EmailConfig            `yaml:"email"`
	Logging  LoggingConfig          `yaml:"logging"`
	Catalog  []models.CourseRequest `yaml:"catalog"`
	Schedule string                 `yaml:"schedule"`
}

type AIConfig struct {
	Provider     string            `yaml:"provider"`
	GeminiAPIKey string            `yaml:"gemini_api_key"`
	OpenAIAPIKey string            `yaml:"openai_api_key"`
	Models       map[string]string `yaml:"models"`
	Temperature  float32           `yaml:"temperature"`
	MaxTokens    int               `yaml:"max_tokens"`
	MaxAttempts  int               `yaml:"max_attempts"`
	BaseDelay    time.Duration     `yaml:"base_delay"`
	Concurrency  int               `yaml:"concurrency"`
}

type YouTubeConfig struct {
	APIKey         string                `yaml:"api_key"`
	ClientID       string                `yaml:"client_id"`
	ClientSecret   string                `yaml:"client_secret"`
	TokenFile      string                `yaml:"token_file"`
	Limits         models.ResourceLimits `yaml:"limits"`
	SearchInterval time.Duration         `yaml:"search_interval"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Folder  string `yaml:"folder"`
	DataDir string `yaml:"data_dir"`
}

type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether digest emails should be sent at all.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StorageGCS   = "gcs"
	StorageLocal = "local"
)

// DefaultModels maps every category to a model. "General" is the fallback
// for categories without an entry.
func DefaultModels() map[string]string {
	return map[string]string{
		string(models.CategoryTechnical):  "gemini-2.5-pro",
		string(models.CategoryMath):       "gemini-2.5-pro",
		string(models.CategoryScience):    "gemini-2.5-flash",
		string(models.CategoryHistory):    "gemini-2.5-flash",
		string(models.CategoryLiterature): "gemini-2.5-flash",
		string(models.CategoryBusiness):   "gemini-2.5-flash",
		string(models.CategoryHealth):     "gemini-2.5-flash-lite",
		string(models.CategoryGeneral):    "gemini-2.5-flash",
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML, then fills secrets from the environment and applies
// defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	fill(&c.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	fill(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	fill(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	fill(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	fill(&c.Storage.Bucket, "COURSE_BUCKET")
	fill(&c.Cache.RedisAddr, "REDIS_ADDR")
	fill(&c.Email.Username, "EMAIL_USERNAME")
	fill(&c.Email.Password, "EMAIL_PASSWORD")
}

func (c *Config) applyDefaults() {
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderGemini
	}
	c.AI.Provider = strings.ToLower(c.AI.Provider)

	defaults := DefaultModels()
	if c.AI.Models == nil {
		c.AI.Models = defaults
	} else if _, ok := c.AI.Models[string(models.CategoryGeneral)]; !ok {
		c.AI.Models[string(models.CategoryGeneral)] = defaults[string(models.CategoryGeneral)]
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.5
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 8192
	}
	if c.AI.MaxAttempts == 0 {
		c.AI.MaxAttempts = 5
	}
	if c.AI.BaseDelay == 0 {
		c.AI.BaseDelay = time.Second
	}
	if c.AI.Concurrency == 0 {
		c.AI.Concurrency = 3
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	defLimits := models.DefaultResourceLimits()
	if c.YouTube.Limits.MaxKeywords == 0 {
		c.YouTube.Limits.MaxKeywords = defLimits.MaxKeywords
	}
	if c.YouTube.Limits.PerKeyword == 0 {
		c.YouTube.Limits.PerKeyword = defLimits.PerKeyword
	}
	if c.YouTube.Limits.MaxTotal == 0 {
		c.YouTube.Limits.MaxTotal = defLimits.MaxTotal
	}
	if c.YouTube.SearchInterval == 0 {
		c.YouTube.SearchInterval = time.Second
	}

	if c.Storage.Backend == "" {
		if c.Storage.Bucket != "" {
			c.Storage.Backend = StorageGCS
		} else {
			c.Storage.Backend = StorageLocal
		}
	}
	if c.Storage.Folder == "" {
		c.Storage.Folder = "courses"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Logging.Mode == "" {
		c.Logging.Mode = "development"
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 3 * * *" // Daily at 3 AM
	}
}

// ModelFor resolves the model for a category, falling back to "General".
func (c *Config) ModelFor(category models.Category) string {
	if model, ok := c.AI.Models[string(category)]; ok && model != "" {
		return model
	}
	return c.AI.Models[string(models.CategoryGeneral)]
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
		}
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or ai.openai_api_key)")
		}
	default:
		return fmt.Errorf("unknown ai.provider %q (expected %s or %s)", c.AI.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.AI.MaxAttempts < 1 {
		return fmt.Errorf("ai.max_attempts must be at least 1")
	}
	if c.AI.Concurrency < 1 {
		return fmt.Errorf("ai.concurrency must be at least 1")
	}

	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	if c.YouTube.Limits.MaxKeywords < 0 || c.YouTube.Limits.PerKeyword < 1 || c.YouTube.Limits.MaxTotal < 0 {
		return fmt.Errorf("youtube.limits must be non-negative and videos_per_keyword at least 1")
	}

	switch c.Storage.Backend {
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the gcs backend (set COURSE_BUCKET or storage.bucket)")
		}
	case StorageLocal:
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	if c.Email.Enabled() && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("Email credentials are required when email is configured (set EMAIL_USERNAME and EMAIL_PASSWORD)")
	}

	for i, req := range c.Catalog {
		if err := req.Normalized().Validate(); err != nil {
			return fmt.Errorf("catalog entry %d: %w", i, err)
		}
	}
	return nil
}
