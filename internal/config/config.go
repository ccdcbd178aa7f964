package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Retrieval RetrievalConfig
	History   HistoryConfig
	Redis     RedisConfig
	CacheTTLs CacheTTLConfig
	Upload    UploadConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type LoggerConfig struct {
	Env   string
	Level string
}

// LLMConfig configures the chat models. Each capability may use its own model name
// on the same provider.
type LLMConfig struct {
	Provider        string // "openai" or "ollama"
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	RouterModel     string
	QuizModel       string
	SQLModel        string
	RAGModel        string
	QuizTemperature float64
}

type EmbeddingConfig struct {
	Source string // "openai" or "ollama"
	Cache  string // "none", "memory" or "redis"
	OpenAI OpenAIEmbeddingConfig
	Ollama OllamaEmbeddingConfig
}

type OpenAIEmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OllamaEmbeddingConfig struct {
	ServerURL string
	Model     string
}

type RetrievalConfig struct {
	TopK          int
	FetchK        int
	Lambda        float64
	BufferSize    int
	BreakpointStd float64
}

type HistoryConfig struct {
	Driver          string // "mongo", "oracle" or "bolt"
	ContextMessages int
	Mongo           MongoConfig
	DB              DBConfig
	Bolt            BoltConfig
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type BoltConfig struct {
	Path string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CacheTTLConfig struct {
	Embedding string
}

type UploadConfig struct {
	MaxBytes         int64
	TempDir          string
	// UniDocLicenseKey is the metered key unioffice needs to open .docx files.
	UniDocLicenseKey string
}

func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		Env: v.GetString("env"),
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(v.GetString("llm.provider")),
			APIKey:          v.GetString("llm.api_key"),
			BaseURL:         v.GetString("llm.base_url"),
			Timeout:         v.GetDuration("llm.timeout"),
			RouterModel:     v.GetString("llm.router_model"),
			QuizModel:       v.GetString("llm.quiz_model"),
			SQLModel:        v.GetString("llm.sql_model"),
			RAGModel:        v.GetString("llm.rag_model"),
			QuizTemperature: v.GetFloat64("llm.quiz_temperature"),
		},
		Embedding: EmbeddingConfig{
			Source: strings.ToLower(v.GetString("embedding.source")),
			Cache:  strings.ToLower(v.GetString("embedding.cache")),
			OpenAI: OpenAIEmbeddingConfig{
				APIKey:  v.GetString("embedding.openai.api_key"),
				BaseURL: v.GetString("embedding.openai.base_url"),
				Model:   v.GetString("embedding.openai.model"),
			},
			Ollama: OllamaEmbeddingConfig{
				ServerURL: v.GetString("embedding.ollama.server_url"),
				Model:     v.GetString("embedding.ollama.model"),
			},
		},
		Retrieval: RetrievalConfig{
			TopK:          v.GetInt("retrieval.top_k"),
			FetchK:        v.GetInt("retrieval.fetch_k"),
			Lambda:        v.GetFloat64("retrieval.lambda"),
			BufferSize:    v.GetInt("retrieval.buffer_size"),
			BreakpointStd: v.GetFloat64("retrieval.breakpoint_std"),
		},
		History: HistoryConfig{
			Driver:          strings.ToLower(v.GetString("history.driver")),
			ContextMessages: v.GetInt("history.context_messages"),
			Mongo: MongoConfig{
				URI:        v.GetString("history.mongo.uri"),
				Database:   v.GetString("history.mongo.database"),
				Collection: v.GetString("history.mongo.collection"),
			},
			DB: DBConfig{
				Host:     v.GetString("history.db.host"),
				Port:     v.GetInt("history.db.port"),
				User:     v.GetString("history.db.user"),
				Password: v.GetString("history.db.password"),
				DBName:   v.GetString("history.db.name"),
			},
			Bolt: BoltConfig{
				Path: v.GetString("history.bolt.path"),
			},
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		CacheTTLs: CacheTTLConfig{
			Embedding: v.GetString("cache_ttls.embedding"),
		},
		Upload: UploadConfig{
			MaxBytes:         v.GetInt64("upload.max_bytes"),
			TempDir:          v.GetString("upload.temp_dir"),
			UniDocLicenseKey: v.GetString("upload.unidoc_license_key"),
		},
	}

	// Variable names used by the original deployment scripts.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = key
		}
		if config.Embedding.OpenAI.APIKey == "" {
			config.Embedding.OpenAI.APIKey = key
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.History.Mongo.URI = uri
	}
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		config.LLM.BaseURL = llmServer
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		config.Upload.UniDocLicenseKey = key
	}
	if config.Logger.Env == "" {
		config.Logger.Env = config.Env
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 120*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.body_limit_mb", 20)

	v.SetDefault("logger.level", "info")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", 90*time.Second)
	v.SetDefault("llm.router_model", "gpt-4")
	v.SetDefault("llm.quiz_model", "gpt-4o-2024-08-06")
	v.SetDefault("llm.sql_model", "gpt-4o-mini")
	v.SetDefault("llm.rag_model", "gpt-4")
	v.SetDefault("llm.quiz_temperature", 1.3)

	v.SetDefault("embedding.source", "openai")
	v.SetDefault("embedding.cache", "none")
	v.SetDefault("embedding.openai.model", "text-embedding-ada-002")
	v.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")

	v.SetDefault("retrieval.top_k", 3)
	v.SetDefault("retrieval.fetch_k", 20)
	v.SetDefault("retrieval.lambda", 1.0)
	v.SetDefault("retrieval.buffer_size", 1)
	v.SetDefault("retrieval.breakpoint_std", 1.0)

	v.SetDefault("history.driver", "mongo")
	v.SetDefault("history.context_messages", 10)
	v.SetDefault("history.mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("history.mongo.database", "QUERYLY")
	v.SetDefault("history.mongo.collection", "CHAT_HISTORY")
	v.SetDefault("history.db.port", 1521)
	v.SetDefault("history.bolt.path", "data/queryly.bolt")

	v.SetDefault("cache_ttls.embedding", "168h")

	v.SetDefault("upload.max_bytes", int64(10*1024*1024))
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key (or OPENAI_API_KEY) is required for the openai provider")
		}
	case "ollama":
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("llm.base_url (or LLM_SERVER) is required for the ollama provider")
		}
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}

	switch c.Embedding.Source {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported embedding source: %q", c.Embedding.Source)
	}

	switch c.Embedding.Cache {
	case "", "none", "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when embedding.cache is redis")
		}
	default:
		return fmt.Errorf("unsupported embedding cache: %q", c.Embedding.Cache)
	}

	switch c.History.Driver {
	case "mongo":
		if c.History.Mongo.URI == "" {
			return fmt.Errorf("history.mongo.uri (or MONGO_URI) is required")
		}
	case "oracle":
		if c.History.DB.Host == "" || c.History.DB.User == "" {
			return fmt.Errorf("history.db.host and history.db.user are required for the oracle driver")
		}
	case "bolt":
		if c.History.Bolt.Path == "" {
			return fmt.Errorf("history.bolt.path is required for the bolt driver")
		}
	default:
		return fmt.Errorf("unsupported history driver: %q", c.History.Driver)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Retrieval.Lambda < 0 || c.Retrieval.Lambda > 1 {
		return fmt.Errorf("retrieval.lambda must be within [0, 1]")
	}
	return nil
}

// GetDSN returns the go-ora connection URL for the oracle history driver.
func (c *Config) GetDSN() string {
	return go_ora.BuildUrl(
		c.History.DB.Host,
		c.History.DB.Port,
		c.History.DB.DBName,
		c.History.DB.User,
		c.History.DB.Password,
		nil,
	)
}

// ParseTTLStringOrDefault parses a duration string, falling back to defaultTTL
// when the value is empty or invalid.
func (c *Config) ParseTTLStringOrDefault(ttlString string, defaultTTL time.Duration) time.Duration {
	if ttlString == "" {
		return defaultTTL
	}
	d, err := time.ParseDuration(ttlString)
	if err != nil || d <= 0 {
		return defaultTTL
	}
	return d
}
