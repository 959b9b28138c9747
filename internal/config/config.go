package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// プロバイダー名
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config アプリケーション全体の設定
type Config struct {
	Vision VisionConfig `yaml:"vision"`
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
}

// VisionConfig 画像解析モデルの設定
type VisionConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Timeout 外部呼び出しのタイムアウトを返す
func (c VisionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// TTL キャッシュの有効期限を返す
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 同じディレクトリの.envがあれば環境変数に取り込む（既存の値は上書きしない）
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// 未指定の項目はデフォルト値のまま残す
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	provider := os.Getenv("VISION_PROVIDER")
	if provider == "" {
		provider = ProviderAnthropic
	}

	cfg := &Config{
		Vision: VisionConfig{
			Provider:  provider,
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:   "https://api.anthropic.com/v1/messages",
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 4096,
			TimeoutMs: 60000,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
			TTLHours: 24,
		},
		MySQL: MySQLConfig{
			Enabled:  false,
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "prescriptions",
		},
	}

	// OpenAI互換エンドポイント（Hugging Face Router等）
	if provider == ProviderOpenAI {
		cfg.Vision.APIKey = os.Getenv("HF_TOKEN")
		cfg.Vision.BaseURL = "https://router.huggingface.co/v1"
		cfg.Vision.Model = "moonshotai/Kimi-K2.5:fastest"
	}

	return cfg
}

// Validate 設定値を検証
func (c *Config) Validate() error {
	switch c.Vision.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported vision provider: %q", c.Vision.Provider)
	}

	if c.Vision.MaxTokens <= 0 {
		return errors.New("vision.max_tokens must be positive")
	}
	if c.Vision.TimeoutMs <= 0 {
		return errors.New("vision.timeout_ms must be positive")
	}
	if c.Redis.Enabled && c.Redis.TTLHours <= 0 {
		return errors.New("redis.ttl_hours must be positive")
	}

	return nil
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
