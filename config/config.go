package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Maintain MaintainConfig `mapstructure:"maintenance"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// BackendConfig selects the generative provider and its models.
type BackendConfig struct {
	Provider     string `mapstructure:"provider"` // "gemini" or "openai"
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ChatModel    string `mapstructure:"chat_model"`
	TTSModel     string `mapstructure:"tts_model"`
	TTSVoice     string `mapstructure:"tts_voice"`
	ImageModel   string `mapstructure:"image_model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

type StorageConfig struct {
	Type       string `mapstructure:"type"` // "file", "sqlite", "postgres"
	DataDir    string `mapstructure:"data_dir"`
	Connection string `mapstructure:"connection"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MaintainConfig struct {
	BackupSpec string `mapstructure:"backup_spec"` // cron spec, e.g. "@every 15m"
	FlushSpec  string `mapstructure:"flush_spec"`  // cron spec for coalesced saves
}

var cfg *Config

// Load reads the yaml config file and overlays MADDI_* environment
// variables. A missing file is not fatal; defaults cover local use.
func Load(configPath string) (*Config, error) {
	// .env is optional; absent in production.
	_ = godotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MADDI")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.Backend.APIKey == "" {
		switch cfg.Backend.Provider {
		case "openai":
			cfg.Backend.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.Backend.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("backend.provider", "gemini")
	viper.SetDefault("backend.chat_model", "gemini-2.5-flash")
	viper.SetDefault("backend.tts_model", "gemini-2.5-flash-preview-tts")
	viper.SetDefault("backend.tts_voice", "Kore")
	viper.SetDefault("backend.image_model", "gemini-2.0-flash-preview-image-generation")

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("storage.connection", "maddi.sqlite")

	viper.SetDefault("audio.sample_rate", 24000)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("cors.allowed_origins", []string{"*"})

	viper.SetDefault("maintenance.backup_spec", "@every 15m")
	viper.SetDefault("maintenance.flush_spec", "@every 1m")
}

func Get() *Config {
	return cfg
}
