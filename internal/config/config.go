package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // gin mode: debug, release, test
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
		Env   string `yaml:"env"` // "production" switches to JSON output
	} `yaml:"logging"`

	Model struct {
		Backend     string `yaml:"backend"` // "linear", "onnx" or "remote"
		Path        string `yaml:"path"`
		MeansPath   string `yaml:"means_path"`
		ColumnsPath string `yaml:"columns_path"`

		ONNX struct {
			SharedLibraryPath string `yaml:"shared_library_path"`
			InputName         string `yaml:"input_name"`
			OutputName        string `yaml:"output_name"`
		} `yaml:"onnx"`

		Remote struct {
			URL            string `yaml:"url"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"remote"`
	} `yaml:"model"`

	Storage struct {
		Type string `yaml:"type"` // "csv" or "sqlite"
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration from YAML file.
// A .env file next to the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8501"
	}

	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Model.Backend == "" {
		c.Model.Backend = "linear"
	}

	if c.Model.Path == "" {
		c.Model.Path = "./artifacts/ridge_model.json"
	}

	if c.Model.MeansPath == "" {
		c.Model.MeansPath = "./artifacts/ridge_model_means.json"
	}

	if c.Model.ColumnsPath == "" {
		c.Model.ColumnsPath = "./artifacts/ridge_model_columns.json"
	}

	if c.Model.Remote.TimeoutSeconds == 0 {
		c.Model.Remote.TimeoutSeconds = 10
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "csv"
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "./data/user_predictions.csv"
	}

	// Expand environment variables in secrets and endpoints
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
	c.Model.Remote.URL = os.ExpandEnv(c.Model.Remote.URL)
	c.Model.ONNX.SharedLibraryPath = os.ExpandEnv(c.Model.ONNX.SharedLibraryPath)
}
