// Package config loads and persists the tex2img configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "tex2img.yaml"
	// EnvOpenAIAPIKey is the environment variable name for the OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable name for the OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default model used for markup generation
	DefaultModel = "gpt-4o"
	// DefaultCompiler is the default LaTeX compiler command
	DefaultCompiler = "pdflatex"
	// DefaultCompileTimeout is the default compilation timeout
	DefaultCompileTimeout = 2 * time.Minute
	// DefaultDPI is the default rendering resolution
	DefaultDPI = 150
)

// Config is the declarative configuration schema.
type Config struct {
	Compiler       string `yaml:"compiler"`        // "pdflatex", "xelatex" or "lualatex"
	CompileTimeout string `yaml:"compile_timeout"` // Go duration string, e.g. "2m"
	RenderDPI      int    `yaml:"render_dpi"`
	WorkDirectory  string `yaml:"work_directory"`
	ResultsDir     string `yaml:"results_dir"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`
	CacheDir      string `yaml:"cache_dir"` // model response cache
}

// CompileTimeoutDuration parses CompileTimeout, falling back to the default
// on an empty or invalid value.
func (c *Config) CompileTimeoutDuration() time.Duration {
	if c.CompileTimeout == "" {
		return DefaultCompileTimeout
	}
	d, err := time.ParseDuration(c.CompileTimeout)
	if err != nil || d <= 0 {
		logger.Warn("invalid compile_timeout, using default",
			logger.String("value", c.CompileTimeout))
		return DefaultCompileTimeout
	}
	return d
}

// Manager loads, holds and persists a Config.
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a Manager reading from configPath. An empty path
// selects the default location under the user's config directory.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "tex2img", DefaultConfigFileName)
	}

	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

// defaultConfig returns a Config with default values
func defaultConfig() *Config {
	return &Config{
		Compiler:      DefaultCompiler,
		RenderDPI:     DefaultDPI,
		OpenAIBaseURL: DefaultBaseURL,
		OpenAIModel:   DefaultModel,
	}
}

// Load reads the configuration file. A missing file is not an error: the
// defaults apply. Environment variables take precedence for the API key and
// base URL when the file leaves them empty.
func (m *Manager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		cfg := defaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Error("invalid config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "invalid config file", err)
		}
		m.config = cfg
	}

	m.applyEnvOverrides()
	m.applyDefaults()
	return nil
}

// applyEnvOverrides fills API credentials from the environment when the
// config file leaves them empty.
func (m *Manager) applyEnvOverrides() {
	if m.config.OpenAIAPIKey == "" {
		if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
			m.config.OpenAIAPIKey = key
			logger.Debug("using API key from environment")
		}
	}
	if m.config.OpenAIBaseURL == "" || m.config.OpenAIBaseURL == DefaultBaseURL {
		if url := os.Getenv(EnvOpenAIBaseURL); url != "" {
			m.config.OpenAIBaseURL = url
		}
	}
}

// applyDefaults backfills zero values after an explicit file load.
func (m *Manager) applyDefaults() {
	if m.config.Compiler == "" {
		m.config.Compiler = DefaultCompiler
	}
	if m.config.RenderDPI <= 0 {
		m.config.RenderDPI = DefaultDPI
	}
	if m.config.OpenAIBaseURL == "" {
		m.config.OpenAIBaseURL = DefaultBaseURL
	}
	if m.config.OpenAIModel == "" {
		m.config.OpenAIModel = DefaultModel
	}
}

// Save writes the current configuration back to disk.
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// Get returns the loaded configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// Path returns the configuration file path.
func (m *Manager) Path() string {
	return m.configPath
}
