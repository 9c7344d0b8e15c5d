package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// Server Defaults
	DefaultServerListenAddress       = ":3001"
	DefaultServerReadTimeoutSecs     = 15
	DefaultServerWriteTimeoutSecs    = 60
	DefaultServerIdleTimeoutSecs     = 120
	DefaultServerShutdownTimeoutSecs = 10
	DefaultServerMaxRequestBodyBytes = 1 << 20

	// Fetcher Defaults
	DefaultFetcherTimeoutSecs         = 30
	DefaultFetcherUserAgent           = "Mozilla/5.0 (compatible; faleproxy/1.0)"
	DefaultFetcherFollowRedirects     = true
	DefaultFetcherMaxRedirects        = 10
	DefaultFetcherMaxContentSizeMB    = 10
	DefaultFetcherInsecureSkipVerify  = false
	DefaultFetcherEnableHTTP2         = true
	DefaultFetcherMaxIdleConns        = 100
	DefaultFetcherMaxIdleConnsPerHost = 10
	DefaultFetcherMaxConnsPerHost     = 0 // no limit

	// Rewriter Defaults
	DefaultRewriterTerm        = "Yale"
	DefaultRewriterReplacement = "Fale"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	maxConfigFileSize = 10 * 1024 * 1024
)

type GlobalConfig struct {
	FetcherConfig  FetcherConfig  `json:"fetcher_config,omitempty" yaml:"fetcher_config,omitempty"`
	LogConfig      LogConfig      `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	RewriterConfig RewriterConfig `json:"rewriter_config,omitempty" yaml:"rewriter_config,omitempty"`
	ServerConfig   ServerConfig   `json:"server_config,omitempty" yaml:"server_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		FetcherConfig:  NewDefaultFetcherConfig(),
		LogConfig:      NewDefaultLogConfig(),
		RewriterConfig: NewDefaultRewriterConfig(),
		ServerConfig:   NewDefaultServerConfig(),
	}
}

type ServerConfig struct {
	IdleTimeoutSecs     int    `json:"idle_timeout_secs,omitempty" yaml:"idle_timeout_secs,omitempty" validate:"omitempty,min=1"`
	ListenAddress       string `json:"listen_address,omitempty" yaml:"listen_address,omitempty" validate:"required,listenaddr"`
	MaxRequestBodyBytes int64  `json:"max_request_body_bytes,omitempty" yaml:"max_request_body_bytes,omitempty" validate:"omitempty,min=1"`
	ReadTimeoutSecs     int    `json:"read_timeout_secs,omitempty" yaml:"read_timeout_secs,omitempty" validate:"omitempty,min=1"`
	ShutdownTimeoutSecs int    `json:"shutdown_timeout_secs,omitempty" yaml:"shutdown_timeout_secs,omitempty" validate:"omitempty,min=1"`
	WriteTimeoutSecs    int    `json:"write_timeout_secs,omitempty" yaml:"write_timeout_secs,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		IdleTimeoutSecs:     DefaultServerIdleTimeoutSecs,
		ListenAddress:       DefaultServerListenAddress,
		MaxRequestBodyBytes: DefaultServerMaxRequestBodyBytes,
		ReadTimeoutSecs:     DefaultServerReadTimeoutSecs,
		ShutdownTimeoutSecs: DefaultServerShutdownTimeoutSecs,
		WriteTimeoutSecs:    DefaultServerWriteTimeoutSecs,
	}
}

// ShutdownTimeout returns the graceful shutdown window as a duration.
func (sc ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(sc.ShutdownTimeoutSecs) * time.Second
}

type FetcherConfig struct {
	CustomHeaders       map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
	EnableHTTP2         bool              `json:"enable_http2" yaml:"enable_http2"`
	FollowRedirects     bool              `json:"follow_redirects" yaml:"follow_redirects"`
	InsecureSkipVerify  bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	MaxConnsPerHost     int               `json:"max_conns_per_host,omitempty" yaml:"max_conns_per_host,omitempty" validate:"omitempty,min=0"`
	MaxContentSizeMB    int               `json:"max_content_size_mb,omitempty" yaml:"max_content_size_mb,omitempty" validate:"omitempty,min=1"`
	MaxIdleConns        int               `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty" validate:"omitempty,min=0"`
	MaxIdleConnsPerHost int               `json:"max_idle_conns_per_host,omitempty" yaml:"max_idle_conns_per_host,omitempty" validate:"omitempty,min=0"`
	MaxRedirects        int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=0"`
	Proxy               string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,httpurl"`
	TimeoutSecs         int               `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	UserAgent           string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		CustomHeaders:       make(map[string]string),
		EnableHTTP2:         DefaultFetcherEnableHTTP2,
		FollowRedirects:     DefaultFetcherFollowRedirects,
		InsecureSkipVerify:  DefaultFetcherInsecureSkipVerify,
		MaxConnsPerHost:     DefaultFetcherMaxConnsPerHost,
		MaxContentSizeMB:    DefaultFetcherMaxContentSizeMB,
		MaxIdleConns:        DefaultFetcherMaxIdleConns,
		MaxIdleConnsPerHost: DefaultFetcherMaxIdleConnsPerHost,
		MaxRedirects:        DefaultFetcherMaxRedirects,
		TimeoutSecs:         DefaultFetcherTimeoutSecs,
		UserAgent:           DefaultFetcherUserAgent,
	}
}

type RewriterConfig struct {
	Replacement string   `json:"replacement,omitempty" yaml:"replacement,omitempty" validate:"required"`
	SkipTags    []string `json:"skip_tags,omitempty" yaml:"skip_tags,omitempty" validate:"omitempty,dive,required"`
	Term        string   `json:"term,omitempty" yaml:"term,omitempty" validate:"required"`
}

func NewDefaultRewriterConfig() RewriterConfig {
	return RewriterConfig{
		Replacement: DefaultRewriterReplacement,
		SkipTags:    []string{"script", "style"},
		Term:        DefaultRewriterTerm,
	}
}

type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty" validate:"omitempty,min=0"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       DefaultLogFile, // stderr only
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON and YAML formats.
// YAML is preferred if the file extension is .yaml or .yml.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !isRegularFile(providedPath) {
		return nil, errorwrapper.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	data, err := loadConfigFileContent(filePath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Msg("Config file loaded")
	return cfg, nil
}

// loadConfigFileContent reads the config file, refusing anything unreasonably large
func loadConfigFileContent(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, errorwrapper.NewValidationError("config_file", filePath, "config file exceeds 10MB")
	}
	return os.ReadFile(filePath)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// SaveGlobalConfig writes cfg to filePath as YAML or JSON depending on the extension.
func SaveGlobalConfig(cfg *GlobalConfig, filePath string, logger zerolog.Logger) error {
	if cfg == nil {
		return errorwrapper.NewValidationError("config", cfg, "config cannot be nil")
	}
	if filePath == "" {
		filePath = "config.yaml"
	}

	var data []byte
	var err error
	if isYAMLFile(filepath.Ext(filePath)) {
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return errorwrapper.NewError("failed to marshal config to YAML: %w", err)
		}
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errorwrapper.NewError("failed to marshal config to JSON: %w", err)
		}
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errorwrapper.WrapError(err, "failed to create config directory")
		}
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errorwrapper.WrapError(err, "failed to write config file")
	}

	logger.Info().Str("path", filePath).Msg("Configuration saved")
	return nil
}
