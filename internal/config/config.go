package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment override keys, applied after file and defaults but before
// command-line flags. The binaries load a .env file into the environment
// before calling the Apply*Env helpers.
const (
	EnvHost     = "CHATDROP_HOST"
	EnvPort     = "CHATDROP_PORT"
	EnvFileDir  = "CHATDROP_FILE_DIR"
	EnvImageDir = "CHATDROP_IMAGE_DIR"
)

// ServerConfig configures the chatd listener and its artifact directories.
type ServerConfig struct {
	Host          string  `toml:"host"`
	Port          int     `toml:"port"`
	FileDir       string  `toml:"file_dir"`
	ImageDir      string  `toml:"image_dir"`
	MaxFrameBytes uint32  `toml:"max_frame_bytes"`
	RateLimit     float64 `toml:"rate_limit"`
	RateBurst     int     `toml:"rate_burst"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "localhost",
		Port:          11111,
		FileDir:       "files",
		ImageDir:      "images",
		MaxFrameBytes: 8 * 1024 * 1024,
		RateLimit:     0,
		RateBurst:     8,
	}
}

// ClientConfig configures the chatctl connection behavior.
type ClientConfig struct {
	Host               string        `toml:"host"`
	Port               int           `toml:"port"`
	ConnectTimeout     time.Duration `toml:"-"`
	ConnectTimeoutRaw  string        `toml:"connect_timeout"`
	MaxConnectAttempts int           `toml:"max_connect_attempts"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:               "localhost",
		Port:               11111,
		ConnectTimeout:     5 * time.Second,
		MaxConnectAttempts: 3,
	}
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ClientConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadServerConfig overlays the TOML file at path onto the defaults. Only
// keys present in the file override.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	var raw ServerConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("file_dir") {
		cfg.FileDir = strings.TrimSpace(raw.FileDir)
	}
	if meta.IsDefined("image_dir") {
		cfg.ImageDir = strings.TrimSpace(raw.ImageDir)
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("rate_burst") {
		cfg.RateBurst = raw.RateBurst
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientConfig overlays the TOML file at path onto the defaults.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	var raw ClientConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeoutRaw))
		if err != nil {
			return ClientConfig{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if meta.IsDefined("max_connect_attempts") {
		cfg.MaxConnectAttempts = raw.MaxConnectAttempts
	}

	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// ApplyServerEnv overrides cfg from process environment variables.
func ApplyServerEnv(cfg *ServerConfig) error {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(EnvFileDir)); v != "" {
		cfg.FileDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageDir)); v != "" {
		cfg.ImageDir = v
	}
	return nil
}

// ApplyClientEnv overrides cfg from process environment variables.
func ApplyClientEnv(cfg *ClientConfig) error {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("server config missing host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("server config invalid port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.FileDir) == "" {
		return fmt.Errorf("server config missing file_dir")
	}
	if strings.TrimSpace(cfg.ImageDir) == "" {
		return fmt.Errorf("server config missing image_dir")
	}
	if cfg.MaxFrameBytes == 0 {
		return fmt.Errorf("server config max_frame_bytes must be positive")
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("server config rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		return fmt.Errorf("server config rate_burst must be positive when rate_limit is set")
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("client config missing host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("client config invalid port %d", cfg.Port)
	}
	if cfg.ConnectTimeout <= 0 {
		return fmt.Errorf("client config connect_timeout must be positive")
	}
	if cfg.MaxConnectAttempts <= 0 {
		return fmt.Errorf("client config max_connect_attempts must be positive")
	}
	return nil
}
