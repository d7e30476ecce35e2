package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath 未设置 CONFIG_PATH 时读取的配置文件
const DefaultPath = "config.yaml"

// Loader reads configuration from a YAML file layered over DefaultConfig.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that honours CONFIG_PATH and a local .env file.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file path.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides the environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
// Path is empty when no file was found and defaults were used.
type Result struct {
	Config *Config
	Path   string
}

// Load 读取 .env、配置文件与环境变量覆盖项，并校验最终配置
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("未找到 .env 文件，使用系统环境变量")
		}
	}

	path := l.resolvePath()
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.Expand(string(data), l.expand)
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		path = ""
	default:
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) resolvePath() string {
	if l.path != "" {
		return l.path
	}
	if p, ok := l.lookupEnv("CONFIG_PATH"); ok && strings.TrimSpace(p) != "" {
		return strings.TrimSpace(p)
	}
	return DefaultPath
}

func (l *Loader) expand(key string) string {
	v, _ := l.lookupEnv(key)
	return v
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	if v, ok := l.lookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := l.lookupEnv("SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT 不是有效端口: %w", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := l.lookupEnv("HTTPS_PROXY"); ok && v != "" && cfg.Server.Proxy == "" {
		cfg.Server.Proxy = v
	}
	if v, ok := l.lookupEnv("VLLLM_API_KEY"); ok && v != "" {
		name, vcfg, found := cfg.SelectedVLLLM()
		if found {
			vcfg.APIKey = v
			cfg.VLLLM[name] = vcfg
		}
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	return cfg.Validate()
}
