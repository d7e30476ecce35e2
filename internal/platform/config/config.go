package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Guide modes.
const (
	ModeFunctionCall = "function_call"
	ModeJSON         = "json"
)

type Config struct {
	Server    ServerConfig           `yaml:"server" json:"server"`
	Log       LogConfig              `yaml:"log" json:"log"`
	Web       WebConfig              `yaml:"web" json:"web"`
	Transport TransportConfig        `yaml:"transport" json:"transport"`
	Guide     GuideConfig            `yaml:"guide" json:"guide"`
	Image     ImageConfig            `yaml:"image" json:"image"`
	Selected  SelectedConfig         `yaml:"selected_module" json:"selected_module"`
	VLLLM     map[string]VLLLMConfig `yaml:"VLLLM" json:"VLLLM"`
}

type ServerConfig struct {
	IP   string `yaml:"ip" json:"ip"`
	Port int    `yaml:"port" json:"port"`
	// Proxy 访问上游 AI 服务时使用的出站代理
	Proxy string `yaml:"proxy" json:"proxy"`
}

type LogConfig struct {
	Level string `yaml:"log_level" json:"log_level"`
	Dir   string `yaml:"log_dir" json:"log_dir"`
	File  string `yaml:"log_file" json:"log_file"`
}

type WebConfig struct {
	StaticDir     string   `yaml:"static_dir" json:"static_dir"`
	WebsocketPath string   `yaml:"websocket_path" json:"websocket_path"`
	CORSOrigins   []string `yaml:"cors_origins" json:"cors_origins"`
}

// TransportConfig 传输层配置
type TransportConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket" json:"websocket"`
}

type WebSocketConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
	MaxMessageBytes  int64         `yaml:"max_message_bytes" json:"max_message_bytes"`
	MaxInflight      int64         `yaml:"max_inflight" json:"max_inflight"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
}

// GuideConfig 导游行为配置
type GuideConfig struct {
	Mode         string        `yaml:"mode" json:"mode"`
	Personality  string        `yaml:"personality" json:"personality"`
	LocationHint string        `yaml:"location_hint" json:"location_hint"`
	HistoryLimit int           `yaml:"history_limit" json:"history_limit"`
	MockDelay    time.Duration `yaml:"mock_delay" json:"mock_delay"`
	VoiceDelay   time.Duration `yaml:"voice_delay" json:"voice_delay"`
}

// ImageConfig 图像解码与安全校验配置
type ImageConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size" json:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels" json:"max_pixels"`
	MaxWidth       int      `yaml:"max_width" json:"max_width"`
	MaxHeight      int      `yaml:"max_height" json:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats" json:"allowed_formats"`
	EnableDeepScan bool     `yaml:"enable_deep_scan" json:"enable_deep_scan"`
	MaxDimension   int      `yaml:"max_dimension" json:"max_dimension"`
	JPEGQuality    int      `yaml:"jpeg_quality" json:"jpeg_quality"`
}

type SelectedConfig struct {
	VLLLM string `yaml:"VLLLM" json:"VLLLM"`
}

type VLLLMConfig struct {
	Type        string        `yaml:"type" json:"type"`
	ModelName   string        `yaml:"model_name" json:"model_name"`
	BaseURL     string        `yaml:"url" json:"url"`
	APIKey      string        `yaml:"api_key" json:"-"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	TopP        float32       `yaml:"top_p" json:"top_p"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	// JSONResponse 请求上游以 JSON 对象格式返回（仅 JSON 模式）
	JSONResponse bool `yaml:"json_response" json:"json_response"`
}

// SelectedVLLLM 返回当前选中的视觉模型配置
func (c *Config) SelectedVLLLM() (string, VLLLMConfig, bool) {
	name := c.Selected.VLLLM
	cfg, ok := c.VLLLM[name]
	return name, cfg, ok
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.IP, c.Server.Port)
}

// Validate 检查配置的基本合法性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Guide.Mode {
	case ModeFunctionCall, ModeJSON:
	default:
		return fmt.Errorf("invalid guide mode: %q", c.Guide.Mode)
	}
	if c.Guide.HistoryLimit < 0 {
		return fmt.Errorf("invalid guide history limit: %d", c.Guide.HistoryLimit)
	}
	if !strings.HasPrefix(c.Web.WebsocketPath, "/") {
		return fmt.Errorf("websocket path must start with '/': %q", c.Web.WebsocketPath)
	}
	if c.Transport.WebSocket.MaxInflight <= 0 {
		return fmt.Errorf("invalid websocket max_inflight: %d", c.Transport.WebSocket.MaxInflight)
	}
	if c.Transport.WebSocket.IdleTimeout < 0 {
		return fmt.Errorf("invalid websocket idle_timeout: %s", c.Transport.WebSocket.IdleTimeout)
	}
	if c.Image.MaxFileSize <= 0 || c.Image.MaxPixels <= 0 {
		return fmt.Errorf("image limits must be positive")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d", c.Image.JPEGQuality)
	}
	name, vcfg, ok := c.SelectedVLLLM()
	if !ok {
		return fmt.Errorf("selected VLLLM provider %q is not configured", name)
	}
	if vcfg.Type == "" {
		return fmt.Errorf("VLLLM provider %q has no type", name)
	}
	return nil
}

// ToString renders the config as YAML with API keys masked.
func (c *Config) ToString() string {
	masked := *c
	masked.VLLLM = make(map[string]VLLLMConfig, len(c.VLLLM))
	for name, provider := range c.VLLLM {
		if provider.APIKey != "" {
			provider.APIKey = "******"
		}
		masked.VLLLM[name] = provider
	}
	data, _ := yaml.Marshal(&masked)
	return string(data)
}
