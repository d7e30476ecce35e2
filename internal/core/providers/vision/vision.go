// Package vision defines the vision-capable model providers used by the guide.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"streetguide-server-go/internal/platform/logging"
)

// Config VLLLM配置结构
type Config struct {
	Name         string
	Type         string
	ModelName    string
	BaseURL      string
	APIKey       string
	Temperature  float32
	MaxTokens    int
	TopP         float32
	Timeout      time.Duration
	Proxy        string
	JSONResponse bool
}

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is a single prompt plus image sent to the model.
type Request struct {
	Prompt      string
	ImageBase64 string
	ImageBytes  []byte
	MIME        string
	// Tool, when set, asks the model to answer through a function call.
	Tool *Tool
}

// FunctionCall is a function invocation returned by the model.
type FunctionCall struct {
	Name      string
	Arguments json.RawMessage
}

// Reply is the model's answer.
type Reply struct {
	Text  string
	Calls []FunctionCall
}

// Provider 视觉模型提供者接口
type Provider interface {
	Name() string
	SupportsTools() bool
	Analyze(ctx context.Context, req Request) (*Reply, error)
	Close() error
}

// Factory 视觉模型工厂函数类型
type Factory func(cfg Config, logger *logging.Logger) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register 注册视觉模型提供者工厂
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[strings.ToLower(name)] = factory
}

// Registered lists the registered provider types.
func Registered() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// Create 创建视觉模型提供者实例
func Create(cfg Config, logger *logging.Logger) (Provider, error) {
	factoriesMu.RLock()
	factory, ok := factories[strings.ToLower(cfg.Type)]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未知的VLLLM提供者类型: %s", cfg.Type)
	}

	provider, err := factory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("创建VLLLM提供者失败: %w", err)
	}
	return provider, nil
}

// NewHTTPClient builds the outbound client for a provider: the configured
// timeout plus an optional proxy. An empty proxy falls back to the
// environment's proxy settings.
func NewHTTPClient(cfg Config) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}, nil
}

// StripThinkTags removes <think>...</think> blocks emitted by reasoning models.
func StripThinkTags(content string) string {
	for {
		start := strings.Index(content, "<think>")
		if start < 0 {
			return content
		}
		end := strings.Index(content[start:], "</think>")
		if end < 0 {
			return strings.TrimSpace(content[:start])
		}
		content = content[:start] + content[start+end+len("</think>"):]
	}
}
