package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			WebsocketPath: "/ws",
			CORSOrigins:   []string{"*"},
		},
		Transport: TransportConfig{
			WebSocket: WebSocketConfig{
				HandshakeTimeout: 10 * time.Second,
				MaxMessageBytes:  16 << 20,
				MaxInflight:      4,
				IdleTimeout:      10 * time.Minute,
			},
		},
		Guide: GuideConfig{
			Mode:         ModeFunctionCall,
			Personality:  "friendly",
			LocationHint: "拉斯维加斯",
			HistoryLimit: 5,
			MockDelay:    time.Second,
			VoiceDelay:   500 * time.Millisecond,
		},
		Image: ImageConfig{
			MaxFileSize:    10 * 1024 * 1024,
			MaxPixels:      16 * 1024 * 1024,
			MaxWidth:       4096,
			MaxHeight:      4096,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
			EnableDeepScan: true,
			MaxDimension:   1024,
			JPEGQuality:    85,
		},
		Selected: SelectedConfig{
			VLLLM: "GeminiVLLM",
		},
		VLLLM: map[string]VLLLMConfig{
			"GeminiVLLM": {
				Type:        "openai",
				ModelName:   "gemini-1.5-flash",
				BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
				Temperature: 0.7,
				MaxTokens:   1024,
				TopP:        1,
				Timeout:     60 * time.Second,
			},
			"OllamaVLLM": {
				Type:        "ollama",
				ModelName:   "llava",
				BaseURL:     "http://localhost:11434",
				Temperature: 0.7,
				MaxTokens:   1024,
				Timeout:     120 * time.Second,
			},
		},
	}
}
