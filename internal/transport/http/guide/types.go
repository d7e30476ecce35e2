package guide

import "streetguide-server-go/internal/domain/streetview"

// ServiceName is reported by /health.
const ServiceName = "AI Street View Guide"

// AnalyzeRequest 为 POST /analyze 的请求体
type AnalyzeRequest struct {
	Image          string              `json:"image"`
	Options        []streetview.Option `json:"options"`
	VisitedHistory []string            `json:"visitedHistory"`
	Personality    string              `json:"personality,omitempty"`
}

// HealthResponse 为 GET /health 的响应体
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
	Provider  string `json:"provider"`
}

// Info describes the running guide for /health.
type Info struct {
	// Mode is "mock", "function_call" or "json".
	Mode     string
	Provider string
}
