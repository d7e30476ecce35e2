package ws

import (
	"encoding/json"

	"streetguide-server-go/internal/domain/streetview"
)

// Inbound event names.
const (
	EventAnalyzeStreetview = "analyze_streetview"
	EventVoiceInput        = "voice_input"
	EventTestConnection    = "test_connection"
)

// Outbound event names.
const (
	EventConnectionStatus = "connection_status"
	EventAIResponse       = "ai_response"
	EventAIError          = "ai_error"
	EventTestResponse     = "test_response"
)

// Frame is the envelope every client message arrives in.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// AnalyzePayload is the data of an analyze_streetview event.
type AnalyzePayload struct {
	CurrentImage     string              `json:"currentImage"`
	AvailableOptions []streetview.Option `json:"availableOptions"`
	VisitedHistory   []string            `json:"visitedHistory,omitempty"`
	Personality      string              `json:"personality,omitempty"`
}

// ConnectionStatus is sent right after the upgrade.
type ConnectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TestResponse answers test_connection.
type TestResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload is the data of an ai_error event.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
