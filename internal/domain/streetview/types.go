// Package streetview holds the request and response shapes exchanged with
// street view clients.
package streetview

import "strings"

// Option is one candidate navigation direction offered by the client.
type Option struct {
	Description string  `json:"description"`
	Heading     float64 `json:"heading"`
	PanoID      string  `json:"panoId"`
	// PreviewImage is accepted from clients but never read.
	PreviewImage string `json:"previewImage,omitempty"`
}

// AnalysisRequest is the transport-neutral analysis input.
type AnalysisRequest struct {
	SessionID string
	// Source names the transport the request arrived on.
	Source string

	Image          string
	Options        []Option
	VisitedHistory []string
	Personality    string
}

// NextDirection is the recommended option, resolved against the request's options.
type NextDirection struct {
	PanoID  string  `json:"panoId"`
	Heading float64 `json:"heading"`
	Reason  string  `json:"reason"`
}

// AnalysisResult is the normalized payload returned to clients.
type AnalysisResult struct {
	SceneDescription string         `json:"sceneDescription"`
	DetectedText     []string       `json:"detectedText"`
	Landmarks        []string       `json:"landmarks"`
	NextDirection    *NextDirection `json:"nextDirection"`
	VoiceResponse    string         `json:"voiceResponse"`
	Timestamp        string         `json:"timestamp,omitempty"`
	AnalysisID       string         `json:"analysisId,omitempty"`
}

// Normalize replaces nil slices so they serialize as empty arrays.
func (r *AnalysisResult) Normalize() *AnalysisResult {
	if r.DetectedText == nil {
		r.DetectedText = []string{}
	}
	if r.Landmarks == nil {
		r.Landmarks = []string{}
	}
	return r
}

// Notice is the short reply sent when a request is rejected or a handler fails.
type Notice struct {
	VoiceResponse string `json:"voiceResponse"`
}

// VoiceInput carries a client voice command. The payload is opaque to the server.
type VoiceInput struct {
	SessionID string
	Source    string
	Payload   map[string]any
}

// VoiceReply answers a voice command.
type VoiceReply struct {
	VoiceResponse  string `json:"voiceResponse"`
	RecognizedText string `json:"recognized_text,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// ResolveOption maps an option index onto a NextDirection. An index outside
// [0, len(options)) yields nil.
func ResolveOption(options []Option, index int, reason string) *NextDirection {
	if index < 0 || index >= len(options) {
		return nil
	}
	opt := options[index]
	return &NextDirection{
		PanoID:  opt.PanoID,
		Heading: opt.Heading,
		Reason:  reason,
	}
}

// TrimmedImage returns the image payload without surrounding whitespace.
func (r AnalysisRequest) TrimmedImage() string {
	return strings.TrimSpace(r.Image)
}
