package guide

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"streetguide-server-go/internal/core/providers/vision"
	"streetguide-server-go/internal/domain/prompt"
	"streetguide-server-go/internal/domain/streetview"
	"streetguide-server-go/internal/platform/errors"
)

// Defaults applied when the model omits a field.
const (
	DefaultReason        = "继续探索"
	DefaultVoiceResponse = "让我们继续探索吧！"
)

// optionIndex accepts integral JSON numbers and numeric strings. Anything
// else decodes to -1, which resolves to no direction.
type optionIndex int

func (o *optionIndex) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		*o = -1
		return nil
	}
	*o = optionIndex(f)
	return nil
}

type recommendedDirection struct {
	OptionIndex *optionIndex `json:"optionIndex"`
	Reason      *string      `json:"reason"`
}

// rawAnalysis covers both the function-call arguments and the JSON text shape.
type rawAnalysis struct {
	SceneDescription       string                `json:"sceneDescription"`
	DetectedText           []string              `json:"detectedText"`
	Landmarks              []string              `json:"landmarks"`
	VoiceResponse          *string               `json:"voiceResponse"`
	NextDirection          json.RawMessage       `json:"nextDirection"`
	RecommendedOptionIndex *optionIndex          `json:"recommendedOptionIndex"`
	RecommendationReason   *string               `json:"recommendationReason"`
	RecommendedDirection   *recommendedDirection `json:"recommendedDirection"`
}

// ParseFunctionCall reads the first analyze_streetview call in reply. Without
// such a call the reply text is parsed instead.
func ParseFunctionCall(reply *vision.Reply, options []streetview.Option) (*streetview.AnalysisResult, error) {
	const op = "guide.parse_function_call"
	if reply == nil {
		return nil, errors.New(errors.KindParse, op, "empty reply")
	}

	for _, call := range reply.Calls {
		if call.Name != prompt.ToolName {
			continue
		}
		args := bytes.TrimSpace(call.Arguments)
		// some gateways double-encode arguments as a JSON string
		if len(args) > 0 && args[0] == '"' {
			var inner string
			if err := json.Unmarshal(args, &inner); err == nil {
				args = []byte(inner)
			}
		}

		var raw rawAnalysis
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, errors.Wrap(errors.KindParse, op, "decode function arguments", err)
		}
		return raw.toResult(options)
	}

	return ParseText(reply.Text, options)
}

// ParseText decodes a JSON analysis from free model text: markdown fences are
// stripped, and if the text still does not decode, the outermost {...} slice
// is tried.
func ParseText(text string, options []streetview.Option) (*streetview.AnalysisResult, error) {
	const op = "guide.parse_text"

	clean := StripCodeFence(text)
	if clean == "" {
		return nil, errors.New(errors.KindParse, op, "empty response text")
	}

	var raw rawAnalysis
	err := json.Unmarshal([]byte(clean), &raw)
	if err != nil {
		start := strings.Index(clean, "{")
		end := strings.LastIndex(clean, "}")
		if start < 0 || end <= start {
			return nil, errors.Wrap(errors.KindParse, op, "no JSON object in response", err)
		}
		raw = rawAnalysis{}
		if err := json.Unmarshal([]byte(clean[start:end+1]), &raw); err != nil {
			return nil, errors.Wrap(errors.KindParse, op, "decode JSON object", err)
		}
	}

	return raw.toResult(options)
}

// StripCodeFence trims whitespace and a surrounding ```json / ``` fence.
func StripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(clean, "```json"):
		clean = clean[len("```json"):]
	case strings.HasPrefix(clean, "```"):
		clean = clean[len("```"):]
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

func (r *rawAnalysis) toResult(options []streetview.Option) (*streetview.AnalysisResult, error) {
	result := &streetview.AnalysisResult{
		SceneDescription: r.SceneDescription,
		DetectedText:     r.DetectedText,
		Landmarks:        r.Landmarks,
		VoiceResponse:    DefaultVoiceResponse,
	}
	if r.VoiceResponse != nil {
		result.VoiceResponse = *r.VoiceResponse
	}

	next, err := r.nextDirection(options)
	if err != nil {
		return nil, err
	}
	result.NextDirection = next

	return result.Normalize(), nil
}

func (r *rawAnalysis) nextDirection(options []streetview.Option) (*streetview.NextDirection, error) {
	// an explicit nextDirection object is passed through as given
	if len(r.NextDirection) > 0 && r.RecommendedOptionIndex == nil && r.RecommendedDirection == nil {
		if string(bytes.TrimSpace(r.NextDirection)) == "null" {
			return nil, nil
		}
		var next streetview.NextDirection
		if err := json.Unmarshal(r.NextDirection, &next); err != nil {
			return nil, errors.Wrap(errors.KindParse, "guide.next_direction", "decode nextDirection", err)
		}
		return &next, nil
	}

	index := 0
	reason := DefaultReason

	switch {
	case r.RecommendedDirection != nil:
		if r.RecommendedDirection.OptionIndex != nil {
			index = int(*r.RecommendedDirection.OptionIndex)
		}
		if r.RecommendedDirection.Reason != nil {
			reason = *r.RecommendedDirection.Reason
		}
	default:
		if r.RecommendedOptionIndex != nil {
			index = int(*r.RecommendedOptionIndex)
		}
		if r.RecommendationReason != nil {
			reason = *r.RecommendationReason
		}
	}

	return streetview.ResolveOption(options, index, reason), nil
}

// describeParseInput shortens model output for logs.
func describeParseInput(text string) string {
	const limit = 200
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return fmt.Sprintf("%s...(%d chars)", string(runes[:limit]), len(runes))
}
