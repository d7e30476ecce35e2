// Package prompt renders the instructions sent to the vision model.
package prompt

import (
	"encoding/json"
	"strconv"
	"strings"
	"text/template"

	"streetguide-server-go/internal/domain/streetview"
)

// ToolName is the function the model is asked to call in function-call mode.
const ToolName = "analyze_streetview"

const defaultPersonality = "friendly"

var personalityTraits = map[string]string{
	"friendly":     "友好、热情",
	"professional": "专业、详细",
	"enthusiastic": "充满热情",
}

var (
	funcs = template.FuncMap{
		"heading": func(h float64) string {
			return strconv.FormatFloat(h, 'f', -1, 64)
		},
	}
	functionCallTmpl = template.Must(template.New("function_call").Funcs(funcs).Parse(functionCallTemplate))
	jsonTmpl         = template.Must(template.New("json").Funcs(funcs).Parse(jsonTemplate))
)

// Builder renders prompts for one guide configuration.
type Builder struct {
	location     string
	historyLimit int
	personality  string
}

// NewBuilder creates a builder. location may be empty; historyLimit <= 0
// drops visited history from the prompt.
func NewBuilder(location string, historyLimit int) *Builder {
	return &Builder{location: location, historyLimit: historyLimit}
}

// WithPersonality sets the personality used when a request carries none.
func (b *Builder) WithPersonality(personality string) *Builder {
	b.personality = personality
	return b
}

type promptData struct {
	Trait    string
	Location string
	Options  []streetview.Option
	Visited  []string
	MaxIndex int
}

// Trait resolves a personality name, defaulting to friendly.
func Trait(personality string) string {
	if trait, ok := personalityTraits[strings.ToLower(strings.TrimSpace(personality))]; ok {
		return trait
	}
	return personalityTraits[defaultPersonality]
}

func (b *Builder) data(req streetview.AnalysisRequest) promptData {
	visited := req.VisitedHistory
	if b.historyLimit <= 0 {
		visited = nil
	} else if len(visited) > b.historyLimit {
		visited = visited[len(visited)-b.historyLimit:]
	}
	return promptData{
		Trait:    Trait(b.personalityFor(req)),
		Location: b.location,
		Options:  req.Options,
		Visited:  visited,
		MaxIndex: len(req.Options) - 1,
	}
}

func (b *Builder) personalityFor(req streetview.AnalysisRequest) string {
	if strings.TrimSpace(req.Personality) == "" {
		return b.personality
	}
	return req.Personality
}

// FunctionCall renders the prompt asking the model to call analyze_streetview.
func (b *Builder) FunctionCall(req streetview.AnalysisRequest) (string, error) {
	var sb strings.Builder
	if err := functionCallTmpl.Execute(&sb, b.data(req)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// JSON renders the prompt asking the model to answer with a bare JSON object.
func (b *Builder) JSON(req streetview.AnalysisRequest) (string, error) {
	var sb strings.Builder
	if err := jsonTmpl.Execute(&sb, b.data(req)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Tool describes a callable function offered to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

var analyzeStreetviewParameters = json.RawMessage(`{
  "type": "object",
  "properties": {
    "sceneDescription": {
      "type": "string",
      "description": "详细描述图像中看到的场景，包括建筑、街道、人群、天气等"
    },
    "detectedText": {
      "type": "array",
      "items": {"type": "string"},
      "description": "图像中识别到的所有文字内容，包括招牌、标识、广告等"
    },
    "landmarks": {
      "type": "array",
      "items": {"type": "string"},
      "description": "识别出的地标建筑或著名场所"
    },
    "recommendedDirection": {
      "type": "object",
      "properties": {
        "optionIndex": {
          "type": "integer",
          "description": "推荐的方向选项索引（从0开始）"
        },
        "reason": {
          "type": "string",
          "description": "选择这个方向的具体理由"
        }
      },
      "required": ["optionIndex", "reason"]
    },
    "voiceResponse": {
      "type": "string",
      "description": "用导游语调生成的自然语音回复"
    }
  },
  "required": ["sceneDescription", "detectedText", "landmarks", "recommendedDirection", "voiceResponse"]
}`)

// AnalyzeStreetviewTool returns the analyze_streetview function declaration.
func AnalyzeStreetviewTool() Tool {
	return Tool{
		Name:        ToolName,
		Description: "分析街景图像并提供导游建议",
		Parameters:  analyzeStreetviewParameters,
	}
}
