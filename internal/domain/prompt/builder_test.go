package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/domain/streetview"
)

func sampleRequest() streetview.AnalysisRequest {
	return streetview.AnalysisRequest{
		Options: []streetview.Option{
			{Description: "沿拉斯维加斯大道向北", Heading: 0, PanoID: "p1"},
			{Description: "向东走", Heading: 92.5, PanoID: "p2"},
		},
		VisitedHistory: []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7"},
		Personality:    "professional",
	}
}

func TestBuilder_FunctionCall(t *testing.T) {
	b := NewBuilder("", 5)

	out, err := b.FunctionCall(sampleRequest())
	require.NoError(t, err)

	assert.Contains(t, out, "你是一个专业、详细的AI街景导游")
	assert.Contains(t, out, "0. 沿拉斯维加斯大道向北 (方向: 0°)")
	assert.Contains(t, out, "1. 向东走 (方向: 92.5°)")
	assert.Contains(t, out, "analyze_streetview")
	assert.Contains(t, out, "0 到 1 之间")
	assert.NotContains(t, out, "当前位置")
}

func TestBuilder_JSON(t *testing.T) {
	b := NewBuilder("拉斯维加斯", 5)

	out, err := b.JSON(sampleRequest())
	require.NoError(t, err)

	assert.Contains(t, out, "当前位置：拉斯维加斯")
	assert.Contains(t, out, `"recommendedOptionIndex": 0`)
	assert.Contains(t, out, "recommendedOptionIndex 必须是 0 到 1 之间的数字")

	// only the last five visited ids are listed
	assert.NotContains(t, out, "- v1\n")
	assert.NotContains(t, out, "- v2\n")
	for _, id := range []string{"v3", "v4", "v5", "v6", "v7"} {
		assert.Contains(t, out, "- "+id+"\n")
	}
}

func TestBuilder_NoHistory(t *testing.T) {
	req := sampleRequest()
	req.VisitedHistory = nil

	out, err := NewBuilder("", 5).JSON(req)
	require.NoError(t, err)
	assert.NotContains(t, out, "最近访问过的位置ID")

	req = sampleRequest()
	out, err = NewBuilder("", 0).FunctionCall(req)
	require.NoError(t, err)
	assert.NotContains(t, out, "最近访问过的位置ID")
}

func TestBuilder_DefaultPersonality(t *testing.T) {
	b := NewBuilder("", 5).WithPersonality("enthusiastic")

	req := sampleRequest()
	req.Personality = ""
	out, err := b.JSON(req)
	require.NoError(t, err)
	assert.Contains(t, out, "你是一个充满热情的AI街景导游")

	// an explicit personality wins
	out, err = b.JSON(sampleRequest())
	require.NoError(t, err)
	assert.Contains(t, out, "你是一个专业、详细的AI街景导游")
}

func TestTrait(t *testing.T) {
	assert.Equal(t, "友好、热情", Trait("friendly"))
	assert.Equal(t, "专业、详细", Trait("Professional"))
	assert.Equal(t, "充满热情", Trait("enthusiastic"))
	assert.Equal(t, "友好、热情", Trait("grumpy"))
	assert.Equal(t, "友好、热情", Trait(""))
}

func TestAnalyzeStreetviewTool(t *testing.T) {
	tool := AnalyzeStreetviewTool()
	assert.Equal(t, ToolName, tool.Name)

	var schema struct {
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	require.NoError(t, json.Unmarshal(tool.Parameters, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t,
		[]string{"sceneDescription", "detectedText", "landmarks", "recommendedDirection", "voiceResponse"},
		schema.Required)
	assert.Len(t, schema.Properties, 5)
}
