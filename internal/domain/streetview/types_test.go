package streetview

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	opts := []Option{{Description: "北", Heading: 0, PanoID: "p1"}}

	tests := []struct {
		name string
		req  AnalysisRequest
		want string
	}{
		{name: "missing image", req: AnalysisRequest{Options: opts}, want: MsgMissingImage},
		{name: "blank image", req: AnalysisRequest{Image: "  ", Options: opts}, want: MsgMissingImage},
		{name: "missing options", req: AnalysisRequest{Image: "abc"}, want: MsgMissingOptions},
		{name: "image checked first", req: AnalysisRequest{}, want: MsgMissingImage},
		{name: "valid", req: AnalysisRequest{Image: "abc", Options: opts}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if tt.want == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Message)
			assert.Equal(t, tt.want, err.Notice().VoiceResponse)
			assert.True(t, errors.Is(err, ErrInvalidRequest))
		})
	}
}

func TestResolveOption(t *testing.T) {
	opts := []Option{
		{Description: "北", Heading: 0, PanoID: "p1"},
		{Description: "东", Heading: 90, PanoID: "p2"},
	}

	next := ResolveOption(opts, 1, "向东")
	require.NotNil(t, next)
	assert.Equal(t, NextDirection{PanoID: "p2", Heading: 90, Reason: "向东"}, *next)

	assert.Nil(t, ResolveOption(opts, 2, "越界"))
	assert.Nil(t, ResolveOption(opts, -1, "负数"))
	assert.Nil(t, ResolveOption(nil, 0, "空"))
}

func TestAnalysisResult_JSONShape(t *testing.T) {
	res := (&AnalysisResult{SceneDescription: "街道", VoiceResponse: "走吧"}).Normalize()

	data, err := json.Marshal(res)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"sceneDescription": "街道",
		"detectedText": [],
		"landmarks": [],
		"nextDirection": null,
		"voiceResponse": "走吧"
	}`, string(data))
}
