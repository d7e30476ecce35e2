package guide

import (
	"fmt"
	"math/rand"

	"streetguide-server-go/internal/domain/streetview"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// RandomPicker draws uniformly.
func RandomPicker(n int) int {
	return rand.Intn(n)
}

var fallbackDescriptions = []string{
	"图像分析遇到了一些技术问题，但我们可以继续探索",
	"让我根据可选方向为您推荐下一步",
	"虽然详细分析暂时不可用，但我们可以继续前进",
}

var fallbackResponses = []string{
	"抱歉，图像分析遇到了问题，让我们继续探索吧！",
	"技术上有点小问题，不过我们可以继续前进。",
	"让我们继续这次街景之旅，向前探索更多有趣的地方！",
}

// Fallback builds the static reply used when analysis fails. The first
// option becomes the next direction.
func Fallback(options []streetview.Option, pick Picker) *streetview.AnalysisResult {
	if pick == nil {
		pick = RandomPicker
	}

	result := &streetview.AnalysisResult{
		SceneDescription: fallbackDescriptions[pick(len(fallbackDescriptions))],
		VoiceResponse:    fallbackResponses[pick(len(fallbackResponses))],
	}
	if len(options) > 0 {
		first := options[0]
		result.NextDirection = &streetview.NextDirection{
			PanoID:  first.PanoID,
			Heading: first.Heading,
			Reason:  fmt.Sprintf("选择%s方向继续探索", first.Description),
		}
	}
	return result.Normalize()
}

// HandlerErrorResult is sent when the transport handler itself fails.
func HandlerErrorResult() *streetview.AnalysisResult {
	return (&streetview.AnalysisResult{
		SceneDescription: "分析过程中出现了问题，让我们继续探索。",
		VoiceResponse:    "抱歉，分析过程中出现了问题，让我们继续探索吧。",
	}).Normalize()
}
