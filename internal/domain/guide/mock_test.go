package guide

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/domain/streetview"
	platformtesting "streetguide-server-go/internal/platform/testing"
)

func TestMockService_Analyze(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 500000000, time.UTC)
	svc := NewMockService(MockOptions{
		Logger: platformtesting.SetupTestLogger(t),
		Picker: func(n int) int { return n - 1 },
		Now:    func() time.Time { return now },
	})

	res, err := svc.Analyze(context.Background(), streetview.AnalysisRequest{
		SessionID: "abc",
		Image:     "ignored",
		Options:   testOptions,
	})
	require.NoError(t, err)

	last := mockScenes[len(mockScenes)-1]
	assert.Equal(t, last.description, res.SceneDescription)
	assert.Equal(t, last.detectedText, res.DetectedText)
	assert.Equal(t, last.landmarks, res.Landmarks)
	assert.Equal(t, last.voiceResponse, res.VoiceResponse)

	require.NotNil(t, res.NextDirection)
	assert.Equal(t, "pano-south", res.NextDirection.PanoID)
	assert.Equal(t, 180.0, res.NextDirection.Heading)
	assert.Equal(t, "我觉得向南看起来很有趣，让我们去探索一下吧！", res.NextDirection.Reason)

	assert.Equal(t, now.Format(time.RFC3339Nano), res.Timestamp)
	assert.Equal(t, "analysis_abc_1714564800.500000", res.AnalysisID)
	assert.Equal(t, "mock", svc.Provider())
}

func TestMockService_AnalyzeWithoutOptions(t *testing.T) {
	svc := NewMockService(MockOptions{Logger: platformtesting.SetupTestLogger(t)})

	res, err := svc.Analyze(context.Background(), streetview.AnalysisRequest{SessionID: "abc"})
	require.NoError(t, err)
	assert.Nil(t, res.NextDirection)
	assert.True(t, strings.HasPrefix(res.AnalysisID, "analysis_abc_"))
}

func TestMockService_RespectsCancellation(t *testing.T) {
	svc := NewMockService(MockOptions{Logger: platformtesting.SetupTestLogger(t), Delay: time.Hour, VoiceDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Analyze(ctx, streetview.AnalysisRequest{SessionID: "abc", Options: testOptions})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = svc.Voice(ctx, streetview.VoiceInput{SessionID: "abc"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockService_Voice(t *testing.T) {
	svc := NewMockService(MockOptions{Logger: platformtesting.SetupTestLogger(t), Picker: firstPicker})

	reply, err := svc.Voice(context.Background(), streetview.VoiceInput{SessionID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, mockVoiceReplies[0], reply.VoiceResponse)
	assert.Equal(t, streetview.MsgRecognized, reply.RecognizedText)
	assert.NotEmpty(t, reply.Timestamp)
}
