package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longTranscript = "First I sort the array, then I move two pointers toward each other until they meet."

func (e *testEnv) newAnalysis(critic Critic, transcriber Transcriber, pool *AnalysisPool) *AnalysisService {
	return NewAnalysisService(e.recRepo, e.uqs, e.userQuestions.SolutionRepo, e.fbRepo, critic, transcriber, pool)
}

// recordedQuestion 返回一条待分析的录音
func (e *testEnv) recordedQuestion(t *testing.T, userID string) string {
	t.Helper()
	_, questions := e.addPattern(t, "Pattern "+userID, model.DifficultyMedium)
	_, result := e.complete(t, userID, questions[0].ID, nil)
	return result.RecordingID
}

func stopPool(t *testing.T, pool *AnalysisPool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))
}

func TestAnalyzeProducesFeedback(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	critic := &fakeCritic{enabled: true, reply: "  Nice use of two pointers.  "}
	pool := NewAnalysisPool(1, 4)
	pool.Start()
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: longTranscript}, pool)

	result, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	assert.True(t, result.Queued)
	assert.Equal(t, model.AnalysisProcessing, result.AnalysisStatus)
	stopPool(t, pool)

	feedback, err := analysis.Feedback("user-1", recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisCompleted, feedback.AnalysisStatus)
	require.Len(t, feedback.Feedback, 3)

	kinds := map[model.FeedbackType]string{}
	for _, f := range feedback.Feedback {
		kinds[f.Type] = f.Message
	}
	assert.Equal(t, "Nice use of two pointers.", kinds[model.FeedbackHint])
	assert.Contains(t, kinds, model.FeedbackReflectionQuestion)
	assert.Contains(t, kinds, model.FeedbackCommunicationTip)
	assert.EqualValues(t, 3, critic.calls)

	recording, err := env.recRepo.FindByID(recordingID)
	require.NoError(t, err)
	assert.Equal(t, longTranscript, recording.Transcript)

	// 已完成的录音再次请求不会重新分析
	again, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	assert.False(t, again.Queued)
	assert.Equal(t, model.AnalysisCompleted, again.AnalysisStatus)
	assert.EqualValues(t, 3, critic.calls)
}

func TestAnalyzeShortTranscriptSkipsCommunication(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	critic := &fakeCritic{enabled: true, reply: "ok"}
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: "too short"}, NewAnalysisPool(1, 1))

	claimed, err := env.recRepo.TransitionStatus(recordingID,
		[]model.AnalysisStatus{model.AnalysisPending}, model.AnalysisProcessing)
	require.NoError(t, err)
	require.True(t, claimed)
	analysis.Process(context.Background(), recordingID)

	list, err := env.fbRepo.ListByRecording(recordingID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, f := range list {
		assert.NotEqual(t, model.FeedbackCommunicationTip, f.Type)
	}
}

func TestAnalyzeFailureRecordsHint(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	critic := &fakeCritic{enabled: true, err: errors.New("upstream 503")}
	pool := NewAnalysisPool(1, 4)
	pool.Start()
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: longTranscript}, pool)

	_, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	stopPool(t, pool)

	feedback, err := analysis.Feedback("user-1", recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisFailed, feedback.AnalysisStatus)
	require.Len(t, feedback.Feedback, 1)
	assert.Equal(t, model.FeedbackHint, feedback.Feedback[0].Type)
	assert.True(t, strings.HasPrefix(feedback.Feedback[0].Message, analysisErrorPrefix))
	assert.Contains(t, feedback.Feedback[0].Message, "upstream 503")

	// 失败的录音可以重新分析
	critic.err = nil
	critic.reply = "retry worked"
	retryPool := NewAnalysisPool(1, 4)
	retryPool.Start()
	analysis.Pool = retryPool

	result, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	assert.True(t, result.Queued)
	stopPool(t, retryPool)

	recording, err := env.recRepo.FindByID(recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisCompleted, recording.AnalysisStatus)
}

func TestAnalyzeQueueFull(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	// 未启动的池，队列占满后拒绝新任务
	pool := NewAnalysisPool(1, 1)
	require.True(t, pool.Submit(func(ctx context.Context) {}))
	analysis := env.newAnalysis(&fakeCritic{enabled: true}, &fakeTranscriber{}, pool)

	result, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	assert.False(t, result.Queued)
	assert.Equal(t, model.AnalysisFailed, result.AnalysisStatus)

	list, err := env.fbRepo.ListByRecording(recordingID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, analysisErrorPrefix+"queue full", list[0].Message)
}

func TestAnalyzeWithoutKeysCompletes(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	critic := &fakeCritic{enabled: false}
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: longTranscript}, NewAnalysisPool(1, 1))
	_, err := env.recRepo.TransitionStatus(recordingID,
		[]model.AnalysisStatus{model.AnalysisPending}, model.AnalysisProcessing)
	require.NoError(t, err)

	analysis.Process(context.Background(), recordingID)

	recording, err := env.recRepo.FindByID(recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisCompleted, recording.AnalysisStatus)
	assert.Zero(t, critic.calls)
}

func TestAnalyzeOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")
	analysis := env.newAnalysis(&fakeCritic{}, &fakeTranscriber{}, NewAnalysisPool(1, 1))

	_, err := analysis.Analyze("user-2", recordingID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = analysis.Feedback("user-1", "missing")
	assert.ErrorIs(t, err, util.ErrRecordingNotFound)
}

func TestAnalysisPoolRecoversPanics(t *testing.T) {
	pool := NewAnalysisPool(1, 2)
	pool.Start()

	done := make(chan struct{})
	require.True(t, pool.Submit(func(ctx context.Context) { panic("boom") }))
	require.True(t, pool.Submit(func(ctx context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second job did not run")
	}
	stopPool(t, pool)
	assert.False(t, pool.Submit(func(ctx context.Context) {}))
}

func TestAnalyzePanicMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	critic := &fakeCritic{enabled: true, panics: "nil map write"}
	pool := NewAnalysisPool(1, 4)
	pool.Start()
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: longTranscript}, pool)

	_, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	stopPool(t, pool)

	feedback, err := analysis.Feedback("user-1", recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisFailed, feedback.AnalysisStatus)
	require.Len(t, feedback.Feedback, 1)
	assert.Equal(t, analysisErrorPrefix+"panic: nil map write", feedback.Feedback[0].Message)

	// panic 之后仍然可以重新分析
	critic.panics = ""
	critic.reply = "fine now"
	retryPool := NewAnalysisPool(1, 4)
	retryPool.Start()
	analysis.Pool = retryPool

	result, err := analysis.Analyze("user-1", recordingID)
	require.NoError(t, err)
	assert.True(t, result.Queued)
	stopPool(t, retryPool)

	recording, err := env.recRepo.FindByID(recordingID)
	require.NoError(t, err)
	assert.Equal(t, model.AnalysisCompleted, recording.AnalysisStatus)
}

func TestAnalyzeTranscriptLengthCountsCharacters(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	recordingID := env.recordedQuestion(t, "user-1")

	// 11 个字符，按字节计算超过 20
	transcript := "éééééé éééé"
	require.Greater(t, len(transcript), minTranscriptLength)

	critic := &fakeCritic{enabled: true, reply: "ok"}
	analysis := env.newAnalysis(critic, &fakeTranscriber{text: transcript}, NewAnalysisPool(1, 1))
	claimed, err := env.recRepo.TransitionStatus(recordingID,
		[]model.AnalysisStatus{model.AnalysisPending}, model.AnalysisProcessing)
	require.NoError(t, err)
	require.True(t, claimed)

	analysis.Process(context.Background(), recordingID)

	assert.EqualValues(t, 0, env.count(t, &model.AIFeedback{}, "recording_id = ? AND type = ?",
		recordingID, model.FeedbackCommunicationTip))
	assert.EqualValues(t, 2, critic.calls)
}
