package service

import (
	"testing"

	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	pattern, questions := env.addPattern(t, "Intervals", model.DifficultyMedium, model.DifficultyEasy)

	first, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, first.Status)
	require.NotNil(t, first.StartedAt)

	second, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stats, err := env.stats.FindByUserAndPattern("user-1", pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QuestionsAttempted)

	_, err = env.userQuestions.Start("user-1", questions[1].ID)
	require.NoError(t, err)
	stats, err = env.stats.FindByUserAndPattern("user-1", pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.QuestionsAttempted)

	_, err = env.userQuestions.Start("user-1", "missing")
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestRecordingRequiresSolution(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	_, questions := env.addPattern(t, "Greedy", model.DifficultyEasy)

	uq, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)

	_, err = env.userQuestions.SaveRecording("user-1", SaveRecordingInput{
		UserQuestionID: uq.ID,
		AudioURL:       "https://cdn.example.com/a.webm",
	})
	assert.ErrorIs(t, err, util.ErrSolutionRequired)
	assert.EqualValues(t, 0, env.count(t, &model.ExplanationRecording{}, "user_question_id = ?", uq.ID))

	_, err = env.userQuestions.SaveRecording("user-1", SaveRecordingInput{
		UserQuestionID:  uq.ID,
		AudioURL:        "https://cdn.example.com/a.webm",
		ConfidenceScore: intPtr(0),
	})
	assert.ErrorIs(t, err, util.ErrInvalidConfidence)
}

func TestOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	env.addUser(t, "user-2")
	_, questions := env.addPattern(t, "Bit Manipulation", model.DifficultyEasy)

	uq, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)

	_, err = env.userQuestions.SubmitSolution("user-2", SubmitSolutionInput{UserQuestionID: uq.ID, Code: "x"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.userQuestions.SaveRecording("user-2", SaveRecordingInput{UserQuestionID: uq.ID, AudioURL: "u"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.userQuestions.SubmitSolution("user-1", SubmitSolutionInput{UserQuestionID: "missing", Code: "x"})
	assert.ErrorIs(t, err, util.ErrUserQuestionNotFound)
}

func TestSubmitSolutionRequiresStart(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	_, questions := env.addPattern(t, "Math", model.DifficultyEasy)

	uq := &model.UserQuestion{UserID: "user-1", QuestionID: questions[0].ID, Status: model.StatusNotStarted}
	require.NoError(t, env.uqs.Create(uq))

	_, err := env.userQuestions.SubmitSolution("user-1", SubmitSolutionInput{UserQuestionID: uq.ID, Code: "x"})
	assert.ErrorIs(t, err, util.ErrQuestionNotStarted)

	started, err := env.userQuestions.Start("user-1", questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uq.ID, started.ID)
	assert.Equal(t, model.StatusStarted, started.Status)
}

func TestHistoryStatusMapAndActivity(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "user-1")
	_, questions := env.addPattern(t, "Backtracking", model.DifficultyMedium, model.DifficultyMedium)

	uq, _ := env.complete(t, "user-1", questions[0].ID, intPtr(4))
	_, err := env.userQuestions.Start("user-1", questions[1].ID)
	require.NoError(t, err)

	history, err := env.userQuestions.History("user-1", questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uq.ID, history.UserQuestion.ID)
	assert.Len(t, history.Solutions, 1)
	require.Len(t, history.Recordings, 1)
	assert.Equal(t, model.AnalysisPending, history.Recordings[0].AnalysisStatus)

	statuses, err := env.userQuestions.StatusMap("user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]model.UserQuestionStatus{
		questions[0].ID: model.StatusDone,
		questions[1].ID: model.StatusStarted,
	}, statuses)

	activity, err := env.userQuestions.Activity("user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{testNow.Format(util.DateFormat): 1}, activity)

	_, err = env.userQuestions.History("user-2", questions[0].ID)
	assert.ErrorIs(t, err, util.ErrUserQuestionNotFound)
}

func TestResetProgress(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.accounts.Provision("user-1", "user-1@example.com", "User One")
	require.NoError(t, err)
	env.addUser(t, "user-2")
	_, questions := env.addPattern(t, "Linked List",
		model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard)

	env.complete(t, "user-1", questions[0].ID, intPtr(2))
	env.complete(t, "user-1", questions[1].ID, nil)
	other, _ := env.complete(t, "user-2", questions[0].ID, nil)

	uq, err := env.uqs.FindByUserAndQuestion("user-1", questions[0].ID)
	require.NoError(t, err)
	require.NoError(t, env.fbRepo.Create(&model.AIFeedback{
		UserQuestionID: uq.ID,
		Type:           model.FeedbackHint,
		Message:        "Consider the two-pointer approach.",
	}))
	assert.Less(t, env.reloadUser(t, "user-1").CurrentReadinessDays, float64(model.DefaultTargetDays))

	require.NoError(t, env.userQuestions.ResetProgress("user-1"))

	assert.EqualValues(t, 0, env.count(t, &model.UserQuestion{}, "user_id = ?", "user-1"))
	assert.EqualValues(t, 0, env.count(t, &model.UserPatternStats{}, "user_id = ?", "user-1"))
	assert.EqualValues(t, 0, env.count(t, &model.ReadinessEvent{}, "user_id = ?", "user-1"))
	assert.EqualValues(t, 0, env.count(t, &model.RevisionSchedule{}, "user_id = ?", "user-1"))
	assert.EqualValues(t, 0, env.count(t, &model.AIFeedback{}, "user_question_id = ?", uq.ID))
	assert.EqualValues(t, 0, env.count(t, &model.Solution{}, "user_question_id = ?", uq.ID))
	assert.EqualValues(t, 0, env.count(t, &model.ExplanationRecording{}, "user_question_id = ?", uq.ID))

	user := env.reloadUser(t, "user-1")
	assert.Equal(t, float64(user.InterviewTargetDays), user.CurrentReadinessDays)

	// 订阅与其他用户的数据不受影响
	assert.EqualValues(t, 1, env.count(t, &model.Subscription{}, "user_id = ?", "user-1"))
	assert.EqualValues(t, 1, env.count(t, &model.UserQuestion{}, "id = ?", other.ID))
	assert.EqualValues(t, 1, env.count(t, &model.RevisionSchedule{}, "user_id = ?", "user-2"))
}
