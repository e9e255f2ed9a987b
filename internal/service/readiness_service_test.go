package service

import (
	"testing"
	"time"

	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternWeight(t *testing.T) {
	assert.Equal(t, 1.3, patternWeight(0, 4, false))
	assert.Equal(t, 1.3, patternWeight(3, 0, true))
	assert.Equal(t, 1.3, patternWeight(1, 4, true))
	assert.Equal(t, 1.1, patternWeight(2, 4, true))
	assert.Equal(t, 1.0, patternWeight(4, 5, true))
}

func TestPaceAndTrend(t *testing.T) {
	assert.Equal(t, 1.0, paceMultiplier(6))
	assert.Equal(t, 1.1, paceMultiplier(7))
	assert.Equal(t, 1.1, paceMultiplier(14))
	assert.Equal(t, 1.2, paceMultiplier(15))

	assert.Equal(t, TrendSlowing, trendFor(3))
	assert.Equal(t, TrendStable, trendFor(4))
	assert.Equal(t, TrendStable, trendFor(7))
	assert.Equal(t, TrendImproving, trendFor(8))
}

func TestWeakPatterns(t *testing.T) {
	longAgo := testNow.AddDate(0, 0, -20)
	recent := testNow.AddDate(0, 0, -1)
	list := []model.UserPatternStats{
		// 置信度低
		{Pattern: &model.Pattern{Name: "Graphs"}, QuestionsAttempted: 2, QuestionsCompleted: 2, AvgConfidence: 2, LastPracticedAt: &recent},
		// 完成率低且很久没练
		{Pattern: &model.Pattern{Name: "Heaps"}, QuestionsAttempted: 4, QuestionsCompleted: 1, AvgConfidence: 4, LastPracticedAt: &longAgo},
		// 不算薄弱
		{Pattern: &model.Pattern{Name: "Arrays"}, QuestionsAttempted: 3, QuestionsCompleted: 3, AvgConfidence: 4.5, LastPracticedAt: &recent},
		// 从未开始
		{Pattern: &model.Pattern{Name: "Tries"}, QuestionsAttempted: 0},
	}

	names := weakPatterns(list, testNow)
	assert.Equal(t, []string{"Heaps", "Graphs"}, names)
}

func TestWeakPatternsLimit(t *testing.T) {
	var list []model.UserPatternStats
	for i := 0; i < 8; i++ {
		list = append(list, model.UserPatternStats{
			PatternID:          string(rune('a' + i)),
			QuestionsAttempted: 1,
			AvgConfidence:      1,
		})
	}
	assert.Len(t, weakPatterns(list, testNow), weakPatternLimit)
}

func TestFirstCompletionReducesDays(t *testing.T) {
	env := newTestEnv(t)
	_, questions := env.addPattern(t, "Sliding Window",
		model.DifficultyMedium, model.DifficultyEasy, model.DifficultyEasy, model.DifficultyHard)
	env.addUser(t, "user-1")

	uq, result := env.complete(t, "user-1", questions[0].ID, nil)
	require.NotNil(t, result.DeltaDays)
	assert.Equal(t, -0.73, *result.DeltaDays)
	assert.Equal(t, 1, result.Version)

	user := env.reloadUser(t, "user-1")
	assert.Equal(t, 89.27, user.CurrentReadinessDays)

	events, err := env.events.RecentByUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, -0.73, events[0].ChangeDeltaDays)
	require.NotNil(t, events[0].RelatedQuestionID)
	assert.Equal(t, questions[0].ID, *events[0].RelatedQuestionID)

	schedules, err := env.revRepo.ListOpen("user-1", nil)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, uq.ID, schedules[0].UserQuestionID)
	assert.Equal(t, model.ReasonTimeDecay, schedules[0].Reason)
	assert.Equal(t, 0.5, schedules[0].PriorityScore)
	assert.True(t, schedules[0].ScheduledAt.Equal(testNow.Add(72*time.Hour)))

	stored, err := env.uqs.FindByID(uq.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, stored.Status)
	require.NotNil(t, stored.ConfidenceScore)
	assert.Equal(t, defaultConfidence, *stored.ConfidenceScore)
}

func TestLowConfidenceCompletionSchedulesLowConfidence(t *testing.T) {
	env := newTestEnv(t)
	_, questions := env.addPattern(t, "Two Pointers",
		model.DifficultyMedium, model.DifficultyEasy, model.DifficultyEasy, model.DifficultyHard)
	env.addUser(t, "user-1")

	env.complete(t, "user-1", questions[0].ID, intPtr(2))

	schedules, err := env.revRepo.ListOpen("user-1", nil)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, model.ReasonLowConfidence, schedules[0].Reason)

	stats, err := env.stats.FindByUserAndPattern("user-1", questions[0].PatternID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.QuestionsAttempted)
	assert.Equal(t, 1, stats.QuestionsCompleted)
	assert.Equal(t, 2.0, stats.AvgConfidence)
}

func TestReadinessNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	_, questions := env.addPattern(t, "Graphs", model.DifficultyHard)
	env.addUser(t, "user-1")
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", "user-1").
		Update("current_readiness_days", 0.1).Error)

	env.complete(t, "user-1", questions[0].ID, nil)

	user := env.reloadUser(t, "user-1")
	assert.Equal(t, 0.0, user.CurrentReadinessDays)
}

func TestRepeatRecordingDoesNotChangeReadiness(t *testing.T) {
	env := newTestEnv(t)
	_, questions := env.addPattern(t, "Stack", model.DifficultyEasy, model.DifficultyEasy)
	env.addUser(t, "user-1")

	uq, _ := env.complete(t, "user-1", questions[0].ID, nil)
	before := env.reloadUser(t, "user-1").CurrentReadinessDays

	result, err := env.userQuestions.SaveRecording("user-1", SaveRecordingInput{
		UserQuestionID: uq.ID,
		AudioURL:       "https://cdn.example.com/second.webm",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)
	assert.Nil(t, result.DeltaDays)
	assert.Equal(t, before, env.reloadUser(t, "user-1").CurrentReadinessDays)
	assert.EqualValues(t, 1, env.count(t, &model.ReadinessEvent{}, "user_id = ?", "user-1"))
}

func TestGetReadiness(t *testing.T) {
	env := newTestEnv(t)
	_, questions := env.addPattern(t, "Binary Search",
		model.DifficultyMedium, model.DifficultyEasy, model.DifficultyEasy, model.DifficultyHard)
	env.addUser(t, "user-1")

	env.complete(t, "user-1", questions[0].ID, intPtr(2))

	report, err := env.readiness.GetReadiness("user-1")
	require.NoError(t, err)
	assert.Equal(t, 89.27, report.DaysRemaining)
	assert.Equal(t, model.DefaultTargetDays, report.TargetDays)
	assert.Equal(t, 25, report.PercentComplete)
	assert.Equal(t, TrendSlowing, report.Trend)
	assert.EqualValues(t, 1, report.Breakdown.QuestionsSolved)
	assert.EqualValues(t, 4, report.Breakdown.QuestionsTotal)
	assert.EqualValues(t, 1, report.Breakdown.MediumComplete)
	assert.EqualValues(t, 0, report.Breakdown.RevisionsComplete)
	assert.Equal(t, []string{"Binary Search"}, report.Breakdown.WeakPatterns)
	require.Len(t, report.RecentEvents, 1)
	assert.Equal(t, -0.73, report.RecentEvents[0].Delta)
}

func TestGetReadinessUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.readiness.GetReadiness("missing")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
