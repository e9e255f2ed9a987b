package service

import (
	"fmt"
	"math"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/monitoring"
	"sort"
	"time"

	"gorm.io/gorm"
)

const (
	TrendImproving = "IMPROVING"
	TrendStable    = "STABLE"
	TrendSlowing   = "SLOWING"

	recentEventLimit = 10
	weakPatternLimit = 5
)

type ReadinessService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	EventRepo    *repository.ReadinessEventRepository
	UQRepo       *repository.UserQuestionRepository
	StatsRepo    *repository.PatternStatsRepository
	QuestionRepo *repository.QuestionRepository
	RevisionRepo *repository.RevisionRepository
}

func NewReadinessService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	eventRepo *repository.ReadinessEventRepository,
	uqRepo *repository.UserQuestionRepository,
	statsRepo *repository.PatternStatsRepository,
	questionRepo *repository.QuestionRepository,
	revisionRepo *repository.RevisionRepository,
) *ReadinessService {
	return &ReadinessService{
		DB:           db,
		UserRepo:     userRepo,
		EventRepo:    eventRepo,
		UQRepo:       uqRepo,
		StatsRepo:    statsRepo,
		QuestionRepo: questionRepo,
		RevisionRepo: revisionRepo,
	}
}

type ReadinessEventView struct {
	Delta     float64   `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReadinessBreakdown struct {
	QuestionsSolved   int64    `json:"questionsSolved"`
	QuestionsTotal    int64    `json:"questionsTotal"`
	EasyComplete      int64    `json:"easyComplete"`
	MediumComplete    int64    `json:"mediumComplete"`
	HardComplete      int64    `json:"hardComplete"`
	RevisionsComplete int64    `json:"revisionsComplete"`
	WeakPatterns      []string `json:"weakPatterns"`
}

type ReadinessReport struct {
	DaysRemaining    float64              `json:"daysRemaining"`
	TargetDays       int                  `json:"targetDays"`
	PercentComplete  int                  `json:"percentComplete"`
	Trend            string               `json:"trend"`
	Breakdown        ReadinessBreakdown   `json:"breakdown"`
	RecentEvents     []ReadinessEventView `json:"recentEvents"`
	RegistrationDate string               `json:"registrationDate"`
}

// 各难度完成一题的基础天数
func baseDays(difficulty string) float64 {
	switch difficulty {
	case model.DifficultyMedium:
		return 0.56
	case model.DifficultyHard:
		return 0.83
	default:
		return 0.28
	}
}

// 复习一题的奖励天数
func revisionBonus(difficulty string) float64 {
	switch difficulty {
	case model.DifficultyMedium:
		return 0.3
	case model.DifficultyHard:
		return 0.5
	default:
		return 0.2
	}
}

// patternWeight 模式掌握得越少，完成一题的收益越大
func patternWeight(completed int, total int64, hasStats bool) float64 {
	if !hasStats || total == 0 {
		return 1.3
	}
	rate := float64(completed) / float64(total)
	switch {
	case rate < 0.5:
		return 1.3
	case rate < 0.8:
		return 1.1
	default:
		return 1.0
	}
}

// paceMultiplier 最近 7 天的日均完成数
func paceMultiplier(doneLast7Days int64) float64 {
	perDay := float64(doneLast7Days) / 7
	switch {
	case perDay > 2:
		return 1.2
	case perDay >= 1:
		return 1.1
	default:
		return 1.0
	}
}

func trendFor(doneLast7Days int64) string {
	switch {
	case doneLast7Days > 7:
		return TrendImproving
	case doneLast7Days > 3:
		return TrendStable
	default:
		return TrendSlowing
	}
}

func weaknessScore(stats model.UserPatternStats, now time.Time) float64 {
	rate := float64(stats.QuestionsCompleted) / float64(stats.QuestionsAttempted)
	recency := 1.0
	if stats.LastPracticedAt != nil {
		recency = math.Min(1, util.DaysBetween(*stats.LastPracticedAt, now)/30)
	}
	return (1-rate)*0.4 + (5-stats.AvgConfidence)/5*0.4 + recency*0.2
}

func isWeak(stats model.UserPatternStats, now time.Time) bool {
	if stats.AvgConfidence < 3.5 {
		return true
	}
	if float64(stats.QuestionsCompleted) < float64(stats.QuestionsAttempted)*0.5 {
		return true
	}
	return stats.LastPracticedAt != nil && util.DaysBetween(*stats.LastPracticedAt, now) > 14
}

// weakPatterns 按薄弱程度降序取前 5 个模式名
func weakPatterns(list []model.UserPatternStats, now time.Time) []string {
	type scored struct {
		name  string
		score float64
	}
	var candidates []scored
	for _, stats := range list {
		if stats.QuestionsAttempted < 1 || !isWeak(stats, now) {
			continue
		}
		name := stats.PatternID
		if stats.Pattern != nil {
			name = stats.Pattern.Name
		}
		candidates = append(candidates, scored{name: name, score: weaknessScore(stats, now)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	names := make([]string, 0, weakPatternLimit)
	for i := 0; i < len(candidates) && i < weakPatternLimit; i++ {
		names = append(names, candidates[i].name)
	}
	return names
}

func (s *ReadinessService) loadUser(tx *gorm.DB, userID string) (*model.User, error) {
	user, err := s.UserRepo.WithTx(tx).FindByID(userID)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// ApplyCompletion 题目完成后减少剩余天数，需在题目状态与模式统计更新之后调用
func (s *ReadinessService) ApplyCompletion(tx *gorm.DB, userID string, question *model.Question) (float64, error) {
	user, err := s.loadUser(tx, userID)
	if err != nil {
		return 0, err
	}

	total, err := s.QuestionRepo.WithTx(tx).CountByPattern(question.PatternID)
	if err != nil {
		return 0, fmt.Errorf("count pattern questions: %w", err)
	}

	completed, hasStats := 0, true
	stats, err := s.StatsRepo.WithTx(tx).FindByUserAndPattern(userID, question.PatternID)
	switch {
	case err == nil:
		completed = stats.QuestionsCompleted
	case isNotFound(err):
		hasStats = false
	default:
		return 0, fmt.Errorf("load pattern stats: %w", err)
	}

	recent, err := s.UQRepo.WithTx(tx).CountDoneSince(userID, nowFunc().AddDate(0, 0, -7))
	if err != nil {
		return 0, fmt.Errorf("count recent completions: %w", err)
	}

	raw := baseDays(question.Difficulty) * patternWeight(completed, total, hasStats) * paceMultiplier(recent)
	reason := fmt.Sprintf("Completed '%s' (%s)", question.Title, question.Difficulty)
	if err := s.apply(tx, user, raw, reason, &question.ID); err != nil {
		return 0, err
	}
	monitoring.ReadinessEvents.WithLabelValues("completion").Inc()
	return -util.Round2(raw), nil
}

// ApplyRevision 复习完成的奖励
func (s *ReadinessService) ApplyRevision(tx *gorm.DB, userID string, question *model.Question) (float64, error) {
	user, err := s.loadUser(tx, userID)
	if err != nil {
		return 0, err
	}

	bonus := revisionBonus(question.Difficulty)
	if err := s.apply(tx, user, bonus, fmt.Sprintf("Revised '%s'", question.Title), &question.ID); err != nil {
		return 0, err
	}
	monitoring.ReadinessEvents.WithLabelValues("revision").Inc()
	return -util.Round2(bonus), nil
}

func (s *ReadinessService) apply(tx *gorm.DB, user *model.User, days float64, reason string, questionID *string) error {
	next := math.Max(0, util.Round2(user.CurrentReadinessDays-days))
	if err := s.UserRepo.WithTx(tx).UpdateReadiness(user, next); err != nil {
		return err
	}

	event := &model.ReadinessEvent{
		UserID:            user.ID,
		ChangeDeltaDays:   -util.Round2(days),
		Reason:            reason,
		RelatedQuestionID: questionID,
	}
	if err := s.EventRepo.WithTx(tx).Create(event); err != nil {
		return fmt.Errorf("create readiness event: %w", err)
	}
	return nil
}

func (s *ReadinessService) GetReadiness(userID string) (*ReadinessReport, error) {
	user, err := s.loadUser(s.DB, userID)
	if err != nil {
		return nil, err
	}
	now := nowFunc()

	total, err := s.QuestionRepo.Count()
	if err != nil {
		return nil, err
	}
	solved, err := s.UQRepo.CountDone(userID)
	if err != nil {
		return nil, err
	}
	byDifficulty, err := s.UQRepo.CountDoneByDifficulty(userID)
	if err != nil {
		return nil, err
	}
	revisions, err := s.RevisionRepo.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.UQRepo.CountDoneSince(userID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	stats, err := s.StatsRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	events, err := s.EventRepo.RecentByUser(userID, recentEventLimit)
	if err != nil {
		return nil, err
	}

	percent := 0
	if total > 0 {
		percent = int(solved * 100 / total)
	}

	views := make([]ReadinessEventView, 0, len(events))
	for _, e := range events {
		views = append(views, ReadinessEventView{Delta: e.ChangeDeltaDays, Reason: e.Reason, CreatedAt: e.CreatedAt})
	}

	return &ReadinessReport{
		DaysRemaining:   user.CurrentReadinessDays,
		TargetDays:      user.InterviewTargetDays,
		PercentComplete: percent,
		Trend:           trendFor(recent),
		Breakdown: ReadinessBreakdown{
			QuestionsSolved:   solved,
			QuestionsTotal:    total,
			EasyComplete:      byDifficulty[model.DifficultyEasy],
			MediumComplete:    byDifficulty[model.DifficultyMedium],
			HardComplete:      byDifficulty[model.DifficultyHard],
			RevisionsComplete: revisions,
			WeakPatterns:      weakPatterns(stats, now),
		},
		RecentEvents:     views,
		RegistrationDate: user.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
