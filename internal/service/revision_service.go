package service

import (
	"fmt"
	"math"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dailyQueueLimit     = 5
	minQueuePriority    = 0.3
	initialRevisionWait = 3 * 24 * time.Hour
	initialPriority     = 0.5
)

type RevisionService struct {
	DB           *gorm.DB
	RevisionRepo *repository.RevisionRepository
	UQRepo       *repository.UserQuestionRepository
	StatsRepo    *repository.PatternStatsRepository
	QuestionRepo *repository.QuestionRepository
	Readiness    *ReadinessService
}

func NewRevisionService(
	db *gorm.DB,
	revisionRepo *repository.RevisionRepository,
	uqRepo *repository.UserQuestionRepository,
	statsRepo *repository.PatternStatsRepository,
	questionRepo *repository.QuestionRepository,
	readiness *ReadinessService,
) *RevisionService {
	return &RevisionService{
		DB:           db,
		RevisionRepo: revisionRepo,
		UQRepo:       uqRepo,
		StatsRepo:    statsRepo,
		QuestionRepo: questionRepo,
		Readiness:    readiness,
	}
}

type CompleteRevisionInput struct {
	ListenedAudioVersion *int `json:"listenedAudioVersion"`
	Rerecorded           bool `json:"rerecorded"`
	NewConfidenceScore   *int `json:"newConfidenceScore"`
}

type CompleteRevisionResult struct {
	Session    *model.RevisionSession `json:"session"`
	DeltaDays  float64                `json:"deltaDays"`
	ScheduleID string                 `json:"scheduleId"`
}

// revisionPriority 计算一道已完成题目的复习优先级
// rate 为该模式完成率，rate < 0 表示模式下没有题目，不参与模式薄弱加分
func revisionPriority(confidence *int, daysSinceDone, rate float64) (float64, model.RevisionReason) {
	var priority float64
	var reason model.RevisionReason

	if confidence != nil && *confidence <= 2 {
		priority += 0.4 * float64(5-*confidence) / 4
		reason = model.ReasonLowConfidence
	}
	if daysSinceDone > 7 {
		priority += 0.3 * math.Min(daysSinceDone/30, 1)
		if reason == "" {
			reason = model.ReasonTimeDecay
		}
	}
	if rate >= 0 && rate < 0.5 {
		priority += 0.2 * (1 - rate)
		if reason == "" {
			reason = model.ReasonPatternWeakness
		}
	}

	priority *= 1 + daysSinceDone/60
	if reason == "" {
		reason = model.ReasonTimeDecay
	}
	return priority, reason
}

// GenerateDailyQueue 为没有待复习项的已完成题目生成复习计划，最多 5 条
func (s *RevisionService) GenerateDailyQueue(userID string) ([]model.RevisionSchedule, error) {
	done, err := s.UQRepo.ListDone(userID)
	if err != nil {
		return nil, fmt.Errorf("list done questions: %w", err)
	}
	open, err := s.RevisionRepo.OpenUserQuestionIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("list open revisions: %w", err)
	}
	stats, err := s.StatsRepo.MapByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load pattern stats: %w", err)
	}
	totals, err := s.QuestionRepo.CountGroupedByPattern()
	if err != nil {
		return nil, fmt.Errorf("count pattern questions: %w", err)
	}

	now := nowFunc()
	var candidates []model.RevisionSchedule
	byID := make(map[string]model.UserQuestion, len(done))
	for _, uq := range done {
		if open[uq.ID] || uq.Question == nil {
			continue
		}
		patternID := uq.Question.PatternID

		rate := -1.0
		if total := totals[patternID]; total > 0 {
			rate = 0
			if st, ok := stats[patternID]; ok {
				rate = float64(st.QuestionsCompleted) / float64(total)
			}
		}
		// 天数保留小数，完成 7 天半的题目已越过 7 天的衰减门槛
		days := 0.0
		if uq.DoneAt != nil {
			days = util.DaysBetween(*uq.DoneAt, now)
		}

		priority, reason := revisionPriority(uq.ConfidenceScore, days, rate)
		if priority <= minQueuePriority {
			continue
		}
		byID[uq.ID] = uq
		candidates = append(candidates, model.RevisionSchedule{
			UserID:         userID,
			UserQuestionID: uq.ID,
			PatternID:      patternID,
			ScheduledAt:    now,
			Reason:         reason,
			PriorityScore:  priority,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PriorityScore > candidates[j].PriorityScore
	})
	if len(candidates) > dailyQueueLimit {
		candidates = candidates[:dailyQueueLimit]
	}

	created := make([]model.RevisionSchedule, 0, len(candidates))
	for i := range candidates {
		schedule := candidates[i]
		inserted, err := s.RevisionRepo.CreateSchedule(&schedule)
		if err != nil {
			return nil, fmt.Errorf("create revision schedule: %w", err)
		}
		// 并发生成时另一请求已插入
		if !inserted {
			continue
		}
		uq := byID[schedule.UserQuestionID]
		schedule.UserQuestion = &uq
		created = append(created, schedule)
	}

	logger.Log.Info("Revision queue generated",
		zap.String("userId", userID),
		zap.Int("created", len(created)))
	return created, nil
}

// ScheduleInitialRevision 题目首次完成后 3 天安排一次复习
func (s *RevisionService) ScheduleInitialRevision(tx *gorm.DB, uq *model.UserQuestion, patternID string) error {
	reason := model.ReasonTimeDecay
	if uq.ConfidenceScore != nil && *uq.ConfidenceScore <= 2 {
		reason = model.ReasonLowConfidence
	}

	schedule := &model.RevisionSchedule{
		UserID:         uq.UserID,
		UserQuestionID: uq.ID,
		PatternID:      patternID,
		ScheduledAt:    nowFunc().Add(initialRevisionWait),
		Reason:         reason,
		PriorityScore:  initialPriority,
	}
	if _, err := s.RevisionRepo.WithTx(tx).CreateSchedule(schedule); err != nil {
		return fmt.Errorf("schedule initial revision: %w", err)
	}
	return nil
}

func (s *RevisionService) CompleteRevision(userID, scheduleID string, input CompleteRevisionInput) (*CompleteRevisionResult, error) {
	if err := validConfidence(input.NewConfidenceScore); err != nil {
		return nil, err
	}

	var result *CompleteRevisionResult
	err := retryOnConflict(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			r, err := s.completeRevision(tx, userID, scheduleID, input)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RevisionService) completeRevision(tx *gorm.DB, userID, scheduleID string, input CompleteRevisionInput) (*CompleteRevisionResult, error) {
	revisions := s.RevisionRepo.WithTx(tx)

	schedule, err := revisions.FindSchedule(scheduleID)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("load revision schedule: %w", err)
	}
	if schedule.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	if schedule.CompletedAt != nil {
		return nil, util.ErrScheduleClosed
	}
	if schedule.UserQuestion == nil || schedule.UserQuestion.Question == nil {
		return nil, util.ErrUserQuestionNotFound
	}

	closed, err := revisions.CloseSchedule(schedule.ID, nowFunc())
	if err != nil {
		return nil, fmt.Errorf("close revision schedule: %w", err)
	}
	if !closed {
		return nil, util.ErrScheduleClosed
	}

	uq := schedule.UserQuestion
	if input.NewConfidenceScore != nil {
		uq.ConfidenceScore = input.NewConfidenceScore
		if err := s.UQRepo.WithTx(tx).Save(uq); err != nil {
			return nil, fmt.Errorf("update confidence: %w", err)
		}
	}

	session := &model.RevisionSession{
		RevisionScheduleID:   schedule.ID,
		ListenedAudioVersion: input.ListenedAudioVersion,
		Rerecorded:           input.Rerecorded,
		NewConfidenceScore:   input.NewConfidenceScore,
	}
	if err := revisions.CreateSession(session); err != nil {
		return nil, fmt.Errorf("create revision session: %w", err)
	}

	delta, err := s.Readiness.ApplyRevision(tx, userID, uq.Question)
	if err != nil {
		return nil, err
	}

	return &CompleteRevisionResult{Session: session, DeltaDays: delta, ScheduleID: schedule.ID}, nil
}

func (s *RevisionService) GetPendingRevisions(userID string) ([]model.RevisionSchedule, error) {
	return s.RevisionRepo.ListOpen(userID, nil)
}

// GetTodayRevisions 已到期的待复习项
func (s *RevisionService) GetTodayRevisions(userID string) ([]model.RevisionSchedule, error) {
	now := nowFunc()
	return s.RevisionRepo.ListOpen(userID, &now)
}
