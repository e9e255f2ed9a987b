package service

import (
	"fmt"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 完成题目但未给出信心分时的默认值
const defaultConfidence = 3

// UserQuestionService 做题生命周期：开始、提交代码、录音讲解、重置
type UserQuestionService struct {
	DB            *gorm.DB
	UQRepo        *repository.UserQuestionRepository
	QuestionRepo  *repository.QuestionRepository
	SolutionRepo  *repository.SolutionRepository
	RecordingRepo *repository.RecordingRepository
	FeedbackRepo  *repository.FeedbackRepository
	RevisionRepo  *repository.RevisionRepository
	StatsRepo     *repository.PatternStatsRepository
	EventRepo     *repository.ReadinessEventRepository
	UserRepo      *repository.UserRepository
	PatternStats  *PatternStatsService
	Readiness     *ReadinessService
	Revisions     *RevisionService
}

func NewUserQuestionService(
	db *gorm.DB,
	uqRepo *repository.UserQuestionRepository,
	questionRepo *repository.QuestionRepository,
	solutionRepo *repository.SolutionRepository,
	recordingRepo *repository.RecordingRepository,
	feedbackRepo *repository.FeedbackRepository,
	revisionRepo *repository.RevisionRepository,
	statsRepo *repository.PatternStatsRepository,
	eventRepo *repository.ReadinessEventRepository,
	userRepo *repository.UserRepository,
	patternStats *PatternStatsService,
	readiness *ReadinessService,
	revisions *RevisionService,
) *UserQuestionService {
	return &UserQuestionService{
		DB:            db,
		UQRepo:        uqRepo,
		QuestionRepo:  questionRepo,
		SolutionRepo:  solutionRepo,
		RecordingRepo: recordingRepo,
		FeedbackRepo:  feedbackRepo,
		RevisionRepo:  revisionRepo,
		StatsRepo:     statsRepo,
		EventRepo:     eventRepo,
		UserRepo:      userRepo,
		PatternStats:  patternStats,
		Readiness:     readiness,
		Revisions:     revisions,
	}
}

type SubmitSolutionInput struct {
	UserQuestionID string `json:"userQuestionId" binding:"required"`
	Code           string `json:"code" binding:"required"`
	Language       string `json:"language"`
	LeetcodeLink   string `json:"leetcodeSubmissionLink"`
	IsOptimal      bool   `json:"isOptimal"`
}

type SaveRecordingInput struct {
	UserQuestionID  string `json:"userQuestionId" binding:"required"`
	AudioURL        string `json:"audioUrl" binding:"required"`
	DurationSeconds int    `json:"durationSeconds"`
	ConfidenceScore *int   `json:"confidenceScore"`
}

type SaveRecordingResult struct {
	RecordingID string   `json:"recordingId"`
	Version     int      `json:"version"`
	DeltaDays   *float64 `json:"deltaDays,omitempty"`
}

type QuestionHistory struct {
	UserQuestion *model.UserQuestion          `json:"userQuestion"`
	Solutions    []model.Solution             `json:"solutions"`
	Recordings   []model.ExplanationRecording `json:"recordings"`
}

// loadOwned 加载并校验归属
func loadOwned(repo *repository.UserQuestionRepository, userID, uqID string) (*model.UserQuestion, error) {
	uq, err := repo.FindByID(uqID)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrUserQuestionNotFound
		}
		return nil, fmt.Errorf("load user question: %w", err)
	}
	if uq.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return uq, nil
}

// Start 开始做题，重复调用返回已有记录
func (s *UserQuestionService) Start(userID, questionID string) (*model.UserQuestion, error) {
	var result *model.UserQuestion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		question, err := s.QuestionRepo.WithTx(tx).FindByID(questionID)
		if err != nil {
			if isNotFound(err) {
				return util.ErrQuestionNotFound
			}
			return fmt.Errorf("load question: %w", err)
		}

		uqs := s.UQRepo.WithTx(tx)
		uq, err := uqs.FindByUserAndQuestion(userID, questionID)
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("load user question: %w", err)
		}

		now := nowFunc()
		switch {
		case uq == nil:
			uq = &model.UserQuestion{
				UserID:     userID,
				QuestionID: questionID,
				Status:     model.StatusStarted,
				StartedAt:  &now,
			}
			if err := uqs.Create(uq); err != nil {
				return fmt.Errorf("create user question: %w", err)
			}
		case uq.Status == model.StatusNotStarted:
			uq.Status = model.StatusStarted
			uq.StartedAt = &now
			if err := uqs.Save(uq); err != nil {
				return fmt.Errorf("start user question: %w", err)
			}
		default:
			result = uq
			return nil
		}

		if err := s.PatternStats.RecordAttempt(tx, userID, question.PatternID); err != nil {
			return err
		}
		uq.Question = question
		result = uq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *UserQuestionService) SubmitSolution(userID string, input SubmitSolutionInput) (*model.Solution, error) {
	uq, err := loadOwned(s.UQRepo, userID, input.UserQuestionID)
	if err != nil {
		return nil, err
	}
	if uq.Status == model.StatusNotStarted {
		return nil, util.ErrQuestionNotStarted
	}

	solution := &model.Solution{
		UserQuestionID: uq.ID,
		Code:           input.Code,
		Language:       input.Language,
		LeetcodeLink:   input.LeetcodeLink,
		IsOptimal:      input.IsOptimal,
	}
	if err := s.SolutionRepo.Create(solution); err != nil {
		return nil, fmt.Errorf("create solution: %w", err)
	}
	return solution, nil
}

// SaveRecording 保存讲解录音；题目首次完成时在同一事务内更新统计、剩余天数与复习计划
func (s *UserQuestionService) SaveRecording(userID string, input SaveRecordingInput) (*SaveRecordingResult, error) {
	if err := validConfidence(input.ConfidenceScore); err != nil {
		return nil, err
	}

	var result *SaveRecordingResult
	err := retryOnConflict(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			r, err := s.saveRecording(tx, userID, input)
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

func (s *UserQuestionService) saveRecording(tx *gorm.DB, userID string, input SaveRecordingInput) (*SaveRecordingResult, error) {
	uqs := s.UQRepo.WithTx(tx)
	uq, err := loadOwned(uqs, userID, input.UserQuestionID)
	if err != nil {
		return nil, err
	}

	solutions, err := s.SolutionRepo.WithTx(tx).CountByUserQuestion(uq.ID)
	if err != nil {
		return nil, fmt.Errorf("count solutions: %w", err)
	}
	if solutions == 0 {
		return nil, util.ErrSolutionRequired
	}

	recordings := s.RecordingRepo.WithTx(tx)
	maxVersion, err := recordings.MaxVersion(uq.ID)
	if err != nil {
		return nil, fmt.Errorf("load recording version: %w", err)
	}

	now := nowFunc()
	recording := &model.ExplanationRecording{
		UserQuestionID:  uq.ID,
		Version:         maxVersion + 1,
		AudioURL:        input.AudioURL,
		DurationSeconds: input.DurationSeconds,
		RecordedAt:      now,
		AnalysisStatus:  model.AnalysisPending,
	}
	if err := recordings.Create(recording); err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	result := &SaveRecordingResult{RecordingID: recording.ID, Version: recording.Version}
	if uq.Status == model.StatusDone {
		return result, nil
	}

	confidence := input.ConfidenceScore
	if confidence == nil {
		c := defaultConfidence
		confidence = &c
	}
	uq.Status = model.StatusDone
	uq.DoneAt = &now
	uq.ConfidenceScore = confidence
	if uq.StartedAt != nil {
		seconds := int64(now.Sub(*uq.StartedAt).Seconds())
		uq.SolvedDurationSeconds = &seconds
	}
	if err := uqs.Save(uq); err != nil {
		return nil, fmt.Errorf("complete user question: %w", err)
	}

	if uq.Question == nil {
		return nil, util.ErrQuestionNotFound
	}
	patternID := uq.Question.PatternID
	if err := s.PatternStats.RecordCompletion(tx, userID, patternID, input.ConfidenceScore); err != nil {
		return nil, err
	}
	delta, err := s.Readiness.ApplyCompletion(tx, userID, uq.Question)
	if err != nil {
		return nil, err
	}
	if err := s.Revisions.ScheduleInitialRevision(tx, uq, patternID); err != nil {
		return nil, err
	}

	result.DeltaDays = &delta
	return result, nil
}

func (s *UserQuestionService) List(userID string) ([]model.UserQuestion, error) {
	return s.UQRepo.ListByUser(userID)
}

func (s *UserQuestionService) StatusMap(userID string) (map[string]model.UserQuestionStatus, error) {
	list, err := s.UQRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]model.UserQuestionStatus, len(list))
	for _, uq := range list {
		statuses[uq.QuestionID] = uq.Status
	}
	return statuses, nil
}

// Activity 近 365 天每日完成数
func (s *UserQuestionService) Activity(userID string) (map[string]int, error) {
	list, err := s.UQRepo.ListDoneSince(userID, nowFunc().AddDate(0, 0, -365))
	if err != nil {
		return nil, err
	}
	activity := make(map[string]int)
	for _, uq := range list {
		if uq.DoneAt == nil {
			continue
		}
		activity[uq.DoneAt.UTC().Format(util.DateFormat)]++
	}
	return activity, nil
}

func (s *UserQuestionService) History(userID, questionID string) (*QuestionHistory, error) {
	uq, err := s.UQRepo.FindByUserAndQuestion(userID, questionID)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrUserQuestionNotFound
		}
		return nil, err
	}
	solutions, err := s.SolutionRepo.ListByUserQuestion(uq.ID)
	if err != nil {
		return nil, err
	}
	recordings, err := s.RecordingRepo.ListByUserQuestion(uq.ID)
	if err != nil {
		return nil, err
	}
	return &QuestionHistory{UserQuestion: uq, Solutions: solutions, Recordings: recordings}, nil
}

// ResetProgress 清空用户的做题进度，订阅与支付记录不受影响
func (s *UserQuestionService) ResetProgress(userID string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		owned := s.UQRepo.WithTx(tx).OwnedIDs(userID)

		if err := s.RevisionRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return fmt.Errorf("delete revisions: %w", err)
		}
		if err := s.FeedbackRepo.WithTx(tx).DeleteByUserQuestions(owned); err != nil {
			return fmt.Errorf("delete feedback: %w", err)
		}
		if err := s.RecordingRepo.WithTx(tx).DeleteByUserQuestions(owned); err != nil {
			return fmt.Errorf("delete recordings: %w", err)
		}
		if err := s.SolutionRepo.WithTx(tx).DeleteByUserQuestions(owned); err != nil {
			return fmt.Errorf("delete solutions: %w", err)
		}
		if err := s.UQRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return fmt.Errorf("delete user questions: %w", err)
		}
		if err := s.StatsRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return fmt.Errorf("delete pattern stats: %w", err)
		}
		if err := s.EventRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return fmt.Errorf("delete readiness events: %w", err)
		}
		return s.UserRepo.WithTx(tx).ResetReadiness(userID)
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Progress reset", zap.String("userId", userID))
	return nil
}
