package service

import (
	"context"
	"errors"
	"fmt"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"rewind_backend/pkg/monitoring"
	"rewind_backend/pkg/tracing"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	defaultSolutionLanguage = "python"
	minTranscriptLength     = 20
	analysisErrorPrefix     = "Analysis Error: "
)

var errQueueFull = errors.New("queue full")

type AnalysisService struct {
	RecordingRepo *repository.RecordingRepository
	UQRepo        *repository.UserQuestionRepository
	SolutionRepo  *repository.SolutionRepository
	FeedbackRepo  *repository.FeedbackRepository
	Critic        Critic
	Transcriber   Transcriber
	Pool          *AnalysisPool
}

func NewAnalysisService(
	recordingRepo *repository.RecordingRepository,
	uqRepo *repository.UserQuestionRepository,
	solutionRepo *repository.SolutionRepository,
	feedbackRepo *repository.FeedbackRepository,
	critic Critic,
	transcriber Transcriber,
	pool *AnalysisPool,
) *AnalysisService {
	return &AnalysisService{
		RecordingRepo: recordingRepo,
		UQRepo:        uqRepo,
		SolutionRepo:  solutionRepo,
		FeedbackRepo:  feedbackRepo,
		Critic:        critic,
		Transcriber:   transcriber,
		Pool:          pool,
	}
}

type AnalyzeResult struct {
	RecordingID    string               `json:"recordingId"`
	Queued         bool                 `json:"queued"`
	AnalysisStatus model.AnalysisStatus `json:"analysisStatus"`
}

type RecordingFeedback struct {
	RecordingID    string               `json:"recordingId"`
	AnalysisStatus model.AnalysisStatus `json:"analysisStatus"`
	Feedback       []model.AIFeedback   `json:"feedback"`
}

func (s *AnalysisService) loadOwnedRecording(userID, recordingID string) (*model.ExplanationRecording, error) {
	recording, err := s.RecordingRepo.FindByID(recordingID)
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrRecordingNotFound
		}
		return nil, fmt.Errorf("load recording: %w", err)
	}
	if _, err := loadOwned(s.UQRepo, userID, recording.UserQuestionID); err != nil {
		return nil, err
	}
	return recording, nil
}

// Analyze 抢到 PENDING/FAILED -> PROCESSING 的请求才会投递任务，其余调用直接返回
func (s *AnalysisService) Analyze(userID, recordingID string) (*AnalyzeResult, error) {
	recording, err := s.loadOwnedRecording(userID, recordingID)
	if err != nil {
		return nil, err
	}

	claimed, err := s.RecordingRepo.TransitionStatus(recording.ID,
		[]model.AnalysisStatus{model.AnalysisPending, model.AnalysisFailed}, model.AnalysisProcessing)
	if err != nil {
		return nil, fmt.Errorf("claim recording: %w", err)
	}
	if !claimed {
		current, err := s.RecordingRepo.FindByID(recording.ID)
		if err != nil {
			return nil, err
		}
		return &AnalyzeResult{RecordingID: recording.ID, AnalysisStatus: current.AnalysisStatus}, nil
	}

	id, uqID := recording.ID, recording.UserQuestionID
	if !s.Pool.Submit(func(ctx context.Context) { s.Process(ctx, id) }) {
		s.fail(id, uqID, errQueueFull)
		return &AnalyzeResult{RecordingID: id, AnalysisStatus: model.AnalysisFailed}, nil
	}

	return &AnalyzeResult{RecordingID: id, Queued: true, AnalysisStatus: model.AnalysisProcessing}, nil
}

// Process 执行一次完整的点评流程，失败时记录错误提示
func (s *AnalysisService) Process(ctx context.Context, recordingID string) {
	ctx, span := tracing.StartSpan(ctx, "analysis.process", attribute.String("recording.id", recordingID))
	defer span.End()

	recording, err := s.RecordingRepo.FindByID(recordingID)
	if err != nil {
		logger.Log.Error("Failed to load recording for analysis", zap.String("recordingId", recordingID), zap.Error(err))
		monitoring.AnalysisJobs.WithLabelValues("failed").Inc()
		return
	}

	if err := s.safePipeline(ctx, recording); err != nil {
		span.RecordError(err)
		s.fail(recording.ID, recording.UserQuestionID, err)
		return
	}

	if _, err := s.RecordingRepo.TransitionStatus(recording.ID,
		[]model.AnalysisStatus{model.AnalysisProcessing}, model.AnalysisCompleted); err != nil {
		logger.Log.Error("Failed to complete analysis", zap.String("recordingId", recording.ID), zap.Error(err))
		return
	}
	monitoring.AnalysisJobs.WithLabelValues("completed").Inc()
	logger.Log.Info("Recording analysis completed", zap.String("recordingId", recording.ID))
}

// safePipeline 点评过程中的 panic 视为普通失败，录音不会停留在 PROCESSING
func (s *AnalysisService) safePipeline(ctx context.Context, recording *model.ExplanationRecording) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.runPipeline(ctx, recording)
}

func (s *AnalysisService) runPipeline(ctx context.Context, recording *model.ExplanationRecording) error {
	uq, err := s.UQRepo.FindByID(recording.UserQuestionID)
	if err != nil {
		return fmt.Errorf("load user question: %w", err)
	}
	if uq.Question == nil {
		return util.ErrQuestionNotFound
	}
	question := uq.Question
	patternName := ""
	if question.Pattern != nil {
		patternName = question.Pattern.Name
	}

	code, language := "", defaultSolutionLanguage
	solution, err := s.SolutionRepo.FindLatest(uq.ID)
	switch {
	case err == nil:
		code = solution.Code
		if solution.Language != "" {
			language = solution.Language
		}
	case !isNotFound(err):
		return fmt.Errorf("load solution: %w", err)
	}

	if s.Critic.Enabled() {
		prompt := solutionPrompt(question.Title, patternName, question.Difficulty, language, code)
		if err := s.critique(ctx, recording, prompt, model.FeedbackHint); err != nil {
			return err
		}
		if err := s.critique(ctx, recording, reflectionPrompt(question.Title, patternName), model.FeedbackReflectionQuestion); err != nil {
			return err
		}
	} else {
		logger.Log.Warn("Gemini API key not configured, skipping critique", zap.String("recordingId", recording.ID))
	}

	transcript := recording.Transcript
	if transcript == "" && recording.AudioURL != "" {
		if s.Transcriber.Enabled() {
			text, err := s.Transcriber.Transcribe(ctx, recording.AudioURL)
			if err != nil {
				return fmt.Errorf("transcribe: %w", err)
			}
			transcript = strings.TrimSpace(text)
			if err := s.RecordingRepo.UpdateTranscript(recording.ID, transcript); err != nil {
				return fmt.Errorf("save transcript: %w", err)
			}
		} else {
			logger.Log.Warn("OpenAI API key not configured, skipping transcription", zap.String("recordingId", recording.ID))
		}
	}

	if utf8.RuneCountInString(transcript) > minTranscriptLength && s.Critic.Enabled() {
		if err := s.critique(ctx, recording, communicationPrompt(question.Title, transcript), model.FeedbackCommunicationTip); err != nil {
			return err
		}
	}
	return nil
}

func (s *AnalysisService) critique(ctx context.Context, recording *model.ExplanationRecording, prompt string, kind model.FeedbackType) error {
	reply, err := s.Critic.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}
	return s.saveFeedback(recording.UserQuestionID, recording.ID, kind, reply)
}

func (s *AnalysisService) saveFeedback(uqID, recordingID string, kind model.FeedbackType, message string) error {
	rid := recordingID
	feedback := &model.AIFeedback{
		UserQuestionID: uqID,
		RecordingID:    &rid,
		Type:           kind,
		Message:        message,
	}
	if err := s.FeedbackRepo.Create(feedback); err != nil {
		return fmt.Errorf("save %s feedback: %w", kind, err)
	}
	return nil
}

func (s *AnalysisService) fail(recordingID, uqID string, cause error) {
	monitoring.AnalysisJobs.WithLabelValues("failed").Inc()
	logger.Log.Error("Recording analysis failed", zap.String("recordingId", recordingID), zap.Error(cause))

	if _, err := s.RecordingRepo.TransitionStatus(recordingID,
		[]model.AnalysisStatus{model.AnalysisPending, model.AnalysisProcessing}, model.AnalysisFailed); err != nil {
		logger.Log.Error("Failed to mark analysis failed", zap.String("recordingId", recordingID), zap.Error(err))
	}
	if err := s.saveFeedback(uqID, recordingID, model.FeedbackHint, analysisErrorPrefix+cause.Error()); err != nil {
		logger.Log.Error("Failed to save analysis error", zap.String("recordingId", recordingID), zap.Error(err))
	}
}

func (s *AnalysisService) Feedback(userID, recordingID string) (*RecordingFeedback, error) {
	recording, err := s.loadOwnedRecording(userID, recordingID)
	if err != nil {
		return nil, err
	}
	list, err := s.FeedbackRepo.ListByRecording(recording.ID)
	if err != nil {
		return nil, err
	}
	return &RecordingFeedback{
		RecordingID:    recording.ID,
		AnalysisStatus: recording.AnalysisStatus,
		Feedback:       list,
	}, nil
}
