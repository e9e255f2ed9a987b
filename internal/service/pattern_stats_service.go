package service

import (
	"fmt"
	"rewind_backend/internal/repository"

	"gorm.io/gorm"
)

type PatternStatsService struct {
	Repo *repository.PatternStatsRepository
}

func NewPatternStatsService(repo *repository.PatternStatsRepository) *PatternStatsService {
	return &PatternStatsService{Repo: repo}
}

// RecordAttempt 开始一道题时调用，不存在的统计行会先插入
func (s *PatternStatsService) RecordAttempt(tx *gorm.DB, userID, patternID string) error {
	repo := s.Repo.WithTx(tx)
	if err := repo.EnsureRow(userID, patternID); err != nil {
		return fmt.Errorf("ensure pattern stats: %w", err)
	}
	if err := repo.IncrementAttempted(userID, patternID); err != nil {
		return fmt.Errorf("increment attempted: %w", err)
	}
	return nil
}

// RecordCompletion 完成一道题。统计行不存在时直接忽略
func (s *PatternStatsService) RecordCompletion(tx *gorm.DB, userID, patternID string, confidence *int) error {
	repo := s.Repo.WithTx(tx)
	stats, err := repo.FindByUserAndPattern(userID, patternID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("load pattern stats: %w", err)
	}

	stats.QuestionsCompleted++
	now := nowFunc()
	stats.LastPracticedAt = &now
	if confidence != nil {
		n := float64(stats.QuestionsCompleted)
		stats.AvgConfidence = (stats.AvgConfidence*(n-1) + float64(*confidence)) / n
	}

	if err := repo.Save(stats); err != nil {
		return fmt.Errorf("save pattern stats: %w", err)
	}
	return nil
}
