package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PatternStatsRepository struct {
	DB *gorm.DB
}

func NewPatternStatsRepository(db *gorm.DB) *PatternStatsRepository {
	return &PatternStatsRepository{DB: db}
}

func (r *PatternStatsRepository) WithTx(tx *gorm.DB) *PatternStatsRepository {
	return &PatternStatsRepository{DB: tx}
}

func (r *PatternStatsRepository) FindByUserAndPattern(userID, patternID string) (*model.UserPatternStats, error) {
	var stats model.UserPatternStats
	err := r.DB.Where("user_id = ? AND pattern_id = ?", userID, patternID).First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PatternStatsRepository) ListByUser(userID string) ([]model.UserPatternStats, error) {
	var list []model.UserPatternStats
	err := r.DB.Preload("Pattern").Where("user_id = ?", userID).Find(&list).Error
	return list, err
}

// MapByUser pattern_id -> 统计
func (r *PatternStatsRepository) MapByUser(userID string) (map[string]model.UserPatternStats, error) {
	var list []model.UserPatternStats
	if err := r.DB.Where("user_id = ?", userID).Find(&list).Error; err != nil {
		return nil, err
	}
	m := make(map[string]model.UserPatternStats, len(list))
	for _, s := range list {
		m[s.PatternID] = s
	}
	return m, nil
}

// EnsureRow 不存在时插入空行，已存在则不做任何事
func (r *PatternStatsRepository) EnsureRow(userID, patternID string) error {
	row := &model.UserPatternStats{UserID: userID, PatternID: patternID}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *PatternStatsRepository) IncrementAttempted(userID, patternID string) error {
	return r.DB.Model(&model.UserPatternStats{}).
		Where("user_id = ? AND pattern_id = ?", userID, patternID).
		Update("questions_attempted", gorm.Expr("questions_attempted + 1")).Error
}

func (r *PatternStatsRepository) Save(stats *model.UserPatternStats) error {
	return r.DB.Omit("Pattern").Save(stats).Error
}

func (r *PatternStatsRepository) DeleteByUser(userID string) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.UserPatternStats{}).Error
}
