package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) WithTx(tx *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: tx}
}

// QuestionFilter 题目筛选条件，空字段表示不过滤
type QuestionFilter struct {
	Difficulty string
	PatternID  string
}

func (r *QuestionRepository) filtered(f QuestionFilter) *gorm.DB {
	query := r.DB.Model(&model.Question{})
	if f.Difficulty != "" {
		query = query.Where("difficulty = ?", f.Difficulty)
	}
	if f.PatternID != "" {
		query = query.Where("pattern_id = ?", f.PatternID)
	}
	return query
}

func (r *QuestionRepository) List(f QuestionFilter) ([]model.Question, error) {
	var questions []model.Question
	err := r.filtered(f).Preload("Pattern").Order("order_index ASC").Find(&questions).Error
	return questions, err
}

// Page 页码从 0 开始
func (r *QuestionRepository) Page(f QuestionFilter, page, size int) ([]model.Question, int64, error) {
	var total int64
	if err := r.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var questions []model.Question
	err := r.filtered(f).
		Preload("Pattern").
		Order("order_index ASC").
		Offset(page * size).
		Limit(size).
		Find(&questions).Error
	return questions, total, err
}

func (r *QuestionRepository) FindByID(id string) (*model.Question, error) {
	var question model.Question
	err := r.DB.Preload("Pattern").Where("id = ?", id).First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) CountByPattern(patternID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("pattern_id = ?", patternID).Count(&count).Error
	return count, err
}

// CountGroupedByPattern pattern_id -> 题目数
func (r *QuestionRepository) CountGroupedByPattern() (map[string]int64, error) {
	var rows []struct {
		PatternID string
		Total     int64
	}
	err := r.DB.Model(&model.Question{}).
		Select("pattern_id, COUNT(*) AS total").
		Group("pattern_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PatternID] = row.Total
	}
	return counts, nil
}

func (r *QuestionRepository) ListPatterns() ([]model.Pattern, error) {
	var patterns []model.Pattern
	err := r.DB.Order("name ASC").Find(&patterns).Error
	return patterns, err
}
