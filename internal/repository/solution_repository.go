package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
)

type SolutionRepository struct {
	DB *gorm.DB
}

func NewSolutionRepository(db *gorm.DB) *SolutionRepository {
	return &SolutionRepository{DB: db}
}

func (r *SolutionRepository) WithTx(tx *gorm.DB) *SolutionRepository {
	return &SolutionRepository{DB: tx}
}

func (r *SolutionRepository) Create(solution *model.Solution) error {
	return r.DB.Create(solution).Error
}

func (r *SolutionRepository) CountByUserQuestion(uqID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Solution{}).Where("user_question_id = ?", uqID).Count(&count).Error
	return count, err
}

func (r *SolutionRepository) ListByUserQuestion(uqID string) ([]model.Solution, error) {
	var list []model.Solution
	err := r.DB.Where("user_question_id = ?", uqID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// FindLatest 最近一次提交，没有时返回 gorm.ErrRecordNotFound
func (r *SolutionRepository) FindLatest(uqID string) (*model.Solution, error) {
	var solution model.Solution
	err := r.DB.Where("user_question_id = ?", uqID).Order("created_at DESC").First(&solution).Error
	if err != nil {
		return nil, err
	}
	return &solution, nil
}

func (r *SolutionRepository) DeleteByUserQuestions(owned *gorm.DB) error {
	return r.DB.Where("user_question_id IN (?)", owned).Delete(&model.Solution{}).Error
}
