package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) WithTx(tx *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: tx}
}

func (r *FeedbackRepository) Create(feedback *model.AIFeedback) error {
	return r.DB.Create(feedback).Error
}

func (r *FeedbackRepository) ListByRecording(recordingID string) ([]model.AIFeedback, error) {
	var list []model.AIFeedback
	err := r.DB.Where("recording_id = ?", recordingID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *FeedbackRepository) DeleteByUserQuestions(owned *gorm.DB) error {
	return r.DB.Where("user_question_id IN (?)", owned).Delete(&model.AIFeedback{}).Error
}
