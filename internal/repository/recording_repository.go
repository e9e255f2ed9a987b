package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
)

type RecordingRepository struct {
	DB *gorm.DB
}

func NewRecordingRepository(db *gorm.DB) *RecordingRepository {
	return &RecordingRepository{DB: db}
}

func (r *RecordingRepository) WithTx(tx *gorm.DB) *RecordingRepository {
	return &RecordingRepository{DB: tx}
}

func (r *RecordingRepository) Create(recording *model.ExplanationRecording) error {
	return r.DB.Create(recording).Error
}

func (r *RecordingRepository) FindByID(id string) (*model.ExplanationRecording, error) {
	var recording model.ExplanationRecording
	err := r.DB.Where("id = ?", id).First(&recording).Error
	if err != nil {
		return nil, err
	}
	return &recording, nil
}

// MaxVersion 没有录音时返回 0
func (r *RecordingRepository) MaxVersion(uqID string) (int, error) {
	var max int
	err := r.DB.Model(&model.ExplanationRecording{}).
		Select("COALESCE(MAX(version), 0)").
		Where("user_question_id = ?", uqID).
		Row().Scan(&max)
	return max, err
}

func (r *RecordingRepository) ListByUserQuestion(uqID string) ([]model.ExplanationRecording, error) {
	var list []model.ExplanationRecording
	err := r.DB.Where("user_question_id = ?", uqID).Order("version DESC").Find(&list).Error
	return list, err
}

// TransitionStatus 条件更新状态，只有当前状态在 from 中时才生效
func (r *RecordingRepository) TransitionStatus(id string, from []model.AnalysisStatus, to model.AnalysisStatus) (bool, error) {
	result := r.DB.Model(&model.ExplanationRecording{}).
		Where("id = ? AND analysis_status IN ?", id, from).
		Update("analysis_status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RecordingRepository) UpdateTranscript(id, transcript string) error {
	return r.DB.Model(&model.ExplanationRecording{}).
		Where("id = ?", id).
		Update("transcript", transcript).Error
}

func (r *RecordingRepository) DeleteByUserQuestions(owned *gorm.DB) error {
	return r.DB.Where("user_question_id IN (?)", owned).Delete(&model.ExplanationRecording{}).Error
}
