package repository

import (
	"rewind_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevisionRepository struct {
	DB *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{DB: db}
}

func (r *RevisionRepository) WithTx(tx *gorm.DB) *RevisionRepository {
	return &RevisionRepository{DB: tx}
}

// CreateSchedule 同一题已有未完成复习时插入被忽略，返回 false
func (r *RevisionRepository) CreateSchedule(schedule *model.RevisionSchedule) (bool, error) {
	slot := schedule.UserQuestionID
	schedule.OpenSlot = &slot

	result := r.DB.Omit("UserQuestion").Clauses(clause.OnConflict{DoNothing: true}).Create(schedule)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RevisionRepository) FindSchedule(id string) (*model.RevisionSchedule, error) {
	var schedule model.RevisionSchedule
	err := r.DB.Preload("UserQuestion.Question.Pattern").Where("id = ?", id).First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// OpenUserQuestionIDs 已有未完成复习的 user_question
func (r *RevisionRepository) OpenUserQuestionIDs(userID string) (map[string]bool, error) {
	var ids []string
	err := r.DB.Model(&model.RevisionSchedule{}).
		Where("user_id = ? AND completed_at IS NULL", userID).
		Pluck("user_question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ListOpen 未完成复习按优先级降序，dueBefore 非空时只返回已到期的
func (r *RevisionRepository) ListOpen(userID string, dueBefore *time.Time) ([]model.RevisionSchedule, error) {
	query := r.DB.Preload("UserQuestion.Question.Pattern").
		Where("user_id = ? AND completed_at IS NULL", userID)
	if dueBefore != nil {
		query = query.Where("scheduled_at <= ?", *dueBefore)
	}

	var list []model.RevisionSchedule
	err := query.Order("priority_score DESC").Order("scheduled_at ASC").Find(&list).Error
	return list, err
}

// CloseSchedule 只关闭仍未完成的复习，返回是否成功
func (r *RevisionRepository) CloseSchedule(id string, at time.Time) (bool, error) {
	result := r.DB.Model(&model.RevisionSchedule{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"completed_at": at,
			"open_slot":    nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RevisionRepository) CreateSession(session *model.RevisionSession) error {
	return r.DB.Create(session).Error
}

func (r *RevisionRepository) CountCompleted(userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.RevisionSchedule{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *RevisionRepository) DeleteByUser(userID string) error {
	scheduleIDs := r.DB.Model(&model.RevisionSchedule{}).Select("id").Where("user_id = ?", userID)
	if err := r.DB.Where("revision_schedule_id IN (?)", scheduleIDs).Delete(&model.RevisionSession{}).Error; err != nil {
		return err
	}
	return r.DB.Where("user_id = ?", userID).Delete(&model.RevisionSchedule{}).Error
}
