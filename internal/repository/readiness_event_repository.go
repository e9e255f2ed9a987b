package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
)

type ReadinessEventRepository struct {
	DB *gorm.DB
}

func NewReadinessEventRepository(db *gorm.DB) *ReadinessEventRepository {
	return &ReadinessEventRepository{DB: db}
}

func (r *ReadinessEventRepository) WithTx(tx *gorm.DB) *ReadinessEventRepository {
	return &ReadinessEventRepository{DB: tx}
}

func (r *ReadinessEventRepository) Create(event *model.ReadinessEvent) error {
	return r.DB.Create(event).Error
}

func (r *ReadinessEventRepository) RecentByUser(userID string, limit int) ([]model.ReadinessEvent, error) {
	var list []model.ReadinessEvent
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ReadinessEventRepository) DeleteByUser(userID string) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.ReadinessEvent{}).Error
}
