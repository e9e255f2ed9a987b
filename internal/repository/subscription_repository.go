package repository

import (
	"rewind_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) WithTx(tx *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: tx}
}

// Create ACTIVE 状态会占用 active_slot
func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	if sub.Status == model.SubscriptionActive {
		slot := sub.UserID
		sub.ActiveSlot = &slot
	}
	return r.DB.Create(sub).Error
}

func (r *SubscriptionRepository) FindByID(id string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.DB.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Subscription{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *SubscriptionRepository) FindActive(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListInEffect ACTIVE 或 CANCELLED 且未到期
func (r *SubscriptionRepository) ListInEffect(userID string, now time.Time) ([]model.Subscription, error) {
	var list []model.Subscription
	err := r.DB.Where("user_id = ? AND status IN ? AND expires_at > ?", userID,
		[]model.SubscriptionStatus{model.SubscriptionActive, model.SubscriptionCancelled}, now).
		Order("expires_at DESC").
		Find(&list).Error
	return list, err
}

func (r *SubscriptionRepository) FindLatest(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ExpireActive 用户当前 ACTIVE 的订阅全部置为 EXPIRED
func (r *SubscriptionRepository) ExpireActive(userID string) error {
	return r.DB.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionActive).
		Updates(map[string]interface{}{
			"status":      model.SubscriptionExpired,
			"active_slot": nil,
		}).Error
}

// Cancel 保留 expires_at，到期前仍可使用
func (r *SubscriptionRepository) Cancel(id string) error {
	return r.DB.Model(&model.Subscription{}).
		Where("id = ? AND status <> ?", id, model.SubscriptionExpired).
		Updates(map[string]interface{}{
			"status":      model.SubscriptionCancelled,
			"auto_renew":  false,
			"active_slot": nil,
		}).Error
}

// ExpireDue 到期的 ACTIVE/CANCELLED 订阅置为 EXPIRED，返回影响行数
func (r *SubscriptionRepository) ExpireDue(now time.Time) ([]string, int64, error) {
	var userIDs []string
	statuses := []model.SubscriptionStatus{model.SubscriptionActive, model.SubscriptionCancelled}
	err := r.DB.Model(&model.Subscription{}).
		Where("status IN ? AND expires_at < ?", statuses, now).
		Distinct().
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, 0, err
	}

	result := r.DB.Model(&model.Subscription{}).
		Where("status IN ? AND expires_at < ?", statuses, now).
		Updates(map[string]interface{}{
			"status":      model.SubscriptionExpired,
			"active_slot": nil,
		})
	return userIDs, result.RowsAffected, result.Error
}
