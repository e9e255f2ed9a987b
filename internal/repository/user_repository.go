package repository

import (
	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateIfAbsent 并发首次请求时只有一个插入成功
func (r *UserRepository) CreateIfAbsent(user *model.User) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateReadiness 基于版本号的乐观更新，版本不匹配返回 ErrConcurrentUpdate
func (r *UserRepository) UpdateReadiness(user *model.User, days float64) error {
	result := r.DB.Model(&model.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"current_readiness_days": days,
			"version":                gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrConcurrentUpdate
	}
	user.CurrentReadinessDays = days
	user.Version++
	return nil
}

// ResetReadiness 将剩余天数恢复为目标天数
func (r *UserRepository) ResetReadiness(id string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_readiness_days": gorm.Expr("interview_target_days"),
			"version":                gorm.Expr("version + 1"),
		}).Error
}
