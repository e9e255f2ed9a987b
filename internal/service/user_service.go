package service

import (
	"fmt"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	DB            *gorm.DB
	UserRepo      *repository.UserRepository
	Subscriptions *SubscriptionService
}

func NewUserService(db *gorm.DB, userRepo *repository.UserRepository, subscriptions *SubscriptionService) *UserService {
	return &UserService{DB: db, UserRepo: userRepo, Subscriptions: subscriptions}
}

// Provision 首次登录时创建用户并发放试用，ID 使用身份提供方的 sub
func (s *UserService) Provision(id, email, name string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err == nil {
		return user, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		user = &model.User{
			Email:                email,
			Name:                 name,
			InterviewTargetDays:  model.DefaultTargetDays,
			CurrentReadinessDays: model.DefaultTargetDays,
		}
		user.ID = id

		created, err := s.UserRepo.WithTx(tx).CreateIfAbsent(user)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if !created {
			return nil
		}
		return s.Subscriptions.EnsureTrial(tx, id)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User provisioned", zap.String("userId", id), zap.String("email", email))
	return s.UserRepo.FindByID(id)
}
