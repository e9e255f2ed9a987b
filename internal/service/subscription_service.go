package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"rewind_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CurrencyINR       = "INR"
	PlanNone          = "NONE"
	activeCachePrefix = "sub:active:"
)

type PlanInfo struct {
	Plan         model.Plan `json:"plan"`
	Name         string     `json:"name"`
	AmountPaise  int64      `json:"amount"`
	Currency     string     `json:"currency"`
	DurationDays int        `json:"durationDays"`
}

// 套餐价格表，金额单位为分（paise）
var planCatalog = []PlanInfo{
	{Plan: model.PlanTrial, Name: "Free Trial", AmountPaise: 0, Currency: CurrencyINR, DurationDays: 14},
	{Plan: model.PlanMonthly, Name: "Monthly", AmountPaise: 14900, Currency: CurrencyINR, DurationDays: 30},
	{Plan: model.PlanQuarterly, Name: "Quarterly", AmountPaise: 29900, Currency: CurrencyINR, DurationDays: 90},
}

func PlanCatalog() []PlanInfo {
	plans := make([]PlanInfo, len(planCatalog))
	copy(plans, planCatalog)
	return plans
}

func lookupPlan(plan model.Plan) (PlanInfo, bool) {
	for _, p := range planCatalog {
		if p.Plan == plan {
			return p, true
		}
	}
	return PlanInfo{}, false
}

// planForAmount 根据支付金额反推付费套餐
func planForAmount(amount int64) (model.Plan, error) {
	for _, p := range planCatalog {
		if p.Plan != model.PlanTrial && p.AmountPaise == amount {
			return p.Plan, nil
		}
	}
	return "", fmt.Errorf("no plan for amount %d: %w", amount, util.ErrInvalidPlan)
}

// daysRemaining 向上取整，已过期为 0
func daysRemaining(expiresAt, now time.Time) int {
	hours := expiresAt.Sub(now).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

type SubscriptionStatusView struct {
	Active        bool       `json:"active"`
	Plan          string     `json:"plan"`
	Status        string     `json:"status,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	StartsAt      *time.Time `json:"startsAt"`
	IsTrial       bool       `json:"isTrial"`
	AutoRenew     bool       `json:"autoRenew"`
	CanUpgrade    bool       `json:"canUpgrade"`
}

type ActiveStatus struct {
	Active        bool `json:"active"`
	DaysRemaining int  `json:"daysRemaining"`
}

type SubscriptionService struct {
	DB          *gorm.DB
	SubRepo     *repository.SubscriptionRepository
	PaymentRepo *repository.PaymentRepository
	Redis       *redis.Client
	CacheTTL    time.Duration
}

func NewSubscriptionService(
	db *gorm.DB,
	subRepo *repository.SubscriptionRepository,
	paymentRepo *repository.PaymentRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *SubscriptionService {
	return &SubscriptionService{
		DB:          db,
		SubRepo:     subRepo,
		PaymentRepo: paymentRepo,
		Redis:       rdb,
		CacheTTL:    cacheTTL,
	}
}

// EnsureTrial 新用户赠送试用；付过费的用户只记录一条已过期的试用
func (s *SubscriptionService) EnsureTrial(tx *gorm.DB, userID string) error {
	subs := s.SubRepo.WithTx(tx)
	count, err := subs.CountByUser(userID)
	if err != nil {
		return fmt.Errorf("count subscriptions: %w", err)
	}
	if count > 0 {
		return nil
	}

	paid, err := s.PaymentRepo.WithTx(tx).HasSuccess(userID)
	if err != nil {
		return fmt.Errorf("check payments: %w", err)
	}

	now := nowFunc()
	trial := &model.Subscription{
		UserID:   userID,
		Plan:     model.PlanTrial,
		StartsAt: now,
	}
	if paid {
		trial.Status = model.SubscriptionExpired
		trial.ExpiresAt = now
	} else {
		info, _ := lookupPlan(model.PlanTrial)
		trial.Status = model.SubscriptionActive
		trial.ExpiresAt = now.AddDate(0, 0, info.DurationDays)
	}
	if err := subs.Create(trial); err != nil {
		return fmt.Errorf("create trial: %w", err)
	}
	return nil
}

// Activate 使现有 ACTIVE 订阅过期并创建新订阅，payment 非空时关联到新订阅
func (s *SubscriptionService) Activate(tx *gorm.DB, userID string, plan model.Plan, payment *model.Payment) (*model.Subscription, error) {
	info, ok := lookupPlan(plan)
	if !ok {
		return nil, util.ErrInvalidPlan
	}

	subs := s.SubRepo.WithTx(tx)
	if err := subs.ExpireActive(userID); err != nil {
		return nil, fmt.Errorf("expire active subscription: %w", err)
	}

	now := nowFunc()
	sub := &model.Subscription{
		UserID:    userID,
		Plan:      plan,
		Status:    model.SubscriptionActive,
		StartsAt:  now,
		ExpiresAt: now.AddDate(0, 0, info.DurationDays),
	}
	if err := subs.Create(sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	if payment != nil {
		payment.SubscriptionID = &sub.ID
		if err := s.PaymentRepo.WithTx(tx).Save(payment); err != nil {
			return nil, fmt.Errorf("link payment: %w", err)
		}
	}

	logger.Log.Info("Subscription activated",
		zap.String("userId", userID),
		zap.String("plan", string(plan)),
		zap.Time("expiresAt", sub.ExpiresAt))
	return sub, nil
}

// Cancel 取消后到期前仍可使用
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) error {
	sub, err := s.SubRepo.FindActive(userID)
	if err != nil {
		if isNotFound(err) {
			return util.ErrNoActiveSubscription
		}
		return fmt.Errorf("load active subscription: %w", err)
	}
	if err := s.SubRepo.Cancel(sub.ID); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	s.Invalidate(ctx, userID)
	logger.Log.Info("Subscription cancelled", zap.String("userId", userID), zap.String("subscriptionId", sub.ID))
	return nil
}

// ExpireDue 定时任务：把已到期的订阅置为 EXPIRED
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	userIDs, count, err := s.SubRepo.ExpireDue(nowFunc())
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	for _, id := range userIDs {
		s.Invalidate(ctx, id)
	}
	if count > 0 {
		monitoring.SubscriptionsExpired.Add(float64(count))
	}
	return count, nil
}

// inEffect 有效订阅，ACTIVE 优先
func (s *SubscriptionService) inEffect(userID string, now time.Time) (*model.Subscription, error) {
	list, err := s.SubRepo.ListInEffect(userID, now)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	for i := range list {
		if list[i].Status == model.SubscriptionActive {
			return &list[i], nil
		}
	}
	return &list[0], nil
}

func (s *SubscriptionService) Status(userID string) (*SubscriptionStatusView, error) {
	now := nowFunc()
	sub, err := s.inEffect(userID, now)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	active := sub != nil
	if sub == nil {
		sub, err = s.SubRepo.FindLatest(userID)
		if err != nil {
			if isNotFound(err) {
				return &SubscriptionStatusView{Plan: PlanNone, CanUpgrade: true}, nil
			}
			return nil, fmt.Errorf("load subscription: %w", err)
		}
	}

	isTrial := sub.Plan == model.PlanTrial
	view := &SubscriptionStatusView{
		Active:     active,
		Plan:       string(sub.Plan),
		Status:     string(sub.Status),
		ExpiresAt:  &sub.ExpiresAt,
		StartsAt:   &sub.StartsAt,
		IsTrial:    isTrial,
		AutoRenew:  sub.AutoRenew,
		CanUpgrade: !active || isTrial,
	}
	if active {
		view.DaysRemaining = daysRemaining(sub.ExpiresAt, now)
	}
	return view, nil
}

// IsActive 带 Redis 缓存的有效订阅判断，Redis 不可用时直接查库
func (s *SubscriptionService) IsActive(ctx context.Context, userID string) (ActiveStatus, error) {
	key := activeCachePrefix + userID
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var status ActiveStatus
			if json.Unmarshal([]byte(cached), &status) == nil {
				return status, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("Subscription cache read failed", zap.String("userId", userID), zap.Error(err))
		}
	}

	now := nowFunc()
	sub, err := s.inEffect(userID, now)
	if err != nil {
		return ActiveStatus{}, fmt.Errorf("load subscription: %w", err)
	}
	status := ActiveStatus{}
	if sub != nil {
		status = ActiveStatus{Active: true, DaysRemaining: daysRemaining(sub.ExpiresAt, now)}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(status); err == nil {
			if err := s.Redis.Set(ctx, key, data, s.CacheTTL).Err(); err != nil {
				logger.Log.Warn("Subscription cache write failed", zap.String("userId", userID), zap.Error(err))
			}
		}
	}
	return status, nil
}

func (s *SubscriptionService) Invalidate(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, activeCachePrefix+userID).Err(); err != nil {
		logger.Log.Warn("Subscription cache invalidation failed", zap.String("userId", userID), zap.Error(err))
	}
}
