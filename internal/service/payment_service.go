package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"rewind_backend/internal/config"
	"rewind_backend/internal/model"
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/logger"
	"rewind_backend/pkg/monitoring"

	"github.com/razorpay/razorpay-go/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventRefundCreated   = "refund.created"

	signatureFailureReason = "Signature verification failed"
	defaultFailureReason   = "Payment failed"
)

type PaymentService struct {
	DB            *gorm.DB
	PaymentRepo   *repository.PaymentRepository
	Subscriptions *SubscriptionService
	Gateway       OrderGateway
	Credentials   config.RazorpayConfig
}

func NewPaymentService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	subscriptions *SubscriptionService,
	gateway OrderGateway,
	credentials config.RazorpayConfig,
) *PaymentService {
	return &PaymentService{
		DB:            db,
		PaymentRepo:   paymentRepo,
		Subscriptions: subscriptions,
		Gateway:       gateway,
		Credentials:   credentials,
	}
}

type OrderResult struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
	Email    string `json:"email"`
	UserID   string `json:"userId"`
	Plan     string `json:"plan"`
}

type VerifyPaymentInput struct {
	OrderID   string `json:"razorpayOrderId" binding:"required"`
	PaymentID string `json:"razorpayPaymentId" binding:"required"`
	Signature string `json:"razorpaySignature" binding:"required"`
}

type VerifyResult struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message"`
	SubscriptionID *string `json:"subscriptionId,omitempty"`
}

// 回调结构只取用到的字段
type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
			} `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// validPaymentSignature 校验 checkout 回传的 order_id|payment_id 签名，未配置密钥时一律失败
func validPaymentSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, secret)
}

func validWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, secret)
}

func (s *PaymentService) webhookSecret() string {
	if s.Credentials.WebhookSecret != "" {
		return s.Credentials.WebhookSecret
	}
	return s.Credentials.KeySecret
}

func (s *PaymentService) CreateOrder(ctx context.Context, userID, email, plan string) (*OrderResult, error) {
	info, ok := lookupPlan(model.Plan(plan))
	if !ok || info.Plan == model.PlanTrial {
		return nil, util.ErrInvalidPlan
	}
	if s.Gateway == nil {
		return nil, util.ErrPaymentsDisabled
	}

	prefix := userID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	receipt := fmt.Sprintf("rcpt_%s_%d", prefix, nowFunc().UnixMilli())
	notes := map[string]interface{}{
		"user_id": userID,
		"plan":    string(info.Plan),
		"email":   email,
	}

	orderID, err := s.Gateway.CreateOrder(ctx, info.AmountPaise, info.Currency, receipt, notes)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		UserID:          userID,
		AmountPaise:     info.AmountPaise,
		Currency:        info.Currency,
		Plan:            info.Plan,
		ExternalOrderID: &orderID,
		Status:          model.PaymentPending,
	}
	if err := s.PaymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}
	monitoring.Payments.WithLabelValues(string(model.PaymentPending)).Inc()

	logger.Log.Info("Payment order created",
		zap.String("userId", userID),
		zap.String("orderId", orderID),
		zap.String("plan", string(info.Plan)))

	return &OrderResult{
		OrderID:  orderID,
		Amount:   info.AmountPaise,
		Currency: info.Currency,
		KeyID:    s.Credentials.KeyID,
		Email:    email,
		UserID:   userID,
		Plan:     string(info.Plan),
	}, nil
}

// Verify 客户端支付完成后的签名校验；签名错误时支付记为 FAILED 并提交
func (s *PaymentService) Verify(ctx context.Context, userID string, input VerifyPaymentInput) (*VerifyResult, error) {
	var result *VerifyResult
	signatureRejected := false

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		payments := s.PaymentRepo.WithTx(tx)
		payment, err := payments.FindByOrderIDForUpdate(input.OrderID)
		if err != nil {
			if isNotFound(err) {
				return util.ErrPaymentNotFound
			}
			return fmt.Errorf("load payment: %w", err)
		}
		if payment.UserID != userID {
			return util.ErrPermissionDenied
		}

		switch payment.Status {
		case model.PaymentSuccess:
			result = &VerifyResult{Success: true, Message: "Payment already verified", SubscriptionID: payment.SubscriptionID}
			return nil
		case model.PaymentRefunded:
			return util.ErrPaymentClosed
		}

		if !validPaymentSignature(s.Credentials.KeySecret, input.OrderID, input.PaymentID, input.Signature) {
			payment.Status = model.PaymentFailed
			payment.FailureReason = signatureFailureReason
			if err := payments.Save(payment); err != nil {
				return fmt.Errorf("mark payment failed: %w", err)
			}
			signatureRejected = true
			return nil
		}

		plan, err := planForAmount(payment.AmountPaise)
		if err != nil {
			return err
		}
		payment.Status = model.PaymentSuccess
		payment.ExternalPaymentID = &input.PaymentID
		payment.ExternalSignature = input.Signature
		payment.FailureReason = ""

		sub, err := s.Subscriptions.Activate(tx, userID, plan, payment)
		if err != nil {
			return err
		}
		result = &VerifyResult{Success: true, Message: "Payment verified", SubscriptionID: &sub.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if signatureRejected {
		monitoring.Payments.WithLabelValues(string(model.PaymentFailed)).Inc()
		logger.Log.Warn("Payment signature rejected", zap.String("userId", userID), zap.String("orderId", input.OrderID))
		return nil, util.ErrSignatureInvalid
	}

	monitoring.Payments.WithLabelValues(string(model.PaymentSuccess)).Inc()
	s.Subscriptions.Invalidate(ctx, userID)
	return result, nil
}

// HandleWebhook 处理支付网关回调，每次投递都会写入回调日志
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	var hook razorpayWebhook
	parseErr := json.Unmarshal(body, &hook)

	event := &model.PaymentWebhookEvent{
		Event:             hook.Event,
		ExternalOrderID:   hook.Payload.Payment.Entity.OrderID,
		ExternalPaymentID: hook.Payload.Payment.Entity.ID,
		Payload:           string(body),
		SignatureValid:    validWebhookSignature(s.webhookSecret(), body, signature),
		ReceivedAt:        nowFunc(),
	}
	if event.ExternalPaymentID == "" {
		event.ExternalPaymentID = hook.Payload.Refund.Entity.PaymentID
	}

	var (
		affectedUser string
		handleErr    error
	)
	switch {
	case !event.SignatureValid:
		handleErr = util.ErrSignatureInvalid
	case parseErr != nil:
		handleErr = fmt.Errorf("decode webhook: %w", parseErr)
	default:
		affectedUser, event.Processed, handleErr = s.processWebhook(hook)
	}

	result := "ignored"
	switch {
	case handleErr != nil:
		event.Error = handleErr.Error()
		result = "error"
	case event.Processed:
		result = "processed"
	}
	monitoring.WebhookEvents.WithLabelValues(hook.Event, result).Inc()

	if err := s.PaymentRepo.CreateWebhookEvent(event); err != nil {
		logger.Log.Error("Failed to record webhook event", zap.String("event", hook.Event), zap.Error(err))
	}
	if affectedUser != "" {
		s.Subscriptions.Invalidate(ctx, affectedUser)
	}

	if handleErr != nil {
		logger.Log.Warn("Webhook not handled", zap.String("event", hook.Event), zap.Error(handleErr))
		// 解析失败的投递重试也无济于事
		if parseErr != nil && !errors.Is(handleErr, util.ErrSignatureInvalid) {
			return nil
		}
		return handleErr
	}
	return nil
}

// processWebhook 返回受影响的用户与是否改变了状态
func (s *PaymentService) processWebhook(hook razorpayWebhook) (string, bool, error) {
	var (
		userID    string
		processed bool
	)
	entity := hook.Payload.Payment.Entity

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		payments := s.PaymentRepo.WithTx(tx)

		var (
			payment *model.Payment
			err     error
		)
		switch hook.Event {
		case EventPaymentCaptured, EventPaymentFailed:
			payment, err = payments.FindByOrderIDForUpdate(entity.OrderID)
		case EventRefundCreated:
			payment, err = payments.FindByPaymentIDForUpdate(hook.Payload.Refund.Entity.PaymentID)
		default:
			logger.Log.Info("Ignoring webhook event", zap.String("event", hook.Event))
			return nil
		}
		if err != nil {
			if isNotFound(err) {
				logger.Log.Warn("Webhook for unknown payment",
					zap.String("event", hook.Event),
					zap.String("orderId", entity.OrderID))
				return nil
			}
			return fmt.Errorf("load payment: %w", err)
		}
		userID = payment.UserID

		switch hook.Event {
		case EventPaymentCaptured:
			if payment.Status != model.PaymentPending {
				return nil
			}
			paymentID := entity.ID
			payment.Status = model.PaymentSuccess
			payment.ExternalPaymentID = &paymentID
			if payment.SubscriptionID == nil {
				plan, err := planForAmount(payment.AmountPaise)
				if err != nil {
					return err
				}
				if _, err := s.Subscriptions.Activate(tx, payment.UserID, plan, payment); err != nil {
					return err
				}
			} else if err := payments.Save(payment); err != nil {
				return err
			}

		case EventPaymentFailed:
			if payment.Status != model.PaymentPending {
				return nil
			}
			payment.Status = model.PaymentFailed
			payment.FailureReason = entity.ErrorDescription
			if payment.FailureReason == "" {
				payment.FailureReason = defaultFailureReason
			}
			if err := payments.Save(payment); err != nil {
				return err
			}

		case EventRefundCreated:
			if payment.Status == model.PaymentRefunded {
				return nil
			}
			payment.Status = model.PaymentRefunded
			if err := payments.Save(payment); err != nil {
				return err
			}
			if payment.SubscriptionID != nil {
				if err := s.Subscriptions.SubRepo.WithTx(tx).Cancel(*payment.SubscriptionID); err != nil {
					return fmt.Errorf("cancel refunded subscription: %w", err)
				}
			}
		}

		processed = true
		monitoring.Payments.WithLabelValues(string(payment.Status)).Inc()
		return nil
	})
	if err != nil {
		return userID, false, err
	}
	return userID, processed, nil
}
