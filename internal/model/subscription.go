package model

import "time"

type Plan string

const (
	PlanTrial     Plan = "TRIAL"
	PlanMonthly   Plan = "MONTHLY"
	PlanQuarterly Plan = "QUARTERLY"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription 订阅
// ActiveSlot 在 ACTIVE 状态下等于 user_id，其它状态为空，保证每个用户最多一个 ACTIVE
type Subscription struct {
	UUIDBase
	UserID     string             `gorm:"type:varchar(36);index;not null" json:"userId"`
	Plan       Plan               `gorm:"size:20;not null" json:"plan"`
	Status     SubscriptionStatus `gorm:"size:20;not null;index" json:"status"`
	StartsAt   time.Time          `json:"startsAt"`
	ExpiresAt  time.Time          `gorm:"index" json:"expiresAt"`
	AutoRenew  bool               `json:"autoRenew"`
	ActiveSlot *string            `gorm:"type:varchar(36);uniqueIndex" json:"-"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment 支付记录，每个外部订单号至多对应一条
type Payment struct {
	UUIDBase
	UserID            string        `gorm:"type:varchar(36);index;not null" json:"userId"`
	SubscriptionID    *string       `gorm:"type:varchar(36)" json:"subscriptionId"`
	AmountPaise       int64         `gorm:"not null" json:"amountPaise"`
	Currency          string        `gorm:"size:10;default:INR" json:"currency"`
	Plan              Plan          `gorm:"size:20" json:"plan"`
	ExternalOrderID   *string       `gorm:"size:100;uniqueIndex" json:"externalOrderId"`
	ExternalPaymentID *string       `gorm:"size:100;index" json:"externalPaymentId"`
	ExternalSignature string        `gorm:"size:255" json:"-"`
	Status            PaymentStatus `gorm:"size:20;not null;index" json:"status"`
	FailureReason     string        `gorm:"size:500" json:"failureReason,omitempty"`
}

// PaymentWebhookEvent 支付回调原始记录
type PaymentWebhookEvent struct {
	UUIDBase
	Event             string    `gorm:"size:64;index" json:"event"`
	ExternalOrderID   string    `gorm:"size:100;index" json:"externalOrderId"`
	ExternalPaymentID string    `gorm:"size:100" json:"externalPaymentId"`
	Payload           string    `gorm:"type:text" json:"payload"`
	SignatureValid    bool      `json:"signatureValid"`
	Processed         bool      `json:"processed"`
	Error             string    `gorm:"size:500" json:"error,omitempty"`
	ReceivedAt        time.Time `json:"receivedAt"`
}
