package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// swagger:model
type UUIDBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func GenerateUUID() string {
	return uuid.New().String()
}

// AllModels 参与自动迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Pattern{},
		&Question{},
		&UserQuestion{},
		&Solution{},
		&ExplanationRecording{},
		&AIFeedback{},
		&UserPatternStats{},
		&ReadinessEvent{},
		&RevisionSchedule{},
		&RevisionSession{},
		&Subscription{},
		&Payment{},
		&PaymentWebhookEvent{},
	}
}
