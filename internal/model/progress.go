package model

import "time"

// UserPatternStats 用户在某个模式下的做题统计
type UserPatternStats struct {
	UUIDBase
	UserID             string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_pattern" json:"userId"`
	PatternID          string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_pattern" json:"patternId"`
	Pattern            *Pattern   `gorm:"foreignKey:PatternID" json:"pattern,omitempty"`
	QuestionsAttempted int        `gorm:"not null;default:0" json:"questionsAttempted"`
	QuestionsCompleted int        `gorm:"not null;default:0" json:"questionsCompleted"`
	AvgConfidence      float64    `gorm:"not null;default:0" json:"avgConfidence"`
	LastPracticedAt    *time.Time `json:"lastPracticedAt"`
}

// ReadinessEvent 准备天数变化日志，负数表示进步
type ReadinessEvent struct {
	UUIDBase
	UserID            string  `gorm:"type:varchar(36);index;not null" json:"userId"`
	ChangeDeltaDays   float64 `json:"changeDeltaDays"`
	Reason            string  `gorm:"size:500" json:"reason"`
	RelatedQuestionID *string `gorm:"type:varchar(36)" json:"relatedQuestionId"`
}
