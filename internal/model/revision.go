package model

import "time"

type RevisionReason string

const (
	ReasonLowConfidence   RevisionReason = "LOW_CONFIDENCE"
	ReasonTimeDecay       RevisionReason = "TIME_DECAY"
	ReasonPatternWeakness RevisionReason = "PATTERN_WEAKNESS"
	ReasonManual          RevisionReason = "MANUAL"
)

// RevisionSchedule 待复习项
// OpenSlot 在未完成时等于 user_question_id，完成后置空，借助唯一索引保证同一题最多一个未完成的复习
type RevisionSchedule struct {
	UUIDBase
	UserID         string         `gorm:"type:varchar(36);index;not null" json:"userId"`
	UserQuestionID string         `gorm:"type:varchar(36);index;not null" json:"userQuestionId"`
	UserQuestion   *UserQuestion  `gorm:"foreignKey:UserQuestionID" json:"userQuestion,omitempty"`
	PatternID      string         `gorm:"type:varchar(36)" json:"patternId"`
	ScheduledAt    time.Time      `gorm:"index" json:"scheduledAt"`
	Reason         RevisionReason `gorm:"size:30" json:"reason"`
	PriorityScore  float64        `json:"priorityScore"`
	CompletedAt    *time.Time     `json:"completedAt"`
	OpenSlot       *string        `gorm:"type:varchar(36);uniqueIndex" json:"-"`
}

// RevisionSession 一次完成的复习
type RevisionSession struct {
	UUIDBase
	RevisionScheduleID   string `gorm:"type:varchar(36);uniqueIndex;not null" json:"revisionScheduleId"`
	ListenedAudioVersion *int   `json:"listenedAudioVersion"`
	Rerecorded           bool   `json:"rerecorded"`
	NewConfidenceScore   *int   `json:"newConfidenceScore"`
}
