package model

import "time"

type UserQuestionStatus string

const (
	StatusNotStarted UserQuestionStatus = "NOT_STARTED"
	StatusStarted    UserQuestionStatus = "STARTED"
	StatusDone       UserQuestionStatus = "DONE"
)

// UserQuestion 用户做题进度，(user_id, question_id) 唯一
type UserQuestion struct {
	UUIDBase
	UserID                string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_question" json:"userId"`
	QuestionID            string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_question" json:"questionId"`
	Question              *Question          `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	Status                UserQuestionStatus `gorm:"size:20;not null;default:NOT_STARTED;index" json:"status"`
	ConfidenceScore       *int               `json:"confidenceScore"`
	StartedAt             *time.Time         `json:"startedAt"`
	DoneAt                *time.Time         `gorm:"index" json:"doneAt"`
	SolvedDurationSeconds *int64             `json:"solvedDurationSeconds"`
}

// Solution 代码提交，只追加
type Solution struct {
	UUIDBase
	UserQuestionID string `gorm:"type:varchar(36);index;not null" json:"userQuestionId"`
	Code           string `gorm:"type:text" json:"code"`
	Language       string `gorm:"size:50" json:"language"`
	LeetcodeLink   string `gorm:"size:500" json:"leetcodeLink"`
	IsOptimal      bool   `json:"isOptimal"`
}

type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "PENDING"
	AnalysisProcessing AnalysisStatus = "PROCESSING"
	AnalysisCompleted  AnalysisStatus = "COMPLETED"
	AnalysisFailed     AnalysisStatus = "FAILED"
)

// ExplanationRecording 讲解录音，版本号在同一 user_question 下从 1 递增
type ExplanationRecording struct {
	UUIDBase
	UserQuestionID  string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_recording_version" json:"userQuestionId"`
	Version         int            `gorm:"not null;uniqueIndex:idx_recording_version" json:"version"`
	AudioURL        string         `gorm:"size:1000" json:"audioUrl"`
	Transcript      string         `gorm:"type:text" json:"transcript"`
	DurationSeconds int            `json:"durationSeconds"`
	RecordedAt      time.Time      `json:"recordedAt"`
	AnalysisStatus  AnalysisStatus `gorm:"size:20;not null;default:PENDING" json:"analysisStatus"`
}

type FeedbackType string

const (
	FeedbackHint               FeedbackType = "HINT"
	FeedbackReflectionQuestion FeedbackType = "REFLECTION_QUESTION"
	FeedbackCommunicationTip   FeedbackType = "COMMUNICATION_TIP"
)

// AIFeedback AI 点评
type AIFeedback struct {
	UUIDBase
	UserQuestionID string       `gorm:"type:varchar(36);index;not null" json:"userQuestionId"`
	RecordingID    *string      `gorm:"type:varchar(36);index" json:"recordingId"`
	Type           FeedbackType `gorm:"column:feedback_type;size:30;not null" json:"type"`
	Message        string       `gorm:"type:text" json:"message"`
}

func (AIFeedback) TableName() string {
	return "ai_feedback"
}
