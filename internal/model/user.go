package model

// DefaultTargetDays 新用户默认的面试准备天数
const DefaultTargetDays = 90

// User 用户，ID 与身份提供方的 sub 一致
type User struct {
	UUIDBase
	Email                string  `gorm:"size:255;index" json:"email"`
	Name                 string  `gorm:"size:255" json:"name"`
	InterviewTargetDays  int     `gorm:"not null;default:90" json:"interviewTargetDays"`
	CurrentReadinessDays float64 `gorm:"not null;default:90" json:"currentReadinessDays"`
	// 乐观锁版本号
	Version int64 `gorm:"not null;default:0" json:"-"`
}
