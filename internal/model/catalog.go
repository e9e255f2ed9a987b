package model

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Pattern 算法模式（如滑动窗口），种子数据，初始化后不再修改
type Pattern struct {
	UUIDBase
	Name             string  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Category         string  `gorm:"size:100" json:"category"`
	ImportanceWeight float64 `gorm:"default:1" json:"importanceWeight"`
	MentalModel      string  `gorm:"type:text" json:"mentalModel"`
}

// Question 题目
type Question struct {
	UUIDBase
	Title       string   `gorm:"size:255;not null" json:"title"`
	Difficulty  string   `gorm:"size:10;index;not null" json:"difficulty"`
	LeetcodeURL string   `gorm:"size:500" json:"leetcodeUrl"`
	TimeMinutes int      `json:"timeMinutes"`
	OrderIndex  int      `gorm:"uniqueIndex;not null" json:"orderIndex"`
	PatternID   string   `gorm:"type:varchar(36);index;not null" json:"patternId"`
	Pattern     *Pattern `gorm:"foreignKey:PatternID" json:"pattern,omitempty"`
}
