package util

import (
	"math"
	"strconv"
	"time"
)

// Round2 四舍五入保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DaysBetween 两个时间点之间的天数（带小数）
func DaysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// ParseIntDefault 解析整数，失败时返回默认值
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
