package service

import (
	"rewind_backend/internal/repository"
	"rewind_backend/internal/util"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultProgressDays = 30
	maxProgressDays     = 365
)

type DailyProgress struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type PatternProgress struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	Completed       int    `json:"completed"`
	Total           int64  `json:"total"`
	PercentComplete int    `json:"percentComplete"`
}

type StreakData struct {
	CurrentStreak  int     `json:"currentStreak"`
	LongestStreak  int     `json:"longestStreak"`
	TotalCompleted int     `json:"totalCompleted"`
	LastActive     *string `json:"lastActive"`
}

type AnalyticsSummary struct {
	WeeklyProgress  []DailyProgress   `json:"weeklyProgress"`
	PatternProgress []PatternProgress `json:"patternProgress"`
	Streak          *StreakData       `json:"streak"`
}

type AnalyticsService struct {
	UQRepo       *repository.UserQuestionRepository
	QuestionRepo *repository.QuestionRepository
	StatsRepo    *repository.PatternStatsRepository
}

func NewAnalyticsService(
	uqRepo *repository.UserQuestionRepository,
	questionRepo *repository.QuestionRepository,
	statsRepo *repository.PatternStatsRepository,
) *AnalyticsService {
	return &AnalyticsService{UQRepo: uqRepo, QuestionRepo: questionRepo, StatsRepo: statsRepo}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeeklyProgress 最近 days 天（含今天）每日完成数，没有完成的日期计 0
func (s *AnalyticsService) WeeklyProgress(userID string, days int) ([]DailyProgress, error) {
	if days <= 0 {
		days = defaultProgressDays
	}
	if days > maxProgressDays {
		days = maxProgressDays
	}

	first := startOfDay(nowFunc()).AddDate(0, 0, -(days - 1))
	done, err := s.UQRepo.ListDoneSince(userID, first)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int)
	for _, uq := range done {
		if uq.DoneAt != nil {
			byDay[uq.DoneAt.UTC().Format(util.DateFormat)]++
		}
	}

	result := make([]DailyProgress, 0, days)
	for i := 0; i < days; i++ {
		date := first.AddDate(0, 0, i).Format(util.DateFormat)
		result = append(result, DailyProgress{Date: date, Count: byDay[date]})
	}
	return result, nil
}

// PatternProgress 各模式完成度，完成率低的排在前面
func (s *AnalyticsService) PatternProgress(userID string) ([]PatternProgress, error) {
	patterns, err := s.QuestionRepo.ListPatterns()
	if err != nil {
		return nil, err
	}
	totals, err := s.QuestionRepo.CountGroupedByPattern()
	if err != nil {
		return nil, err
	}
	stats, err := s.StatsRepo.MapByUser(userID)
	if err != nil {
		return nil, err
	}

	result := make([]PatternProgress, 0, len(patterns))
	for _, p := range patterns {
		total := totals[p.ID]
		if total == 0 {
			continue
		}
		completed := stats[p.ID].QuestionsCompleted
		result = append(result, PatternProgress{
			Name:            p.Name,
			Category:        p.Category,
			Completed:       completed,
			Total:           total,
			PercentComplete: int(int64(completed) * 100 / total),
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].PercentComplete < result[j].PercentComplete
	})
	return result, nil
}

func (s *AnalyticsService) Streak(userID string) (*StreakData, error) {
	done, err := s.UQRepo.ListDone(userID)
	if err != nil {
		return nil, err
	}
	if len(done) == 0 {
		return &StreakData{}, nil
	}

	active := make(map[string]bool)
	for _, uq := range done {
		if uq.DoneAt != nil {
			active[uq.DoneAt.UTC().Format(util.DateFormat)] = true
		}
	}

	today := startOfDay(nowFunc())
	current := 0
	for active[today.AddDate(0, 0, -current).Format(util.DateFormat)] {
		current++
	}

	dates := make([]string, 0, len(active))
	for d := range active {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	longest, run := 0, 0
	var prev time.Time
	for i, d := range dates {
		day, _ := time.Parse(util.DateFormat, d)
		if i > 0 && day.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
	}

	streak := &StreakData{
		CurrentStreak:  current,
		LongestStreak:  longest,
		TotalCompleted: len(done),
	}
	if len(dates) > 0 {
		last := dates[len(dates)-1]
		streak.LastActive = &last
	}
	return streak, nil
}

// Summary 仪表盘数据，三部分并发查询
func (s *AnalyticsService) Summary(userID string) (*AnalyticsSummary, error) {
	var summary AnalyticsSummary
	var g errgroup.Group

	g.Go(func() error {
		weekly, err := s.WeeklyProgress(userID, 7)
		summary.WeeklyProgress = weekly
		return err
	})
	g.Go(func() error {
		patterns, err := s.PatternProgress(userID)
		summary.PatternProgress = patterns
		return err
	})
	g.Go(func() error {
		streak, err := s.Streak(userID)
		summary.Streak = streak
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}
