package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AnalyticsController 学习数据统计
type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// WeeklyProgress godoc
// @Summary 每日完成数
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param days query int false "天数，默认 30，最大 365"
// @Success 200 {object} util.Response{data=[]service.DailyProgress} "成功"
// @Router /api/v1/analytics/weekly-progress [get]
func (c *AnalyticsController) WeeklyProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days := util.ParseIntDefault(ctx.Query("days"), 30)
	progress, err := c.AnalyticsService.WeeklyProgress(user.UserID, days)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// PatternProgress godoc
// @Summary 各模式完成度
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.PatternProgress} "成功"
// @Router /api/v1/analytics/pattern-progress [get]
func (c *AnalyticsController) PatternProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.AnalyticsService.PatternProgress(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// Streak godoc
// @Summary 连续打卡
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.StreakData} "成功"
// @Router /api/v1/analytics/streak [get]
func (c *AnalyticsController) Streak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	streak, err := c.AnalyticsService.Streak(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, streak)
}

// Summary godoc
// @Summary 统计汇总
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AnalyticsSummary} "成功"
// @Router /api/v1/analytics/summary [get]
func (c *AnalyticsController) Summary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.AnalyticsService.Summary(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
