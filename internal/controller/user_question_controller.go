package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserQuestionController 用户做题进度
type UserQuestionController struct {
	UserQuestionService *service.UserQuestionService
}

func NewUserQuestionController(userQuestionService *service.UserQuestionService) *UserQuestionController {
	return &UserQuestionController{UserQuestionService: userQuestionService}
}

// List godoc
// @Summary 我的做题记录
// @Tags 做题进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.UserQuestion} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/v1/user-questions [get]
func (c *UserQuestionController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.UserQuestionService.List(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// StatusMap godoc
// @Summary 题目状态映射
// @Description 返回 questionId -> status
// @Tags 做题进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]string} "成功"
// @Router /api/v1/user-questions/status-map [get]
func (c *UserQuestionController) StatusMap(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	statuses, err := c.UserQuestionService.StatusMap(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, statuses)
}

// Activity godoc
// @Summary 做题热力图
// @Description 近 365 天每日完成数，key 为 yyyy-mm-dd
// @Tags 做题进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]int} "成功"
// @Router /api/v1/user-questions/activity [get]
func (c *UserQuestionController) Activity(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	activity, err := c.UserQuestionService.Activity(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, activity)
}

// Start godoc
// @Summary 开始做题
// @Description 重复调用返回已有记录
// @Tags 做题进度
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=model.UserQuestion} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/v1/user-questions/{questionId}/start [post]
func (c *UserQuestionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	uq, err := c.UserQuestionService.Start(user.UserID, ctx.Param("questionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, uq)
}

// History godoc
// @Summary 题目历史
// @Description 返回做题记录、全部代码提交与录音，按时间倒序
// @Tags 做题进度
// @Produce json
// @Security BearerAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=service.QuestionHistory} "成功"
// @Failure 404 {object} util.Response "没有做题记录"
// @Router /api/v1/user-questions/{questionId}/history [get]
func (c *UserQuestionController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.UserQuestionService.History(user.UserID, ctx.Param("questionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// Reset godoc
// @Summary 重置做题进度
// @Description 清空全部做题、复习、录音和点评记录，剩余天数恢复为目标天数
// @Tags 做题进度
// @Security BearerAuth
// @Success 204 "已重置"
// @Router /api/v1/user-questions/reset [delete]
func (c *UserQuestionController) Reset(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.UserQuestionService.ResetProgress(user.UserID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.NoContent(ctx)
}
