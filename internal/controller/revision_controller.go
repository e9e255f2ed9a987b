package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// RevisionController 间隔复习
type RevisionController struct {
	RevisionService *service.RevisionService
}

func NewRevisionController(revisionService *service.RevisionService) *RevisionController {
	return &RevisionController{RevisionService: revisionService}
}

// Pending godoc
// @Summary 全部待复习项
// @Tags 复习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Router /api/v1/revisions/pending [get]
func (c *RevisionController) Pending(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	revisions, err := c.RevisionService.GetPendingRevisions(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"revisions":    revisions,
		"totalPending": len(revisions),
	})
}

// Today godoc
// @Summary 今日复习
// @Description 没有到期的复习项时先生成当日队列
// @Tags 复习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.RevisionSchedule} "成功"
// @Router /api/v1/revisions/today [get]
func (c *RevisionController) Today(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	revisions, err := c.RevisionService.GetTodayRevisions(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if len(revisions) == 0 {
		if _, err := c.RevisionService.GenerateDailyQueue(user.UserID); err != nil {
			util.HandleError(ctx, err)
			return
		}
		if revisions, err = c.RevisionService.GetTodayRevisions(user.UserID); err != nil {
			util.HandleError(ctx, err)
			return
		}
	}
	util.Success(ctx, revisions)
}

// Generate godoc
// @Summary 生成复习队列
// @Tags 复习
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.RevisionSchedule} "新生成的复习项"
// @Failure 402 {object} map[string]string "需要订阅"
// @Router /api/v1/revisions/generate [post]
func (c *RevisionController) Generate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	created, err := c.RevisionService.GenerateDailyQueue(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, created)
}

// CompleteRevisionRequest 完成复习请求
// swagger:model CompleteRevisionRequest
type CompleteRevisionRequest struct {
	ListenedVersion    *int `json:"listenedVersion"`
	Rerecorded         bool `json:"rerecorded"`
	NewConfidenceScore *int `json:"newConfidenceScore"`
}

// Complete godoc
// @Summary 完成复习
// @Tags 复习
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scheduleId path string true "复习项ID"
// @Param request body CompleteRevisionRequest true "复习结果"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "复习已完成"
// @Failure 402 {object} map[string]string "需要订阅"
// @Failure 403 {object} util.Response "不是自己的复习项"
// @Failure 404 {object} util.Response "复习项不存在"
// @Router /api/v1/revisions/{scheduleId}/complete [post]
func (c *RevisionController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteRevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.RevisionService.CompleteRevision(user.UserID, ctx.Param("scheduleId"), service.CompleteRevisionInput{
		ListenedAudioVersion: req.ListenedVersion,
		Rerecorded:           req.Rerecorded,
		NewConfidenceScore:   req.NewConfidenceScore,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"sessionId": result.Session.ID,
		"success":   true,
		"deltaDays": result.DeltaDays,
	})
}
