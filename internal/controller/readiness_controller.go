package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReadinessController struct {
	ReadinessService *service.ReadinessService
}

func NewReadinessController(readinessService *service.ReadinessService) *ReadinessController {
	return &ReadinessController{ReadinessService: readinessService}
}

// Get godoc
// @Summary 面试准备度
// @Description 剩余天数、完成度、趋势、薄弱模式与最近变化
// @Tags 准备度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ReadinessReport} "成功"
// @Failure 402 {object} map[string]string "需要订阅"
// @Router /api/v1/readiness [get]
func (c *ReadinessController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReadinessService.GetReadiness(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
