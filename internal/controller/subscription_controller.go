package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{SubscriptionService: subscriptionService}
}

// Status godoc
// @Summary 订阅状态
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.SubscriptionStatusView} "成功"
// @Router /api/v1/subscription [get]
func (c *SubscriptionController) Status(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.SubscriptionService.Status(user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// Cancel godoc
// @Summary 取消订阅
// @Description 取消后到期前仍可使用
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "没有生效中的订阅"
// @Router /api/v1/subscription/cancel [post]
func (c *SubscriptionController) Cancel(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.SubscriptionService.Cancel(ctx.Request.Context(), user.UserID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "Subscription cancelled"})
}

// Active godoc
// @Summary 订阅是否有效
// @Tags 订阅
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ActiveStatus} "成功"
// @Router /api/v1/subscription/active [get]
func (c *SubscriptionController) Active(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.SubscriptionService.IsActive(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, status)
}
