package controller

import (
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// PaymentController 支付下单与校验
type PaymentController struct {
	PaymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{PaymentService: paymentService}
}

// CreateOrderRequest 下单请求
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// Plans godoc
// @Summary 套餐列表
// @Tags 支付
// @Produce json
// @Success 200 {object} util.Response{data=[]service.PlanInfo} "成功"
// @Router /api/v1/payments/plans [get]
func (c *PaymentController) Plans(ctx *gin.Context) {
	util.Success(ctx, service.PlanCatalog())
}

// CreateOrder godoc
// @Summary 创建支付订单
// @Tags 支付
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateOrderRequest true "套餐 MONTHLY/QUARTERLY"
// @Success 200 {object} util.Response{data=service.OrderResult} "成功"
// @Failure 400 {object} util.Response "套餐不存在"
// @Failure 503 {object} util.Response "支付未配置"
// @Router /api/v1/payments/create-order [post]
func (c *PaymentController) CreateOrder(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	order, err := c.PaymentService.CreateOrder(ctx.Request.Context(), user.UserID, user.Email, req.Plan)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, order)
}

// Verify godoc
// @Summary 校验支付结果
// @Description 签名通过后激活订阅；重复校验已成功的支付直接返回成功
// @Tags 支付
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VerifyPaymentInput true "支付回传参数"
// @Success 200 {object} util.Response{data=service.VerifyResult} "成功"
// @Failure 400 {object} util.Response "签名错误"
// @Failure 404 {object} util.Response "订单不存在"
// @Router /api/v1/payments/verify [post]
func (c *PaymentController) Verify(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.VerifyPaymentInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PaymentService.Verify(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
