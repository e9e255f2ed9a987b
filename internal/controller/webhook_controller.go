package controller

import (
	"errors"
	"io"
	"net/http"
	"rewind_backend/internal/service"
	"rewind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

type WebhookController struct {
	PaymentService *service.PaymentService
}

func NewWebhookController(paymentService *service.PaymentService) *WebhookController {
	return &WebhookController{PaymentService: paymentService}
}

// Razorpay godoc
// @Summary Razorpay 支付回调
// @Description 以 X-Razorpay-Signature 校验原始请求体
// @Tags 支付
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "回调签名"
// @Success 200 {object} map[string]string "ok"
// @Failure 401 {object} map[string]string "签名错误"
// @Router /api/v1/webhooks/razorpay [post]
func (c *WebhookController) Razorpay(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		util.BadRequest(ctx, "invalid body")
		return
	}

	err = c.PaymentService.HandleWebhook(ctx.Request.Context(), body, ctx.GetHeader("X-Razorpay-Signature"))
	switch {
	case errors.Is(err, util.ErrSignatureInvalid):
		ctx.JSON(http.StatusUnauthorized, gin.H{"status": "invalid signature"})
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
