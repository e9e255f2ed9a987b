package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"rewind_backend/internal/model"
	"rewind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func webhookBody(event, orderID, paymentID string) []byte {
	switch event {
	case EventRefundCreated:
		return []byte(fmt.Sprintf(`{"event":%q,"payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":%q}}}}`, event, paymentID))
	default:
		return []byte(fmt.Sprintf(`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"error_description":"card declined"}}}}`, event, paymentID, orderID))
	}
}

func (e *testEnv) sendWebhook(body []byte) error {
	return e.payments.HandleWebhook(context.Background(), body, sign(testCredentials.WebhookSecret, string(body)))
}

func (e *testEnv) subscriptionsOf(t *testing.T, userID string) []model.Subscription {
	t.Helper()
	var list []model.Subscription
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error)
	return list
}

// sign 模拟 Razorpay 侧的 HMAC-SHA256 签名
func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureHelpers(t *testing.T) {
	sig := sign("secret", "order_1|pay_1")
	assert.True(t, validPaymentSignature("secret", "order_1", "pay_1", sig))
	assert.False(t, validPaymentSignature("secret", "order_1", "pay_2", sig))
	assert.False(t, validPaymentSignature("", "order_1", "pay_1", sig))
	assert.False(t, validPaymentSignature("secret", "order_1", "pay_1", ""))

	body := []byte(`{"event":"payment.captured"}`)
	hook := sign("hook", string(body))
	assert.True(t, validWebhookSignature("hook", body, hook))
	assert.False(t, validWebhookSignature("hook", []byte(`{"event":"payment.failed"}`), hook))
	assert.False(t, validWebhookSignature("", body, sign("", string(body))))
}

func TestPlanForAmount(t *testing.T) {
	plan, err := planForAmount(14900)
	require.NoError(t, err)
	assert.Equal(t, model.PlanMonthly, plan)

	plan, err = planForAmount(29900)
	require.NoError(t, err)
	assert.Equal(t, model.PlanQuarterly, plan)

	_, err = planForAmount(0)
	assert.ErrorIs(t, err, util.ErrInvalidPlan)
}

func TestTrialPurchaseAndWebhookReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.accounts.Provision("user-1", "user-1@example.com", "User One")
	require.NoError(t, err)

	subs := env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 1)
	assert.Equal(t, model.PlanTrial, subs[0].Plan)
	assert.Equal(t, model.SubscriptionActive, subs[0].Status)
	assert.True(t, subs[0].ExpiresAt.Equal(testNow.AddDate(0, 0, 14)))

	order, err := env.payments.CreateOrder(ctx, "user-1", "user-1@example.com", string(model.PlanMonthly))
	require.NoError(t, err)
	assert.EqualValues(t, 14900, order.Amount)
	assert.Equal(t, CurrencyINR, order.Currency)
	assert.Equal(t, testCredentials.KeyID, order.KeyID)
	assert.Equal(t, []int64{14900}, env.gateway.amounts)

	payment, err := env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, payment.Status)

	result, err := env.payments.Verify(ctx, "user-1", VerifyPaymentInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: sign(testCredentials.KeySecret, order.OrderID+"|pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.SubscriptionID)

	subs = env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 2)
	assert.Equal(t, model.SubscriptionExpired, subs[0].Status)
	assert.Nil(t, subs[0].ActiveSlot)
	assert.Equal(t, model.PlanMonthly, subs[1].Plan)
	assert.Equal(t, model.SubscriptionActive, subs[1].Status)
	assert.Equal(t, *result.SubscriptionID, subs[1].ID)
	assert.True(t, subs[1].ExpiresAt.Equal(testNow.AddDate(0, 0, 30)))

	payment, err = env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, subs[1].ID, *payment.SubscriptionID)

	// 重复的 captured 回调不产生新订阅
	require.NoError(t, env.sendWebhook(webhookBody(EventPaymentCaptured, order.OrderID, "pay_1")))
	assert.Len(t, env.subscriptionsOf(t, "user-1"), 2)

	// 重复校验返回已有结果
	again, err := env.payments.Verify(ctx, "user-1", VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "ignored"})
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Equal(t, *result.SubscriptionID, *again.SubscriptionID)

	status, err := env.subscriptions.IsActive(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, 30, status.DaysRemaining)

	view, err := env.subscriptions.Status("user-1")
	require.NoError(t, err)
	assert.Equal(t, string(model.PlanMonthly), view.Plan)
	assert.False(t, view.IsTrial)
	assert.False(t, view.CanUpgrade)

	// 退款取消订阅，到期时间不变
	require.NoError(t, env.sendWebhook(webhookBody(EventRefundCreated, "", "pay_1")))

	payment, err = env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, payment.Status)

	subs = env.subscriptionsOf(t, "user-1")
	assert.Equal(t, model.SubscriptionCancelled, subs[1].Status)
	assert.False(t, subs[1].AutoRenew)
	assert.True(t, subs[1].ExpiresAt.Equal(testNow.AddDate(0, 0, 30)))

	assert.EqualValues(t, 2, env.count(t, &model.PaymentWebhookEvent{}, "signature_valid = ?", true))

	_, err = env.payments.Verify(ctx, "user-1", VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "x"})
	assert.ErrorIs(t, err, util.ErrPaymentClosed)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.accounts.Provision("user-1", "user-1@example.com", "User One")
	require.NoError(t, err)

	order, err := env.payments.CreateOrder(ctx, "user-1", "user-1@example.com", string(model.PlanQuarterly))
	require.NoError(t, err)

	_, err = env.payments.Verify(ctx, "user-2", VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "bad"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.payments.Verify(ctx, "user-1", VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_1", Signature: "bad"})
	assert.ErrorIs(t, err, util.ErrSignatureInvalid)

	payment, err := env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, signatureFailureReason, payment.FailureReason)

	// 试用不受影响
	subs := env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 1)
	assert.Equal(t, model.SubscriptionActive, subs[0].Status)

	_, err = env.payments.Verify(ctx, "user-1", VerifyPaymentInput{OrderID: "order_missing", PaymentID: "p", Signature: "s"})
	assert.ErrorIs(t, err, util.ErrPaymentNotFound)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.payments.CreateOrder(ctx, "user-1", "", string(model.PlanTrial))
	assert.ErrorIs(t, err, util.ErrInvalidPlan)

	_, err = env.payments.CreateOrder(ctx, "user-1", "", "WEEKLY")
	assert.ErrorIs(t, err, util.ErrInvalidPlan)

	env.payments.Gateway = nil
	_, err = env.payments.CreateOrder(ctx, "user-1", "", string(model.PlanMonthly))
	assert.ErrorIs(t, err, util.ErrPaymentsDisabled)
	assert.Zero(t, env.gateway.orders)
}

func TestWebhookCapturedActivatesSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.accounts.Provision("user-1", "user-1@example.com", "User One")
	require.NoError(t, err)

	order, err := env.payments.CreateOrder(ctx, "user-1", "user-1@example.com", string(model.PlanQuarterly))
	require.NoError(t, err)

	require.NoError(t, env.sendWebhook(webhookBody(EventPaymentCaptured, order.OrderID, "pay_9")))

	subs := env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 2)
	assert.Equal(t, model.PlanQuarterly, subs[1].Plan)
	assert.Equal(t, model.SubscriptionActive, subs[1].Status)
	assert.True(t, subs[1].ExpiresAt.Equal(testNow.AddDate(0, 0, 90)))

	payment, err := env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	require.NotNil(t, payment.ExternalPaymentID)
	assert.Equal(t, "pay_9", *payment.ExternalPaymentID)
}

func TestWebhookFailedAndRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.payments.CreateOrder(ctx, "user-1", "", string(model.PlanMonthly))
	require.NoError(t, err)

	body := webhookBody(EventPaymentFailed, order.OrderID, "pay_2")
	err = env.payments.HandleWebhook(ctx, body, "forged")
	assert.ErrorIs(t, err, util.ErrSignatureInvalid)
	assert.EqualValues(t, 1, env.count(t, &model.PaymentWebhookEvent{}, "signature_valid = ?", false))

	payment, err := env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, payment.Status)

	require.NoError(t, env.sendWebhook(body))
	payment, err = env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, "card declined", payment.FailureReason)

	// 未知订单与未处理的事件类型只记录不报错
	require.NoError(t, env.sendWebhook(webhookBody(EventPaymentCaptured, "order_unknown", "pay_3")))
	require.NoError(t, env.sendWebhook([]byte(`{"event":"order.paid","payload":{}}`)))
	// 签名正确但无法解析的投递不再重试
	require.NoError(t, env.sendWebhook([]byte(`not json`)))
	assert.EqualValues(t, 5, env.count(t, &model.PaymentWebhookEvent{}, "1 = 1"))
}

func TestTrialRules(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.accounts.Provision("user-1", "a@example.com", "A")
	require.NoError(t, err)
	_, err = env.accounts.Provision("user-1", "a@example.com", "A")
	require.NoError(t, err)
	assert.Len(t, env.subscriptionsOf(t, "user-1"), 1)

	// 已有成功支付的用户只记录一条过期的试用
	orderID := "order_paid"
	require.NoError(t, env.payRepo.Create(&model.Payment{
		UserID:          "user-2",
		AmountPaise:     14900,
		Currency:        CurrencyINR,
		Plan:            model.PlanMonthly,
		ExternalOrderID: &orderID,
		Status:          model.PaymentSuccess,
	}))
	require.NoError(t, env.subscriptions.EnsureTrial(env.db, "user-2"))

	subs := env.subscriptionsOf(t, "user-2")
	require.Len(t, subs, 1)
	assert.Equal(t, model.SubscriptionExpired, subs[0].Status)

	status, err := env.subscriptions.IsActive(context.Background(), "user-2")
	require.NoError(t, err)
	assert.False(t, status.Active)

	view, err := env.subscriptions.Status("user-2")
	require.NoError(t, err)
	assert.False(t, view.Active)
	assert.True(t, view.CanUpgrade)

	none, err := env.subscriptions.Status("user-3")
	require.NoError(t, err)
	assert.Equal(t, PlanNone, none.Plan)
}

func TestCancelAndReaper(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.subscriptions.Cancel(ctx, "user-1")
	assert.ErrorIs(t, err, util.ErrNoActiveSubscription)

	_, err = env.accounts.Provision("user-1", "a@example.com", "A")
	require.NoError(t, err)
	require.NoError(t, env.subscriptions.Cancel(ctx, "user-1"))

	subs := env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 1)
	assert.Equal(t, model.SubscriptionCancelled, subs[0].Status)

	// 取消后到期前仍然有效
	status, err := env.subscriptions.IsActive(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, status.Active)

	lapsed := &model.Subscription{
		UserID:    "user-2",
		Plan:      model.PlanMonthly,
		Status:    model.SubscriptionActive,
		StartsAt:  testNow.AddDate(0, 0, -31),
		ExpiresAt: testNow.Add(-time.Hour),
	}
	require.NoError(t, env.subRepo.Create(lapsed))

	count, err := env.subscriptions.ExpireDue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	subs = env.subscriptionsOf(t, "user-2")
	require.Len(t, subs, 1)
	assert.Equal(t, model.SubscriptionExpired, subs[0].Status)
	assert.Nil(t, subs[0].ActiveSlot)

	status, err = env.subscriptions.IsActive(ctx, "user-2")
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.Zero(t, status.DaysRemaining)
}

func TestDaysRemaining(t *testing.T) {
	assert.Equal(t, 0, daysRemaining(testNow.Add(-time.Minute), testNow))
	assert.Equal(t, 1, daysRemaining(testNow.Add(time.Hour), testNow))
	assert.Equal(t, 14, daysRemaining(testNow.AddDate(0, 0, 14), testNow))
}

func TestConcurrentVerifyAndCapturedWebhook(t *testing.T) {
	env := newSerializedTestEnv(t)
	ctx := context.Background()
	_, err := env.accounts.Provision("user-1", "user-1@example.com", "User One")
	require.NoError(t, err)

	order, err := env.payments.CreateOrder(ctx, "user-1", "user-1@example.com", string(model.PlanMonthly))
	require.NoError(t, err)
	input := VerifyPaymentInput{
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: sign(testCredentials.KeySecret, order.OrderID+"|pay_1"),
	}
	body := webhookBody(EventPaymentCaptured, order.OrderID, "pay_1")

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := env.payments.Verify(ctx, "user-1", input)
			return err
		})
		g.Go(func() error {
			return env.sendWebhook(body)
		})
	}
	require.NoError(t, g.Wait())

	// 试用订阅被置为过期，只新建一条付费订阅
	subs := env.subscriptionsOf(t, "user-1")
	require.Len(t, subs, 2)
	assert.EqualValues(t, 1, env.count(t, &model.Subscription{}, "user_id = ? AND status = ?",
		"user-1", model.SubscriptionActive))

	payment, err := env.payRepo.FindByOrderIDForUpdate(order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, payment.Status)
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, subs[1].ID, *payment.SubscriptionID)
	assert.Equal(t, model.PlanMonthly, subs[1].Plan)
	assert.EqualValues(t, 4, env.count(t, &model.PaymentWebhookEvent{}, "external_order_id = ?", order.OrderID))
}
