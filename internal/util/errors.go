package util

import (
	"errors"
	"net/http"
)

// AppError 带 HTTP 状态码与机器可读错误码的业务错误
type AppError struct {
	Status int
	Code   string
	Err    error
}

func (e *AppError) Error() string {
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Err: errors.New(message)}
}

var (
	ErrUserNotFound         = newAppError(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	ErrQuestionNotFound     = newAppError(http.StatusNotFound, "QUESTION_NOT_FOUND", "question not found")
	ErrUserQuestionNotFound = newAppError(http.StatusNotFound, "USER_QUESTION_NOT_FOUND", "user question not found")
	ErrRecordingNotFound    = newAppError(http.StatusNotFound, "RECORDING_NOT_FOUND", "recording not found")
	ErrScheduleNotFound     = newAppError(http.StatusNotFound, "SCHEDULE_NOT_FOUND", "revision schedule not found")
	ErrPaymentNotFound      = newAppError(http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found")

	ErrUnauthorized     = newAppError(http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrPermissionDenied = newAppError(http.StatusForbidden, "FORBIDDEN", "permission denied")

	ErrInvalidPlan          = newAppError(http.StatusBadRequest, "INVALID_PLAN", "invalid plan")
	ErrSolutionRequired     = newAppError(http.StatusBadRequest, "SOLUTION_REQUIRED", "submit a solution before recording an explanation")
	ErrQuestionNotStarted   = newAppError(http.StatusBadRequest, "QUESTION_NOT_STARTED", "question has not been started")
	ErrScheduleClosed       = newAppError(http.StatusBadRequest, "SCHEDULE_CLOSED", "revision already completed")
	ErrInvalidConfidence    = newAppError(http.StatusBadRequest, "INVALID_CONFIDENCE", "confidence score must be between 1 and 5")
	ErrNoActiveSubscription = newAppError(http.StatusBadRequest, "NO_ACTIVE_SUBSCRIPTION", "no active subscription")
	ErrPaymentClosed        = newAppError(http.StatusBadRequest, "PAYMENT_CLOSED", "payment can no longer be verified")
	ErrSignatureInvalid     = newAppError(http.StatusBadRequest, "SIGNATURE_INVALID", "signature verification failed")
	ErrUnsupportedMedia     = newAppError(http.StatusBadRequest, "UNSUPPORTED_MEDIA", "unsupported audio content type")

	ErrSubscriptionRequired = newAppError(http.StatusPaymentRequired, "SUBSCRIPTION_REQUIRED", "subscription required")

	ErrConcurrentUpdate = newAppError(http.StatusConflict, "CONCURRENT_UPDATE", "concurrent update, please retry")
	ErrPaymentsDisabled = newAppError(http.StatusServiceUnavailable, "PAYMENTS_DISABLED", "payments are not configured")
)
