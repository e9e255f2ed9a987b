package repository

import (
	"rewind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: tx}
}

func (r *PaymentRepository) Create(payment *model.Payment) error {
	return r.DB.Create(payment).Error
}

func (r *PaymentRepository) Save(payment *model.Payment) error {
	return r.DB.Save(payment).Error
}

// FindByOrderIDForUpdate 在事务内对支付行加锁，同一订单的回调串行处理
func (r *PaymentRepository) FindByOrderIDForUpdate(orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByPaymentIDForUpdate(paymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_payment_id = ?", paymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) HasSuccess(userID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Payment{}).
		Where("user_id = ? AND status = ?", userID, model.PaymentSuccess).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepository) ListByUser(userID string) ([]model.Payment, error) {
	var list []model.Payment
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *PaymentRepository) CreateWebhookEvent(event *model.PaymentWebhookEvent) error {
	return r.DB.Create(event).Error
}
