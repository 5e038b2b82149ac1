package repository

import (
	"context"
	"errors"
	"time"

	"digital-storefront/internal/fulfillment"
	"digital-storefront/internal/model"

	"gorm.io/gorm"
)

// ErrStateChanged is returned by Transition when the order is no longer in the
// expected source state.
var ErrStateChanged = errors.New("order state changed concurrently")

type OrderFilter struct {
	AccountID     string // empty lists every account
	TransactionID string
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByTransactionID(ctx context.Context, tx *gorm.DB, transactionID string) ([]*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, error)
	Transition(ctx context.Context, tx *gorm.DB, orderID string, from, to fulfillment.State, delivered *model.DeliveredContent) error
	Delete(ctx context.Context, orderID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByTransactionID(ctx context.Context, tx *gorm.DB, transactionID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.AccountID != "" {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.TransactionID != "" {
		query = query.Where("transaction_id = ?", filter.TransactionID)
	}

	var orders []*model.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// Transition moves an order from one state to another with a single
// conditional update. Delivered content is written only when given.
func (r *orderRepoImpl) Transition(
	ctx context.Context,
	tx *gorm.DB,
	orderID string,
	from, to fulfillment.State,
	delivered *model.DeliveredContent,
) error {
	updates := map[string]interface{}{
		"status":         to.Status,
		"payment_status": to.Payment,
		"updated_at":     time.Now(),
	}
	if delivered != nil {
		updates["delivered_account_email"] = delivered.AccountEmail
		updates["delivered_account_password"] = delivered.AccountPassword
		updates["delivered_access_notes"] = delivered.AccessNotes
		updates["delivered_download_link"] = delivered.DownloadLink
	}

	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND payment_status = ?
		`,
			orderID,
			from.Status,
			from.Payment,
		).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}

	return nil
}

func (r *orderRepoImpl) Delete(ctx context.Context, orderID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&model.Order{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
