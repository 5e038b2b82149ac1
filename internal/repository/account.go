package repository

import (
	"context"
	"errors"
	"time"

	"digital-storefront/internal/model"

	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *model.Account) error
	FindByID(ctx context.Context, accountID string) (*model.Account, error)
	FindMany(ctx context.Context, accountIDs []string) ([]*model.Account, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Account, error)
	SetPhoneIfMissing(ctx context.Context, tx *gorm.DB, accountID, phone string) (bool, error)
}

type accountRepoImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepoImpl{
		db: db,
	}
}

func (r *accountRepoImpl) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	return conn(r.db, tx).WithContext(ctx).Create(account).Error
}

func (r *accountRepoImpl) FindByID(ctx context.Context, accountID string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).
		Where("id = ?", accountID).
		First(&account).Error
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *accountRepoImpl) FindMany(ctx context.Context, accountIDs []string) ([]*model.Account, error) {
	var accounts []*model.Account
	if len(accountIDs) == 0 {
		return accounts, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", accountIDs).
		Find(&accounts).
		Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// FindByEmailOrPhone prefers the e-mail match; the phone is only consulted when
// no account owns the e-mail. Returns gorm.ErrRecordNotFound when neither matches.
func (r *accountRepoImpl) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Account, error) {
	var account model.Account
	if email != "" {
		err := r.db.WithContext(ctx).
			Where("email = ?", email).
			First(&account).Error
		if err == nil {
			return &account, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if phone == "" {
		return nil, gorm.ErrRecordNotFound
	}

	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&account).Error
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// SetPhoneIfMissing only touches accounts without a phone. A uniqueness
// violation surfaces as gorm.ErrDuplicatedKey.
func (r *accountRepoImpl) SetPhoneIfMissing(ctx context.Context, tx *gorm.DB, accountID, phone string) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND (phone IS NULL OR phone = '')", accountID).
		Updates(map[string]interface{}{
			"phone":      phone,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
