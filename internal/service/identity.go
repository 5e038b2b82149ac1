package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityResolver turns checkout contact details into an account id. It
// never locks: concurrent first purchases under the same e-mail race on the
// unique index and the loser re-reads the winner's row.
type IdentityResolver interface {
	Resolve(ctx context.Context, name, email, phone string) (string, error)
}

type identityResolverImpl struct {
	accountRepo repository.AccountRepository
	log         *log.Helper
}

func NewIdentityResolver(accountRepo repository.AccountRepository, logger log.Logger) IdentityResolver {
	return &identityResolverImpl{
		accountRepo: accountRepo,
		log:         log.NewHelper(log.With(logger, "module", "service/identity")),
	}
}

func normalizeContact(name, email, phone string) (string, string, string) {
	return strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(phone)
}

func (s *identityResolverImpl) Resolve(ctx context.Context, name, email, phone string) (string, error) {
	name, email, phone = normalizeContact(name, email, phone)
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	// a bare address only; display-name forms would be stored verbatim
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", apperr.Validation("email %q is not a valid address", email)
	}

	existing, err := s.accountRepo.FindByEmailOrPhone(ctx, email, phone)
	switch {
	case err == nil:
		s.attachPhone(ctx, existing, phone)
		return existing.ID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.log.Errorf("find account by email or phone: %v", err)
		return "", apperr.Persistence(err)
	}

	id, err := s.create(ctx, name, email, phone)
	if err == nil {
		return id, nil
	}
	if !apperr.IsConflict(err) {
		return "", err
	}

	// lost the race to a concurrent checkout; the winner's row is now visible
	winner, err := s.accountRepo.FindByEmailOrPhone(ctx, email, phone)
	if err != nil {
		s.log.Errorf("re-read account after conflict for %s: %v", email, err)
		return "", apperr.Persistence(err)
	}
	return winner.ID, nil
}

func (s *identityResolverImpl) create(ctx context.Context, name, email, phone string) (string, error) {
	hash, err := auth.HashPassword(auth.DefaultPasswordFor(email))
	if err != nil {
		return "", apperr.Validation("cannot derive default password: %v", err)
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	}
	if phone != "" {
		account.Phone = &phone
	}

	err = s.accountRepo.Create(ctx, nil, account)
	switch {
	case err == nil:
		s.log.Infof("created account %s at checkout", account.ID)
		return account.ID, nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "", apperr.Conflict(err)
	default:
		s.log.Errorf("create account: %v", err)
		return "", apperr.Persistence(err)
	}
}

// attachPhone is best effort: the order goes through whether or not the phone
// could be stored.
func (s *identityResolverImpl) attachPhone(ctx context.Context, account *model.Account, phone string) {
	if phone == "" || account.HasPhone() {
		return
	}

	updated, err := s.accountRepo.SetPhoneIfMissing(ctx, nil, account.ID, phone)
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		s.log.Warnf("phone already belongs to another account, keeping %s without it", account.ID)
	case err != nil:
		s.log.Warnf("attach phone to account %s: %v", account.ID, err)
	case updated:
		account.Phone = &phone
	}
}
