package service

import (
	"context"
	"errors"
	"strings"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type LoginResult struct {
	Token   string         `json:"token"`
	Account *model.Account `json:"account"`
}

type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
}

type authServiceImpl struct {
	accountRepo repository.AccountRepository
	tokens      *auth.TokenIssuer
	log         *log.Helper
}

func NewAuthService(accountRepo repository.AccountRepository, tokens *auth.TokenIssuer, logger log.Logger) AuthService {
	return &authServiceImpl{
		accountRepo: accountRepo,
		tokens:      tokens,
		log:         log.NewHelper(log.With(logger, "module", "service/auth")),
	}
}

// Login accepts either the e-mail or the phone as identifier.
func (s *authServiceImpl) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Validation("identifier and password are required")
	}

	var email, phone string
	if strings.Contains(identifier, "@") {
		email = strings.ToLower(identifier)
	} else {
		phone = identifier
	}

	account, err := s.accountRepo.FindByEmailOrPhone(ctx, email, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		s.log.Errorf("find account for login: %v", err)
		return nil, apperr.Persistence(err)
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		s.log.Errorf("issue token for %s: %v", account.ID, err)
		return nil, apperr.Persistence(err)
	}

	return &LoginResult{Token: token, Account: account}, nil
}
