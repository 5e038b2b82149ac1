package service

import (
	"context"
	"errors"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/auth"
	"digital-storefront/internal/gate"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type OrderService interface {
	List(ctx context.Context, caller auth.Caller) ([]*gate.OrderView, error)
	Get(ctx context.Context, caller auth.Caller, orderID string) (*gate.OrderView, error)
	Delete(ctx context.Context, caller auth.Caller, orderID string) error
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	accountRepo repository.AccountRepository
	log         *log.Helper
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	accountRepo repository.AccountRepository,
	logger log.Logger,
) OrderService {
	return &orderServiceImpl{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		accountRepo: accountRepo,
		log:         log.NewHelper(log.With(logger, "module", "service/order")),
	}
}

// List returns every order for admins and the caller's own orders otherwise.
func (s *orderServiceImpl) List(ctx context.Context, caller auth.Caller) ([]*gate.OrderView, error) {
	if caller.IsAnonymous() {
		return nil, apperr.Unauthorized("sign in to see orders")
	}

	filter := repository.OrderFilter{}
	if !caller.IsAdmin() {
		filter.AccountID = caller.AccountID
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.log.Errorf("list orders: %v", err)
		return nil, apperr.Persistence(err)
	}

	views := gate.Orders(orders, caller)
	s.enrich(ctx, views, caller.IsAdmin())
	return views, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, caller auth.Caller, orderID string) (*gate.OrderView, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		s.log.Errorf("get order %s: %v", orderID, err)
		return nil, apperr.Persistence(err)
	}

	view, err := gate.Order(order, caller)
	if err != nil {
		return nil, err
	}

	s.enrich(ctx, []*gate.OrderView{view}, caller.IsAdmin())
	return view, nil
}

func (s *orderServiceImpl) Delete(ctx context.Context, caller auth.Caller, orderID string) error {
	if !caller.IsAdmin() {
		return apperr.Forbidden("only admins can delete orders")
	}

	err := s.orderRepo.Delete(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		s.log.Errorf("delete order %s: %v", orderID, err)
		return apperr.Persistence(err)
	}

	s.log.Infof("order %s deleted by %s", orderID, caller.AccountID)
	return nil
}

// enrich attaches product and customer summaries. Missing rows leave the
// summary empty rather than failing the read.
func (s *orderServiceImpl) enrich(ctx context.Context, views []*gate.OrderView, withCustomer bool) {
	if len(views) == 0 {
		return
	}

	productIDs := make([]string, 0, len(views))
	accountIDs := make([]string, 0, len(views))
	for _, v := range views {
		productIDs = append(productIDs, v.ProductID)
		accountIDs = append(accountIDs, v.AccountID)
	}

	products, err := s.productRepo.FindMany(ctx, unique(productIDs))
	if err != nil {
		s.log.Warnf("load products for orders: %v", err)
	}
	productByID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	accountByID := make(map[string]*model.Account)
	if withCustomer {
		accounts, err := s.accountRepo.FindMany(ctx, unique(accountIDs))
		if err != nil {
			s.log.Warnf("load customers for orders: %v", err)
		}
		for _, a := range accounts {
			accountByID[a.ID] = a
		}
	}

	for _, v := range views {
		if p, ok := productByID[v.ProductID]; ok {
			v.Product = &gate.ProductSummary{ID: p.ID, Title: p.Title, Slug: p.Slug}
		}
		if a, ok := accountByID[v.AccountID]; ok {
			v.Customer = &gate.CustomerSummary{ID: a.ID, Name: a.Name, Email: a.Email}
		}
	}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
