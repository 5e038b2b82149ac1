package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digital-storefront/internal/apperr"
	"digital-storefront/internal/fulfillment"
	"digital-storefront/internal/model"
	"digital-storefront/internal/repository"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type CartItem struct {
	ProductID   string
	VariantName string
	Quantity    int
}

type SkippedItem struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

type OrderBatch struct {
	TransactionID string
	Orders        []*model.Order
	Skipped       []SkippedItem
}

// PrimaryOrderID is the order a client should use to start payment.
func (b *OrderBatch) PrimaryOrderID() string {
	if len(b.Orders) == 0 {
		return ""
	}
	return b.Orders[0].ID
}

// ProductReader is the trusted catalog the factory prices from.
type ProductReader interface {
	FindByID(ctx context.Context, productID string) (*model.Product, error)
}

// OrderFactory is the only place orders are created.
type OrderFactory interface {
	CreateOrders(ctx context.Context, accountID string, items []CartItem, paymentMethod, screenshot string) (*OrderBatch, error)
}

type orderFactoryImpl struct {
	products  ProductReader
	orderRepo repository.OrderRepository
	log       *log.Helper
	now       func() time.Time
}

func NewOrderFactory(products ProductReader, orderRepo repository.OrderRepository, logger log.Logger) OrderFactory {
	return &orderFactoryImpl{
		products:  products,
		orderRepo: orderRepo,
		log:       log.NewHelper(log.With(logger, "module", "service/order_factory")),
		now:       time.Now,
	}
}

// NewTransactionID returns TXN-<unix millis>-<8 hex chars>.
func NewTransactionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}

func (f *orderFactoryImpl) CreateOrders(
	ctx context.Context,
	accountID string,
	items []CartItem,
	paymentMethod, screenshot string,
) (*OrderBatch, error) {
	if accountID == "" {
		return nil, apperr.Validation("account is required")
	}
	if len(items) == 0 {
		return nil, apperr.Validation("empty cart")
	}
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, apperr.Validation("cart item %d: quantity must be at least 1", i)
		}
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, apperr.Validation("cart item %d: productId is required", i)
		}
	}

	paymentMethod = strings.TrimSpace(paymentMethod)
	if paymentMethod == "" {
		paymentMethod = model.DefaultPaymentMethod
	}

	batch := &OrderBatch{TransactionID: NewTransactionID(f.now())}

	orders := make([]*model.Order, 0, len(items))
	for i, item := range items {
		order, reason, err := f.priceLine(ctx, item)
		if err != nil {
			return nil, err
		}
		if order == nil {
			batch.Skipped = append(batch.Skipped, SkippedItem{Index: i, ProductID: item.ProductID, Reason: reason})
			continue
		}

		order.AccountID = accountID
		order.TransactionID = batch.TransactionID
		order.PaymentMethod = paymentMethod
		order.Screenshot = strings.TrimSpace(screenshot)
		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return nil, apperr.OrderCreation("no valid items in cart")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, order := range orders {
		g.Go(func() error {
			if err := f.orderRepo.Create(gctx, nil, order); err != nil {
				return fmt.Errorf("create order for product %s: %w", order.ProductID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.log.Errorf("persist orders for %s: %v", batch.TransactionID, err)
		return nil, apperr.Persistence(err)
	}

	batch.Orders = orders
	f.log.Infof("created %d orders under %s, skipped %d", len(orders), batch.TransactionID, len(batch.Skipped))
	return batch, nil
}

// priceLine builds the unsaved order for one cart line. A nil order with a
// reason means the line is skipped.
func (f *orderFactoryImpl) priceLine(ctx context.Context, item CartItem) (*model.Order, string, error) {
	product, err := f.products.FindByID(ctx, item.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "product not found", nil
	}
	if err != nil {
		f.log.Errorf("load product %s: %v", item.ProductID, err)
		return nil, "", apperr.Persistence(err)
	}
	if !product.IsAvailable {
		return nil, "product unavailable", nil
	}

	unitPrice, ok := product.EffectivePrice(item.VariantName)
	switch {
	case !ok && item.VariantName == "":
		return nil, "variant required", nil
	case !ok:
		return nil, fmt.Sprintf("unknown variant %q", item.VariantName), nil
	}

	initial := fulfillment.Initial
	now := f.now()
	return &model.Order{
		ID:            uuid.NewString(),
		ProductID:     product.ID,
		VariantName:   item.VariantName,
		Quantity:      item.Quantity,
		Amount:        unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		Status:        initial.Status,
		PaymentStatus: initial.Payment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, "", nil
}
