package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"digital-storefront/internal/auth"
	"digital-storefront/internal/cache"
	"digital-storefront/internal/client"
	"digital-storefront/internal/config"
	"digital-storefront/internal/model"
	"digital-storefront/internal/notify"
	"digital-storefront/internal/repository"
	"digital-storefront/internal/server"
	"digital-storefront/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	helper := log.NewHelper(logger)

	if err := run(cfg, logger); err != nil {
		helper.Errorf("storefront stopped: %v", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) log.Logger {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "digital-storefront",
		"env", cfg.Environment.Name,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(cfg.Log.Level)))
}

func run(cfg *config.Config, logger log.Logger) error {
	helper := log.NewHelper(logger)
	ctx := context.Background()

	db, err := client.InitDBClient(&cfg.Database)
	if err != nil {
		return err
	}

	accountRepo := repository.NewAccountRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if cfg.Database.Seed {
		if err := productRepo.Seed(ctx); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}
	if err := seedAdmin(ctx, accountRepo, &cfg.Auth); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := client.InitRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		productRepo = cache.NewProductCache(productRepo, rdb, cfg.Redis.ProductTTL, logger)
		helper.Infof("product cache enabled on %s", cfg.Redis.Addr)
	}

	var notifiers []notify.Notifier
	if cfg.AMQP.URL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}
	if cfg.Mail.Host != "" {
		mailer := notify.NewMailer(cfg.Mail, cfg.BaseURL, logger)
		defer mailer.Close()
		notifiers = append(notifiers, mailer)
	}
	events := service.NewOrderEvents(notify.Multi(notifiers...), accountRepo, logger)

	gateway, parsers, paypalClient, err := newGateways(cfg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	identity := service.NewIdentityResolver(accountRepo, logger)
	factory := service.NewOrderFactory(productRepo, orderRepo, logger)
	fulfillmentService := service.NewFulfillmentService(db, orderRepo, webhookEventRepo, events, logger)

	services := &server.Services{
		Auth:        service.NewAuthService(accountRepo, tokens, logger),
		Checkout:    service.NewCheckoutService(identity, factory, events, logger),
		Order:       service.NewOrderService(orderRepo, productRepo, accountRepo, logger),
		Fulfillment: fulfillmentService,
		Payment: service.NewPaymentService(gateway, parsers, paypalClient, orderRepo, accountRepo,
			fulfillmentService, cfg.Payment, logger),
		Product: service.NewProductService(productRepo, logger),
	}

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(services, tokens, logger)

	errCh := make(chan error, 1)
	helper.Infof("Starting HTTP server on %s (payment provider %s)", serverAddr, cfg.Payment.Provider)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-sigChan:
		helper.Info("Signal received, starting graceful shutdown...")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// newGateways builds every gateway that has credentials. Only the configured
// provider initiates payments; any configured one may confirm them.
func newGateways(cfg *config.Config) (client.PaymentGateway, map[string]client.WebhookParser, client.PaypalClient, error) {
	redirect := client.NewRedirectClient(&cfg.Redirect, cfg.Payment.CallbackSecret)
	gateways := map[string]client.PaymentGateway{service.ProviderRedirect: redirect}
	parsers := map[string]client.WebhookParser{service.ProviderRedirect: redirect}

	var paypalClient client.PaypalClient
	if cfg.Paypal.ClientID != "" {
		paypalClient = client.NewPaypalClient(&cfg.Paypal, cfg.BaseURL)
		gateways[service.ProviderPaypal] = paypalClient
		parsers[service.ProviderPaypal] = paypalClient
	}
	if cfg.Stripe.SecretKey != "" {
		stripeClient := client.NewStripeClient(&cfg.Stripe)
		gateways[service.ProviderStripe] = stripeClient
		parsers[service.ProviderStripe] = stripeClient
	}

	provider := strings.ToLower(cfg.Payment.Provider)
	gateway, ok := gateways[provider]
	if !ok {
		return nil, nil, nil, fmt.Errorf("payment provider %q is not configured", cfg.Payment.Provider)
	}
	return gateway, parsers, paypalClient, nil
}

func seedAdmin(ctx context.Context, accountRepo repository.AccountRepository, cfg *config.Auth) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	_, err := accountRepo.FindByEmailOrPhone(ctx, email, "")
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	err = accountRepo.Create(ctx, nil, &model.Account{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
