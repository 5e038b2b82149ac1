package server

import (
	"context"
	"net/http"

	"digital-storefront/internal/auth"
	"digital-storefront/internal/handler"
	authmw "digital-storefront/internal/middleware"
	"digital-storefront/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Auth        service.AuthService
	Checkout    service.CheckoutService
	Order       service.OrderService
	Fulfillment service.FulfillmentService
	Payment     service.PaymentService
	Product     service.ProductService
}

type Server struct {
	echo            *echo.Echo
	tokens          *auth.TokenIssuer
	authHandler     *handler.AuthHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	paymentHandler  *handler.PaymentHandler
	productHandler  *handler.ProductHandler
}

func NewServer(services *Services, tokens *auth.TokenIssuer, logger log.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		tokens:          tokens,
		authHandler:     handler.NewAuthHandler(services.Auth),
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		orderHandler:    handler.NewOrderHandler(services.Order, services.Fulfillment),
		paymentHandler:  handler.NewPaymentHandler(services.Payment),
		productHandler:  handler.NewProductHandler(services.Product),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- gateway callbacks, authenticated by the gateway itself --------
	payment := api.Group("/payment")
	payment.POST("/callback", s.paymentHandler.Webhook(service.ProviderRedirect))
	payment.POST("/paypal/webhook", s.paymentHandler.Webhook(service.ProviderPaypal))
	payment.POST("/stripe/webhook", s.paymentHandler.Webhook(service.ProviderStripe))
	payment.GET("/paypal/success", s.paymentHandler.PaypalSuccess)

	// -------- storefront --------
	app := api.Group("", authmw.Authenticate(s.tokens))
	app.POST("/auth/login", s.authHandler.Login)
	app.POST("/checkout", s.checkoutHandler.Checkout)
	app.GET("/products/:id", s.productHandler.Get)

	requireAuth := authmw.RequireAuth()
	app.GET("/orders", s.orderHandler.List, requireAuth)
	app.GET("/orders/:id", s.orderHandler.Get, requireAuth)
	app.POST("/orders/:id/cancel", s.orderHandler.Cancel, requireAuth)
	app.POST("/payment/initiate", s.paymentHandler.Initiate, requireAuth)

	// -------- admin --------
	admin := app.Group("/admin", authmw.RequireAdmin())
	admin.PUT("/orders/:id", s.orderHandler.Verify)
	admin.DELETE("/orders/:id", s.orderHandler.Delete)
	admin.POST("/products", s.productHandler.Create)
	admin.PUT("/products/:id", s.productHandler.Update)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
