package handler

import (
	"io"
	"net/http"

	"digital-storefront/internal/dto"
	"digital-storefront/internal/middleware"
	"digital-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps what a gateway may post to us.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) Initiate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(err)
	}

	url, err := h.paymentService.Initiate(ctx, middleware.CallerFrom(c), req.OrderID)
	if err != nil {
		return hideForbidden(err)
	}

	return c.JSON(http.StatusOK, &dto.InitiatePaymentResponse{
		RedirectURL: url,
	})
}

// Webhook returns the handler for one provider's confirmation endpoint.
func (h *PaymentHandler) Webhook(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
		if err != nil {
			return badRequest(err)
		}

		result, err := h.paymentService.HandleWebhook(ctx, provider, c.Request().Header, body)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, &dto.WebhookResponse{
			TransactionID: result.TransactionID,
			Duplicate:     result.Duplicate,
			Updated:       len(result.Updated),
		})
	}
}

func (h *PaymentHandler) PaypalSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.QueryParam("token")
	if err := h.paymentService.CapturePaypal(ctx, orderID); err != nil {
		return err
	}

	html := `
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8">
		<title>Payment Processing</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				text-align: center;
				margin-top: 80px;
			}
			.countdown {
				font-size: 24px;
				font-weight: bold;
			}
		</style>
	</head>
	<body>
		<h2>Payment approved</h2>
		<p>We are confirming your payment. Your order page will show the delivery once it is ready.</p>
		<p>Redirecting to your orders in <span class="countdown" id="countdown">10</span> seconds…</p>

		<script>
			let seconds = 10;
			const el = document.getElementById("countdown");

			const timer = setInterval(function () {
				seconds--;
				el.textContent = seconds;

				if (seconds <= 0) {
					clearInterval(timer);
					window.location.href = "/dashboard/orders";
				}
			}, 1000);
		</script>
	</body>
	</html>
	`

	return c.HTML(http.StatusOK, html)
}
