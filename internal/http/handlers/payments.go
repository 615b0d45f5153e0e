package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/http/validation"
	"nyra.shop/app/internal/modules/offers"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/payments"
	"nyra.shop/app/internal/shared/apperr"
)

type PaymentsHandler struct {
	checkout *payments.CheckoutService
	rec      *payments.Reconciler
	logger   *slog.Logger
}

func NewPaymentsHandler(checkout *payments.CheckoutService, rec *payments.Reconciler, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{checkout: checkout, rec: rec, logger: logger}
}

type createOrderItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type createOrderInput struct {
	Items           []createOrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress json.RawMessage        `json:"shippingAddress" binding:"required"`
	CouponCode      string                 `json:"couponCode"`
}

func (h *PaymentsHandler) CreateOrder(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Validation failed.", validation.FromBindError(err, &in)))
		return
	}

	items := make([]payments.CheckoutItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = payments.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	res, err := h.checkout.CreateOrder(c.Request.Context(), payments.CreateOrderInput{
		UserID:          u.ID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		CouponCode:      in.CouponCode,
	})
	if err != nil {
		middleware.Fail(c, mapCheckoutError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Razorpay order created successfully",
		"data": gin.H{
			"orderId":         res.OrderID,
			"orderNumber":     res.OrderNumber,
			"amount":          float64(res.AmountPaise) / 100,
			"amountInPaise":   res.AmountPaise,
			"currency":        res.Currency,
			"razorpayOrderId": res.RazorpayOrderID,
		},
	})
}

func mapCheckoutError(err error) error {
	var cve *orders.CartValidationError
	switch {
	case errors.As(err, &cve):
		fields := make(map[string]string, len(cve.Items))
		for _, it := range cve.Items {
			fields[it.ProductID] = fmt.Sprintf("%s: %s", it.Name, it.Reason)
		}
		return apperr.InvalidErr("Some items in your cart are not available.", fields)
	case errors.Is(err, orders.ErrEmptyCart):
		return apperr.InvalidErr("Items are required.", nil)
	case errors.Is(err, offers.ErrNotFound):
		return apperr.NotFoundErr("Invalid coupon code.")
	case errors.Is(err, orders.ErrOfferNotAvailable):
		return apperr.InvalidErr("This coupon is not active or has expired.", nil)
	case errors.Is(err, orders.ErrOfferMinAmount):
		return apperr.InvalidErr("Order amount does not meet the coupon minimum.", nil)
	case errors.Is(err, orders.ErrOfferNotApplicable):
		return apperr.InvalidErr("This coupon does not apply to the items in your cart.", nil)
	case errors.Is(err, payments.ErrGateway):
		return apperr.UpstreamErr("Failed to create payment order.", err)
	default:
		return apperr.Wrap(err)
	}
}

type verifyInput struct {
	OrderID           string `json:"orderId"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

func (h *PaymentsHandler) Verify(c *gin.Context) {
	var in verifyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Missing required payment verification fields.",
			validation.FromBindError(err, &in)))
		return
	}

	res, err := h.rec.ConfirmPayment(c.Request.Context(), payments.ConfirmPaymentInput{
		OrderID:           in.OrderID,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		Signature:         in.RazorpaySignature,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			middleware.Fail(c, apperr.InvalidErr("Invalid payment signature.", nil))
		case errors.Is(err, payments.ErrOrderNotFound):
			middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	msg := "Razorpay payment verified successfully"
	if res.AlreadyVerified {
		msg = "Payment already verified"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
		"data": gin.H{
			"orderId":           res.OrderID,
			"orderNumber":       res.OrderNumber,
			"paymentStatus":     res.PaymentStatus,
			"razorpayOrderId":   res.RazorpayOrderID,
			"razorpayPaymentId": res.RazorpayPaymentID,
		},
	})
}
