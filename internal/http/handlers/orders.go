package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/shared/apperr"
)

type OrdersHandler struct {
	repo   *orders.Repo
	logger *slog.Logger
}

func NewOrdersHandler(db *gorm.DB, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{repo: orders.NewRepo(db), logger: logger}
}

func (h *OrdersHandler) Detail(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	id := c.Param("id")
	o, err := h.repo.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	// Hide other customers' orders behind the same 404 as a missing id.
	if o.UserID != u.ID {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}

	items, err := h.repo.Items(c.Request.Context(), o.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orderJSON(o, items),
	})
}

func (h *OrdersHandler) List(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	res, err := h.repo.ListByUser(c.Request.Context(), orders.ListByUserParams{
		UserID:   u.ID,
		Page:     page,
		PageSize: size,
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	rows := make([]gin.H, len(res.Items))
	for i, it := range res.Items {
		rows[i] = orderSummaryJSON(it.Order, it.Count)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"orders": rows,
			"total":  res.Total,
			"page":   page,
		},
	})
}

func orderSummaryJSON(o orders.Order, itemCount int) gin.H {
	return gin.H{
		"id":            o.ID,
		"orderNumber":   o.OrderNumber,
		"status":        o.Status,
		"paymentStatus": o.PaymentStatus,
		"totalInPaise":  o.TotalPaise,
		"currency":      o.Currency,
		"itemCount":     itemCount,
		"createdAt":     o.CreatedAt.Format(time.RFC3339),
	}
}

func orderJSON(o orders.Order, items []orders.OrderItem) gin.H {
	rows := make([]gin.H, len(items))
	for i, it := range items {
		rows[i] = gin.H{
			"productId":        it.ProductID,
			"name":             it.Name,
			"image":            it.Image,
			"quantity":         it.Quantity,
			"unitPriceInPaise": it.UnitPricePaise,
		}
	}

	out := gin.H{
		"id":                    o.ID,
		"orderNumber":           o.OrderNumber,
		"status":                o.Status,
		"paymentStatus":         o.PaymentStatus,
		"subtotalInPaise":       o.SubtotalPaise,
		"shippingInPaise":       o.ShippingPaise,
		"discountInPaise":       o.DiscountPaise,
		"totalInPaise":          o.TotalPaise,
		"currency":              o.Currency,
		"confirmationEmailSent": o.ConfirmationEmailSent,
		"items":                 rows,
		"createdAt":             o.CreatedAt.Format(time.RFC3339),
	}
	if o.RazorpayOrderID != nil {
		out["razorpayOrderId"] = *o.RazorpayOrderID
	}
	if o.RazorpayPaymentID != nil {
		out["razorpayPaymentId"] = *o.RazorpayPaymentID
	}
	if o.CouponCode != nil {
		out["couponCode"] = *o.CouponCode
	}
	if len(o.ShippingAddressJSON) > 0 {
		out["shippingAddress"] = json.RawMessage(o.ShippingAddressJSON)
	}
	if o.PaymentAt != nil {
		out["paymentAt"] = o.PaymentAt.Format(time.RFC3339)
	}
	return out
}
