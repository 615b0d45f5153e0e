package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"nyra.shop/app/internal/modules/email"
	"nyra.shop/app/internal/modules/inventory"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/users"
)

// Reconciler is the single transition point that moves an order to
// completed/confirmed. Both confirmation entry points — the client
// verify call and the gateway webhook — feed the same Complete method,
// so the idempotency rules live in exactly one place.
type Reconciler struct {
	db     *gorm.DB
	orders *orders.Repo
	stock  *inventory.Adjuster
	emails *email.Confirmations
	secret string // key secret; signs the checkout order_id|payment_id pair
	logger *slog.Logger
}

func NewReconciler(db *gorm.DB, secret string, emails *email.Confirmations) *Reconciler {
	return &Reconciler{
		db:     db,
		orders: orders.NewRepo(db),
		stock:  inventory.NewAdjuster(db),
		emails: emails,
		secret: secret,
		logger: slog.Default(),
	}
}

func (r *Reconciler) SetLogger(logger *slog.Logger) {
	r.logger = logger
	r.stock.SetLogger(logger)
	r.emails.SetLogger(logger)
}

type ConfirmPaymentInput struct {
	OrderID           string // optional; razorpay order id is the fallback key
	RazorpayOrderID   string
	RazorpayPaymentID string
	Signature         string
}

type ConfirmPaymentResult struct {
	OrderID           string
	OrderNumber       string
	PaymentStatus     string
	RazorpayOrderID   string
	RazorpayPaymentID string
	AlreadyVerified   bool
}

// ConfirmPayment is the client-confirmation entry point. Signature first,
// then lookup; nothing is read or written until the signature checks out.
func (r *Reconciler) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (ConfirmPaymentResult, error) {
	if !VerifyCheckoutSignature(in.RazorpayOrderID, in.RazorpayPaymentID, in.Signature, r.secret) {
		return ConfirmPaymentResult{}, ErrInvalidSignature
	}

	o, err := r.resolveOrder(ctx, in.OrderID, in.RazorpayOrderID)
	if err != nil {
		return ConfirmPaymentResult{}, err
	}

	already, err := r.Complete(ctx, &o, CompleteOptions{
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		SideEffects:       true,
	})
	if err != nil {
		return ConfirmPaymentResult{}, err
	}

	res := ConfirmPaymentResult{
		OrderID:           o.ID,
		OrderNumber:       o.OrderNumber,
		PaymentStatus:     orders.PaymentCompleted,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		AlreadyVerified:   already,
	}
	if already && o.RazorpayPaymentID != nil {
		res.RazorpayPaymentID = *o.RazorpayPaymentID
	}
	return res, nil
}

// resolveOrder prefers the internal id when supplied and found, then
// falls back to the gateway order id.
func (r *Reconciler) resolveOrder(ctx context.Context, orderID, rzpOrderID string) (orders.Order, error) {
	if orderID != "" {
		o, err := r.orders.FindByID(ctx, orderID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return orders.Order{}, err
		}
	}

	o, err := r.orders.FindByRazorpayOrderID(ctx, rzpOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return orders.Order{}, ErrOrderNotFound
	}
	return o, err
}

type CompleteOptions struct {
	RazorpayOrderID   string
	RazorpayPaymentID string // absent on the order.paid fallback
	// SideEffects gates stock decrement and confirmation email. The
	// order.paid fallback drives the status transition only.
	SideEffects bool
}

// Complete performs the idempotent transition. The conditional update in
// MarkPaymentCompleted decides the winner; stock is decremented only by
// the winner, while the confirmation email is attempted whenever the
// sent flag is still unset so an earlier transient dispatch failure gets
// retried by the next delivery. Returns already == true when some prior
// call had completed the order.
func (r *Reconciler) Complete(ctx context.Context, o *orders.Order, opts CompleteOptions) (already bool, err error) {
	now := time.Now()
	st := orders.CompletionStamp{At: now}
	if opts.RazorpayOrderID != "" {
		st.RazorpayOrderID = &opts.RazorpayOrderID
	}
	if opts.RazorpayPaymentID != "" {
		st.RazorpayPaymentID = &opts.RazorpayPaymentID
	}

	won, err := r.orders.MarkPaymentCompleted(ctx, o.ID, st)
	if err != nil {
		return false, err
	}

	if won {
		o.PaymentStatus = orders.PaymentCompleted
		o.Status = orders.StatusConfirmed
		o.PaymentAt = &now
		o.ConfirmedAt = &now
		if st.RazorpayOrderID != nil {
			o.RazorpayOrderID = st.RazorpayOrderID
		}
		if st.RazorpayPaymentID != nil {
			o.RazorpayPaymentID = st.RazorpayPaymentID
		}

		if opts.SideEffects {
			r.decrementStock(ctx, o)
		}
	}

	if opts.SideEffects && !o.ConfirmationEmailSent {
		r.sendConfirmation(ctx, o)
	}

	return !won, nil
}

func (r *Reconciler) decrementStock(ctx context.Context, o *orders.Order) {
	items, err := r.orders.Items(ctx, o.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "loading order items for stock decrement failed",
			"order_id", o.ID, "err", err)
		return
	}
	lines := make([]inventory.Line, len(items))
	for i, it := range items {
		lines[i] = inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	r.stock.ApplyDecrement(ctx, lines)
}

func (r *Reconciler) sendConfirmation(ctx context.Context, o *orders.Order) {
	items, err := r.orders.Items(ctx, o.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "loading order items for confirmation email failed",
			"order_id", o.ID, "err", err)
		return
	}

	var u users.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", o.UserID).Error; err != nil {
		r.logger.WarnContext(ctx, "customer lookup for confirmation email failed",
			"order_id", o.ID, "user_id", o.UserID, "err", err)
		return
	}

	snap := email.OrderSnapshot{
		OrderNumber:   o.OrderNumber,
		CustomerName:  u.Name,
		CustomerEmail: u.Email,
		SubtotalPaise: o.SubtotalPaise,
		ShippingPaise: o.ShippingPaise,
		DiscountPaise: o.DiscountPaise,
		TotalPaise:    o.TotalPaise,
		Currency:      o.Currency,
		PlacedAt:      o.CreatedAt,
	}
	for _, it := range items {
		snap.Items = append(snap.Items, email.LineItem{
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPricePaise: it.UnitPricePaise,
		})
	}

	if !r.emails.SendOrderConfirmation(ctx, snap) {
		// Flag stays false; the next reconciliation call retries.
		return
	}
	if _, err := r.orders.MarkConfirmationEmailSent(ctx, o.ID, time.Now()); err != nil {
		r.logger.ErrorContext(ctx, "persisting confirmation email flag failed",
			"order_id", o.ID, "err", err)
		return
	}
	o.ConfirmationEmailSent = true
}
