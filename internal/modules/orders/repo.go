package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

func (r *Repo) FindByID(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return o, err
}

func (r *Repo) FindByRazorpayOrderID(ctx context.Context, rzpOrderID string) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "razorpay_order_id = ?", rzpOrderID).Error
	return o, err
}

func (r *Repo) Items(ctx context.Context, orderID string) ([]OrderItem, error) {
	var items []OrderItem
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&items, "order_id = ?", orderID).Error
	return items, err
}

// CompletionStamp carries what MarkPaymentCompleted writes alongside the
// status transition. Gateway ids are only written when non-nil, so the
// order.paid fallback (which has no payment id) leaves them untouched.
type CompletionStamp struct {
	RazorpayOrderID   *string
	RazorpayPaymentID *string
	At                time.Time
}

// MarkPaymentCompleted transitions the order to completed/confirmed in a
// single conditional update and reports whether this call was the one
// that performed the transition. The guard makes the transition atomic:
// under concurrent delivery exactly one caller sees won == true, and all
// side effects are gated on that result.
func (r *Repo) MarkPaymentCompleted(ctx context.Context, orderID string, st CompletionStamp) (bool, error) {
	updates := map[string]any{
		"payment_status": PaymentCompleted,
		"status":         StatusConfirmed,
		"payment_at":     st.At,
		"confirmed_at":   st.At,
		"updated_at":     st.At,
	}
	if st.RazorpayOrderID != nil {
		updates["razorpay_order_id"] = *st.RazorpayOrderID
	}
	if st.RazorpayPaymentID != nil {
		updates["razorpay_payment_id"] = *st.RazorpayPaymentID
	}

	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_status <> ?", orderID, PaymentCompleted).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkConfirmationEmailSent flips the sent flag, once. The guard means a
// racing retry that lost cannot flip it a second time.
func (r *Repo) MarkConfirmationEmailSent(ctx context.Context, orderID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND confirmation_email_sent = ?", orderID, false).
		Updates(map[string]any{
			"confirmation_email_sent":    true,
			"confirmation_email_sent_at": at,
			"updated_at":                 at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type ListByUserParams struct {
	UserID   string
	Page     int
	PageSize int
	Status   string // optional filter
}

type ListByUserItem struct {
	Order Order
	Count int
}

type ListByUserResult struct {
	Items []ListByUserItem
	Total int64
}

func (r *Repo) ListByUser(ctx context.Context, in ListByUserParams) (ListByUserResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", in.UserID)
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByUserResult{}, err
	}

	var rows []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&rows).Error; err != nil {
		return ListByUserResult{}, err
	}

	items := make([]ListByUserItem, len(rows))
	for i, o := range rows {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderItem{}).Where("order_id = ?", o.ID).Count(&count).Error; err != nil {
			count = 0
		}
		items[i] = ListByUserItem{Order: o, Count: int(count)}
	}

	return ListByUserResult{Items: items, Total: total}, nil
}
