package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&Order{}, &OrderItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, paymentStatus string) Order {
	t.Helper()
	now := time.Now()
	o := Order{
		ID:            uuid.NewString(),
		OrderNumber:   "NYR" + uuid.NewString()[:8],
		UserID:        "user-1",
		SubtotalPaise: 49900,
		ShippingPaise: 9900,
		TotalPaise:    59800,
		Currency:      "INR",
		Status:        StatusPending,
		PaymentStatus: paymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func strptr(s string) *string { return &s }

func TestMarkPaymentCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("only the first caller wins", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRepo(db)
		o := seedOrder(t, db, PaymentPending)

		st := CompletionStamp{
			RazorpayOrderID:   strptr("order_1"),
			RazorpayPaymentID: strptr("pay_1"),
			At:                time.Now(),
		}

		won, err := repo.MarkPaymentCompleted(ctx, o.ID, st)
		require.NoError(t, err)
		assert.True(t, won)

		won, err = repo.MarkPaymentCompleted(ctx, o.ID, st)
		require.NoError(t, err)
		assert.False(t, won)

		got, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, PaymentCompleted, got.PaymentStatus)
		assert.Equal(t, StatusConfirmed, got.Status)
		require.NotNil(t, got.RazorpayPaymentID)
		assert.Equal(t, "pay_1", *got.RazorpayPaymentID)
		assert.NotNil(t, got.PaymentAt)
		assert.NotNil(t, got.ConfirmedAt)
	})

	t.Run("a failed payment may still complete", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRepo(db)
		o := seedOrder(t, db, PaymentFailed)

		won, err := repo.MarkPaymentCompleted(ctx, o.ID, CompletionStamp{At: time.Now()})
		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("nil gateway ids leave existing values untouched", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRepo(db)
		o := seedOrder(t, db, PaymentPending)
		require.NoError(t, db.Model(&Order{}).Where("id = ?", o.ID).
			Update("razorpay_order_id", "order_keep").Error)

		won, err := repo.MarkPaymentCompleted(ctx, o.ID, CompletionStamp{At: time.Now()})
		require.NoError(t, err)
		assert.True(t, won)

		got, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RazorpayOrderID)
		assert.Equal(t, "order_keep", *got.RazorpayOrderID)
		assert.Nil(t, got.RazorpayPaymentID)
	})

	t.Run("unknown order id does not win", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewRepo(db)

		won, err := repo.MarkPaymentCompleted(ctx, "no-such-order", CompletionStamp{At: time.Now()})
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestMarkConfirmationEmailSent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepo(db)
	o := seedOrder(t, db, PaymentCompleted)

	flipped, err := repo.MarkConfirmationEmailSent(ctx, o.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.MarkConfirmationEmailSent(ctx, o.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.ConfirmationEmailSent)
	assert.NotNil(t, got.ConfirmationEmailSentAt)
}

func TestFindByRazorpayOrderID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepo(db)

	o := seedOrder(t, db, PaymentPending)
	require.NoError(t, db.Model(&Order{}).Where("id = ?", o.ID).
		Update("razorpay_order_id", "order_find1").Error)

	got, err := repo.FindByRazorpayOrderID(ctx, "order_find1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = repo.FindByRazorpayOrderID(ctx, "order_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRepo(db)

	for i := 0; i < 3; i++ {
		o := seedOrder(t, db, PaymentPending)
		require.NoError(t, db.Create(&OrderItem{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: "p1",
			Name:      "Silk Scarf",
			Quantity:  1,
			CreatedAt: time.Now(),
		}).Error)
	}
	other := seedOrder(t, db, PaymentPending)
	require.NoError(t, db.Model(&Order{}).Where("id = ?", other.ID).
		Update("user_id", "someone-else").Error)

	res, err := repo.ListByUser(ctx, ListByUserParams{UserID: "user-1", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 1, res.Items[0].Count)

	res, err = repo.ListByUser(ctx, ListByUserParams{UserID: "user-1", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}
