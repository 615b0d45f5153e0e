package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/mailer"
	"nyra.shop/app/internal/modules/email"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/payments"
	"nyra.shop/app/internal/modules/products"
	"nyra.shop/app/internal/modules/users"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&products.Product{},
		&orders.Order{},
		&orders.OrderItem{},
		&payments.GatewayEvent{},
	))
	return db
}

// newTestEngine wires the middleware the handlers rely on for error
// rendering, without the full router.
func newTestEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(discardLogger()))
	return r
}

func newTestReconciler(t *testing.T, db *gorm.DB) (*payments.Reconciler, *mailer.Mock) {
	t.Helper()
	mock := &mailer.Mock{}
	emails := email.NewConfirmations(mock, "orders@nyra.shop", "Nyra")
	rec := payments.NewReconciler(db, testKeySecret, emails)
	rec.SetLogger(discardLogger())
	return rec, mock
}

func seedPaidableOrder(t *testing.T, db *gorm.DB, rzpOrderID string) (orders.Order, products.Product) {
	t.Helper()

	now := time.Now()
	u := users.User{
		ID:        uuid.NewString(),
		Name:      "Asha Rao",
		Email:     "asha@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&u).Error)

	p := products.Product{
		ID:         uuid.NewString(),
		Name:       "Silk Scarf",
		PricePaise: 49900,
		Stock:      10,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, db.Create(&p).Error)

	o := orders.Order{
		ID:              uuid.NewString(),
		OrderNumber:     "NYR" + uuid.NewString()[:8],
		UserID:          u.ID,
		RazorpayOrderID: &rzpOrderID,
		SubtotalPaise:   49900,
		ShippingPaise:   9900,
		TotalPaise:      59800,
		Currency:        "INR",
		Status:          orders.StatusPending,
		PaymentStatus:   orders.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&o).Error)

	require.NoError(t, db.Create(&orders.OrderItem{
		ID:             uuid.NewString(),
		OrderID:        o.ID,
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPricePaise: p.PricePaise,
		Quantity:       2,
		CreatedAt:      now,
	}).Error)

	return o, p
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
