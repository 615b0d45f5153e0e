package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/modules/offers"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/products"
	"nyra.shop/app/internal/modules/users"
)

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
		&middleware.Session{},
		&products.Product{},
		&offers.Offer{},
		&orders.Order{},
		&orders.OrderItem{},
		&GatewayEvent{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) users.User {
	t.Helper()
	u := users.User{
		ID:        uuid.NewString(),
		Name:      "Asha Rao",
		Email:     email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name string, pricePaise, stock int) products.Product {
	t.Helper()
	p := products.Product{
		ID:         uuid.NewString(),
		Name:       name,
		PricePaise: pricePaise,
		Stock:      stock,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

type seedOrderOpts struct {
	UserID          string
	RazorpayOrderID string
	PaymentStatus   string
	Items           []seedOrderItem
}

type seedOrderItem struct {
	Product  products.Product
	Quantity int
}

func seedOrder(t *testing.T, db *gorm.DB, opts seedOrderOpts) orders.Order {
	t.Helper()

	subtotal := 0
	for _, it := range opts.Items {
		subtotal += it.Product.PricePaise * it.Quantity
	}
	paymentStatus := opts.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = orders.PaymentPending
	}

	now := time.Now()
	o := orders.Order{
		ID:            uuid.NewString(),
		OrderNumber:   "NYR" + uuid.NewString()[:8],
		UserID:        opts.UserID,
		SubtotalPaise: subtotal,
		ShippingPaise: 9900,
		TotalPaise:    subtotal + 9900,
		Currency:      "INR",
		Status:        orders.StatusPending,
		PaymentStatus: paymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if opts.RazorpayOrderID != "" {
		o.RazorpayOrderID = &opts.RazorpayOrderID
	}
	require.NoError(t, db.Create(&o).Error)

	for _, it := range opts.Items {
		row := orders.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			ProductID:      it.Product.ID,
			Name:           it.Product.Name,
			UnitPricePaise: it.Product.PricePaise,
			Quantity:       it.Quantity,
			CreatedAt:      now,
		}
		require.NoError(t, db.Create(&row).Error)
	}
	return o
}

func signPair(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func productStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p products.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func reloadOrder(t *testing.T, db *gorm.DB, id string) orders.Order {
	t.Helper()
	var o orders.Order
	require.NoError(t, db.First(&o, "id = ?", id).Error)
	return o
}
