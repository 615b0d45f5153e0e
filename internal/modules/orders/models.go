package orders

import (
	"time"

	"gorm.io/datatypes"
)

// Fulfillment lifecycle.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// Payment lifecycle. Completed is terminal; it never reverts.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

type Order struct {
	ID          string `gorm:"type:char(36);primaryKey"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_order_number"`
	UserID      string `gorm:"type:char(36);not null;index:ix_orders_user_id"`

	// Assigned by the gateway at order-creation time; secondary lookup key.
	RazorpayOrderID   *string `gorm:"type:varchar(64);uniqueIndex:ux_orders_razorpay_order_id"`
	RazorpayPaymentID *string `gorm:"type:varchar(64)"`

	SubtotalPaise int    `gorm:"not null"`
	ShippingPaise int    `gorm:"not null"`
	DiscountPaise int    `gorm:"not null"`
	TotalPaise    int    `gorm:"not null"`
	Currency      string `gorm:"type:char(3);not null"`

	Status        string `gorm:"type:varchar(32);not null"`
	PaymentStatus string `gorm:"type:varchar(32);not null"`

	CouponCode          *string        `gorm:"type:varchar(32)"`
	ShippingAddressJSON datatypes.JSON `gorm:"type:json"`

	ConfirmationEmailSent   bool       `gorm:"not null;default:false"`
	ConfirmationEmailSentAt *time.Time `gorm:"type:datetime"`

	PaymentAt   *time.Time `gorm:"type:datetime"`
	ConfirmedAt *time.Time `gorm:"type:datetime"`

	CreatedAt time.Time `gorm:"type:datetime;not null"`
	UpdatedAt time.Time `gorm:"type:datetime;not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is a snapshot of the product at purchase time; immutable once
// the order exists.
type OrderItem struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	OrderID        string    `gorm:"type:char(36);not null;index:ix_order_items_order_id"`
	ProductID      string    `gorm:"type:char(36);not null"`
	Name           string    `gorm:"type:varchar(255);not null"`
	UnitPricePaise int       `gorm:"not null"`
	Image          string    `gorm:"type:varchar(512)"`
	Quantity       int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"type:datetime;not null"`
}

func (OrderItem) TableName() string { return "order_items" }
