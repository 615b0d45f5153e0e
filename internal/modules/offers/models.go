package offers

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TypePercent  = "percent"
	TypeFlat     = "flat"
	TypeShipping = "shipping"
)

type Offer struct {
	ID             string         `gorm:"type:char(36);primaryKey"`
	Code           string         `gorm:"type:varchar(32);not null;uniqueIndex:ux_offers_code"`
	Type           string         `gorm:"type:varchar(16);not null"`
	Value          int            `gorm:"not null"` // percent (0-100) or flat paise
	MinAmountPaise int            `gorm:"not null;default:0"`
	// Optional scoping: JSON array of product ids the offer applies to.
	// Empty means the offer applies to the whole cart.
	ProductIDs datatypes.JSON `gorm:"type:json"`
	StartsAt   *time.Time     `gorm:"type:datetime"`
	EndsAt     *time.Time     `gorm:"type:datetime"`
	Active     bool           `gorm:"not null;default:true"`
	CreatedAt  time.Time      `gorm:"type:datetime;not null"`
	UpdatedAt  time.Time      `gorm:"type:datetime;not null"`
}

func (Offer) TableName() string { return "offers" }

// IsValid reports whether the offer can be redeemed at the given time.
func (o Offer) IsValid(now time.Time) bool {
	if !o.Active {
		return false
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}

// DiscountPaise computes the discount for the given subtotal and shipping.
// The caller caps the order total at zero.
func (o Offer) DiscountPaise(subtotalPaise, shippingPaise int) int {
	switch o.Type {
	case TypeShipping:
		return shippingPaise
	case TypePercent:
		if o.Value <= 0 {
			return 0
		}
		return subtotalPaise * o.Value / 100
	case TypeFlat:
		if o.Value > subtotalPaise {
			return subtotalPaise
		}
		return o.Value
	}
	return 0
}
