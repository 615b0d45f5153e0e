package products

import "time"

type Product struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	PricePaise int       `gorm:"not null"`
	Image      string    `gorm:"type:varchar(512)"`
	// Stock may go negative after payment-time decrements; oversell is
	// reconciled out of band.
	Stock     int       `gorm:"not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:datetime;not null"`
	UpdatedAt time.Time `gorm:"type:datetime;not null"`
}

func (Product) TableName() string { return "products" }
