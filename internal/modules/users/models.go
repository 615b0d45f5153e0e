package users

import "time"

// User is read-only within this service; account management lives in the
// storefront proper.
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(120);not null"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Phone     *string   `gorm:"type:varchar(32)"`
	CreatedAt time.Time `gorm:"type:datetime;not null"`
	UpdatedAt time.Time `gorm:"type:datetime;not null"`
}

func (User) TableName() string { return "users" }
