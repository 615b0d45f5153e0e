package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"nyra.shop/app/internal/http/middleware"
	"nyra.shop/app/internal/modules/offers"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/payments"
	"nyra.shop/app/internal/modules/products"
	"nyra.shop/app/internal/modules/users"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&middleware.Session{},
		&products.Product{},
		&offers.Offer{},
		&orders.Order{},
		&orders.OrderItem{},
		&payments.GatewayEvent{},
	); err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}

	log.Println("✓ tables migrated successfully")
}
