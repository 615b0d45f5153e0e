package inventory

import (
	"context"
	"log/slog"

	"gorm.io/gorm"
)

type Line struct {
	ProductID string
	Quantity  int
}

// Adjuster applies payment-time stock decrements. There is deliberately
// no floor check here: stock may go negative if oversold, and that is
// reconciled out of band rather than retried.
type Adjuster struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAdjuster(db *gorm.DB) *Adjuster {
	return &Adjuster{db: db, logger: slog.Default()}
}

func (a *Adjuster) SetLogger(logger *slog.Logger) { a.logger = logger }

// ApplyDecrement decrements stock per product. Failures are logged and do
// not block the remaining lines; the caller has already confirmed the
// payment and must not roll it back over a stock-accounting error.
func (a *Adjuster) ApplyDecrement(ctx context.Context, lines []Line) {
	for _, ln := range lines {
		qty := ln.Quantity
		if qty < 1 {
			qty = 1
		}

		res := a.db.WithContext(ctx).
			Table("products").
			Where("id = ?", ln.ProductID).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			a.logger.ErrorContext(ctx, "stock decrement failed",
				"product_id", ln.ProductID, "qty", qty, "err", res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			a.logger.WarnContext(ctx, "stock decrement matched no product",
				"product_id", ln.ProductID, "qty", qty)
		}
	}
}
