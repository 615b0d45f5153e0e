package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyra.shop/app/internal/mailer"
)

func snapshot() OrderSnapshot {
	return OrderSnapshot{
		OrderNumber:   "NYR1700000000000",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		Items: []LineItem{
			{Name: "Silk Scarf", Quantity: 2, UnitPricePaise: 49900},
			{Name: "Linen Shirt", Quantity: 1, UnitPricePaise: 29900},
		},
		SubtotalPaise: 129700,
		ShippingPaise: 0,
		DiscountPaise: 12970,
		TotalPaise:    116730,
		Currency:      "INR",
		PlacedAt:      time.Now(),
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches with both bodies", func(t *testing.T) {
		mock := &mailer.Mock{}
		c := NewConfirmations(mock, "orders@nyra.shop", "Nyra")

		ok := c.SendOrderConfirmation(ctx, snapshot())
		assert.True(t, ok)

		require.Equal(t, 1, mock.SentCount())
		sent := mock.Sent[0]
		assert.Equal(t, "orders@nyra.shop", sent.From)
		assert.Equal(t, []string{"asha@example.com"}, sent.To)
		assert.Contains(t, sent.Subject, "NYR1700000000000")
		assert.Contains(t, sent.TextBody, "Silk Scarf x2")
		assert.Contains(t, sent.TextBody, "₹1167.30")
		assert.Contains(t, sent.HTMLBody, "Silk Scarf")
		assert.Contains(t, sent.HTMLBody, "Discount: -₹129.70")
	})

	t.Run("missing recipient", func(t *testing.T) {
		mock := &mailer.Mock{}
		c := NewConfirmations(mock, "orders@nyra.shop", "Nyra")

		snap := snapshot()
		snap.CustomerEmail = ""
		assert.False(t, c.SendOrderConfirmation(ctx, snap))
		assert.Equal(t, 0, mock.SentCount())
	})

	t.Run("transport failure reports false", func(t *testing.T) {
		mock := &mailer.Mock{}
		mock.SetErr(errors.New("connection refused"))
		c := NewConfirmations(mock, "orders@nyra.shop", "Nyra")

		assert.False(t, c.SendOrderConfirmation(ctx, snapshot()))
		assert.Equal(t, 0, mock.SentCount())
	})
}
