package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"nyra.shop/app/internal/mailer"
)

// OrderSnapshot is everything the confirmation message needs, captured at
// dispatch time so the template never reaches back into storage.
type OrderSnapshot struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Items         []LineItem
	SubtotalPaise int
	ShippingPaise int
	DiscountPaise int
	TotalPaise    int
	Currency      string
	PlacedAt      time.Time
}

type LineItem struct {
	Name           string
	Quantity       int
	UnitPricePaise int
}

// Confirmations dispatches order-confirmation email. SendOrderConfirmation
// reports true only when the message was handed to the transport, so the
// caller persists the sent flag on a true result and a transient failure
// stays eligible for retry.
type Confirmations struct {
	sender   mailer.Service
	fromAddr string
	fromName string
	logger   *slog.Logger
}

func NewConfirmations(sender mailer.Service, fromAddr, fromName string) *Confirmations {
	return &Confirmations{
		sender:   sender,
		fromAddr: fromAddr,
		fromName: fromName,
		logger:   slog.Default(),
	}
}

func (c *Confirmations) SetLogger(logger *slog.Logger) { c.logger = logger }

func (c *Confirmations) SendOrderConfirmation(ctx context.Context, snap OrderSnapshot) bool {
	if snap.CustomerEmail == "" {
		return false
	}

	e := mailer.Email{
		From:     c.fromAddr,
		FromName: c.fromName,
		To:       []string{snap.CustomerEmail},
		Subject:  fmt.Sprintf("Order Confirmation - %s", snap.OrderNumber),
		TextBody: confirmationText(snap),
		HTMLBody: confirmationHTML(snap),
	}

	if err := c.sender.Send(ctx, e); err != nil {
		c.logger.ErrorContext(ctx, "confirmation email send failed",
			"order_number", snap.OrderNumber, "err", err)
		return false
	}
	return true
}

func confirmationText(s OrderSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", s.CustomerName)
	fmt.Fprintf(&b, "Thanks for your order! Your order %s is confirmed.\n\n", s.OrderNumber)
	for _, it := range s.Items {
		fmt.Fprintf(&b, "  %s x%d  %s\n", it.Name, it.Quantity, money(it.UnitPricePaise*it.Quantity))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", money(s.SubtotalPaise))
	fmt.Fprintf(&b, "Shipping: %s\n", money(s.ShippingPaise))
	if s.DiscountPaise > 0 {
		fmt.Fprintf(&b, "Discount: -%s\n", money(s.DiscountPaise))
	}
	fmt.Fprintf(&b, "Total: %s\n\nThe Nyra Team\n", money(s.TotalPaise))
	return b.String()
}

func confirmationHTML(s OrderSnapshot) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: sans-serif;">`)
	b.WriteString("<h2>Order Confirmation</h2>")
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(s.CustomerName))
	fmt.Fprintf(&b, "<p>Thanks for your order! Order <strong>%s</strong> is confirmed.</p>", html.EscapeString(s.OrderNumber))
	b.WriteString("<ul>")
	for _, it := range s.Items {
		fmt.Fprintf(&b, "<li>%s &times; %d &mdash; %s</li>",
			html.EscapeString(it.Name), it.Quantity, money(it.UnitPricePaise*it.Quantity))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Subtotal: %s<br>Shipping: %s<br>", money(s.SubtotalPaise), money(s.ShippingPaise))
	if s.DiscountPaise > 0 {
		fmt.Fprintf(&b, "Discount: -%s<br>", money(s.DiscountPaise))
	}
	fmt.Fprintf(&b, "<strong>Total: %s</strong></p>", money(s.TotalPaise))
	b.WriteString("<p>The Nyra Team</p></body></html>")
	return b.String()
}

func money(paise int) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}
