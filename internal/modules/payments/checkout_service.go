package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nyra.shop/app/internal/modules/offers"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/products"
)

// CheckoutService creates the pending order and its gateway order. The
// order exists before the gateway call; a gateway failure leaves it
// pending without a gateway id, never in a false completed state.
type CheckoutService struct {
	db       *gorm.DB
	products *products.Repo
	offers   *offers.Repo
	gateway  Gateway

	freeShippingThresholdPaise int
	shippingFlatPaise          int

	logger *slog.Logger
}

func NewCheckoutService(db *gorm.DB, gw Gateway, freeShippingThresholdPaise, shippingFlatPaise int) *CheckoutService {
	return &CheckoutService{
		db:                         db,
		products:                   products.NewRepo(db),
		offers:                     offers.NewRepo(db),
		gateway:                    gw,
		freeShippingThresholdPaise: freeShippingThresholdPaise,
		shippingFlatPaise:          shippingFlatPaise,
		logger:                     slog.Default(),
	}
}

func (s *CheckoutService) SetLogger(logger *slog.Logger) { s.logger = logger }

type CheckoutItem struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID          string
	Items           []CheckoutItem
	ShippingAddress json.RawMessage
	CouponCode      string
}

type CreateOrderResult struct {
	OrderID         string
	OrderNumber     string
	AmountPaise     int
	Currency        string
	RazorpayOrderID string
}

func (s *CheckoutService) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if len(in.Items) == 0 {
		return CreateOrderResult{}, orders.ErrEmptyCart
	}

	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.ProductID
	}
	prods, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return CreateOrderResult{}, err
	}

	// Price from the current catalog, never from the client.
	var invalid []orders.InvalidItem
	subtotal := 0
	for _, it := range in.Items {
		p, ok := prods[it.ProductID]
		if !ok {
			invalid = append(invalid, orders.InvalidItem{
				ProductID: it.ProductID,
				Name:      "Unknown Product",
				Reason:    "Product no longer exists",
			})
			continue
		}
		if !p.IsActive {
			invalid = append(invalid, orders.InvalidItem{
				ProductID: it.ProductID,
				Name:      p.Name,
				Reason:    "Product is no longer available",
			})
			continue
		}
		if p.Stock < it.Quantity {
			invalid = append(invalid, orders.InvalidItem{
				ProductID: it.ProductID,
				Name:      p.Name,
				Reason:    fmt.Sprintf("Only %d items available, but %d requested", p.Stock, it.Quantity),
			})
			continue
		}
		subtotal += p.PricePaise * it.Quantity
	}
	if len(invalid) > 0 {
		return CreateOrderResult{}, &orders.CartValidationError{Items: invalid}
	}

	shipping := s.shippingFlatPaise
	if subtotal > s.freeShippingThresholdPaise {
		shipping = 0
	}

	discount := 0
	var couponCode *string
	if in.CouponCode != "" {
		offer, err := s.offers.FindByCode(ctx, in.CouponCode)
		if err != nil {
			return CreateOrderResult{}, err
		}
		if !offer.IsValid(time.Now()) {
			return CreateOrderResult{}, orders.ErrOfferNotAvailable
		}
		if subtotal < offer.MinAmountPaise {
			return CreateOrderResult{}, orders.ErrOfferMinAmount
		}
		if !offer.AppliesTo(ids) {
			return CreateOrderResult{}, orders.ErrOfferNotApplicable
		}
		discount = offer.DiscountPaise(subtotal, shipping)
		couponCode = &offer.Code
	}

	total := subtotal + shipping - discount
	if total < 0 {
		total = 0
	}

	now := time.Now()
	ord := orders.Order{
		ID:                  uuid.NewString(),
		OrderNumber:         fmt.Sprintf("NYR%d", now.UnixMilli()),
		UserID:              in.UserID,
		SubtotalPaise:       subtotal,
		ShippingPaise:       shipping,
		DiscountPaise:       discount,
		TotalPaise:          total,
		Currency:            "INR",
		Status:              orders.StatusPending,
		PaymentStatus:       orders.PaymentPending,
		CouponCode:          couponCode,
		ShippingAddressJSON: datatypes.JSON(in.ShippingAddress),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			return err
		}
		for _, it := range in.Items {
			p := prods[it.ProductID]
			row := orders.OrderItem{
				ID:             uuid.NewString(),
				OrderID:        ord.ID,
				ProductID:      p.ID,
				Name:           p.Name,
				UnitPricePaise: p.PricePaise,
				Image:          p.Image,
				Quantity:       it.Quantity,
				CreatedAt:      now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	// Gateway call outside the transaction; on failure the order stays
	// pending and can be retried or cancelled out of band.
	gw, err := s.gateway.CreateOrder(ctx, CreateGatewayOrderRequest{
		AmountPaise: total,
		Currency:    ord.Currency,
		Receipt:     ord.OrderNumber,
		Notes:       map[string]string{"order_id": ord.ID},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway order creation failed",
			"gateway", s.gateway.Name(), "order_id", ord.ID, "order_number", ord.OrderNumber, "err", err)
		return CreateOrderResult{}, err
	}

	if err := s.db.WithContext(ctx).Model(&orders.Order{}).
		Where("id = ?", ord.ID).
		Updates(map[string]any{"razorpay_order_id": gw.ID, "updated_at": time.Now()}).Error; err != nil {
		return CreateOrderResult{}, err
	}

	return CreateOrderResult{
		OrderID:         ord.ID,
		OrderNumber:     ord.OrderNumber,
		AmountPaise:     total,
		Currency:        ord.Currency,
		RazorpayOrderID: gw.ID,
	}, nil
}
