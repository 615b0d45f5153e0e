package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nyra.shop/app/internal/modules/orders"
)

// GatewayEvent journals every webhook delivery. The unique
// (provider, event_id) pair marks redeliveries; the conditional
// transition in the reconciler guarantees single application, so the
// journal exists for the audit trail, not for correctness.
type GatewayEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_gateway_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_gateway_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime;not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }

// WebhookEvent is the validated form of a gateway delivery, extracted
// from the loosely-typed envelope before any business logic runs.
type WebhookEvent struct {
	EventID           string // from X-Razorpay-Event-Id; may be empty
	Type              string // "payment.captured", "order.paid", ...
	RazorpayOrderID   string
	RazorpayPaymentID string
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseWebhookEvent validates the raw body into a WebhookEvent. Only the
// envelope shape is checked here; unknown event types parse fine and are
// ignored downstream.
func ParseWebhookEvent(body []byte, eventID string) (WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return WebhookEvent{}, err
	}
	if env.Event == "" {
		return WebhookEvent{}, errors.New("webhook event type missing")
	}

	ev := WebhookEvent{EventID: eventID, Type: env.Event}
	if env.Payload.Payment.Entity.ID != "" {
		ev.RazorpayPaymentID = env.Payload.Payment.Entity.ID
		ev.RazorpayOrderID = env.Payload.Payment.Entity.OrderID
	} else if env.Payload.Order.Entity.ID != "" {
		ev.RazorpayOrderID = env.Payload.Order.Entity.ID
	}
	return ev, nil
}

type WebhookService struct {
	db     *gorm.DB
	orders *orders.Repo
	rec    *Reconciler
	logger *slog.Logger
}

func NewWebhookService(db *gorm.DB, rec *Reconciler) *WebhookService {
	return &WebhookService{
		db:     db,
		orders: orders.NewRepo(db),
		rec:    rec,
		logger: slog.Default(),
	}
}

func (s *WebhookService) SetLogger(logger *slog.Logger) { s.logger = logger }

// Handle journals and applies one webhook delivery. A non-nil error
// means internal processing failed; the HTTP handler still acknowledges
// the event (signature failures are the only rejection), so the gateway
// is never induced into redelivery storms.
//
// A redelivered event id hits the journal's unique key; the apply still
// runs, since the conditional transition makes it idempotent. Redelivery
// is what retries work the first delivery left unfinished: a pending
// confirmation email, or an apply that failed outright.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) error {
	now := time.Now()

	var journalID string
	if ev.EventID != "" {
		pe := GatewayEvent{
			ID:          uuid.NewString(),
			Provider:    providerName,
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PayloadJSON: datatypes.JSON(rawBody),
			ReceivedAt:  now,
		}
		switch err := s.db.WithContext(ctx).Create(&pe).Error; {
		case err == nil:
			journalID = pe.ID
		case isDup(err):
			s.logger.InfoContext(ctx, "webhook event redelivered",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
		default:
			return err
		}
	}

	applyErr := s.apply(ctx, ev)

	if journalID != "" {
		updates := map[string]any{"processed_at": time.Now(), "process_error": nil}
		if applyErr != nil {
			updates["process_error"] = truncate(applyErr.Error(), 250)
		}
		if err := s.db.WithContext(ctx).Model(&GatewayEvent{}).
			Where("id = ?", journalID).
			Updates(updates).Error; err != nil {
			s.logger.ErrorContext(ctx, "updating webhook journal failed",
				"event_id", ev.EventID, "err", err)
		}
	}

	if applyErr != nil {
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "err", applyErr)
	}
	return applyErr
}

func (s *WebhookService) apply(ctx context.Context, ev WebhookEvent) error {
	switch ev.Type {
	case "payment.captured":
		if ev.RazorpayOrderID == "" || ev.RazorpayPaymentID == "" {
			s.logger.WarnContext(ctx, "payment.captured without gateway ids", "event_id", ev.EventID)
			return nil
		}
		o, err := s.orders.FindByRazorpayOrderID(ctx, ev.RazorpayOrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "webhook for unknown order",
				"razorpay_order_id", ev.RazorpayOrderID, "type", ev.Type)
			return nil
		}
		if err != nil {
			return err
		}
		_, err = s.rec.Complete(ctx, &o, CompleteOptions{
			RazorpayOrderID:   ev.RazorpayOrderID,
			RazorpayPaymentID: ev.RazorpayPaymentID,
			SideEffects:       true,
		})
		return err

	case "order.paid":
		// Coarse fallback: status transition only, no payment id and no
		// side effects.
		if ev.RazorpayOrderID == "" {
			return nil
		}
		o, err := s.orders.FindByRazorpayOrderID(ctx, ev.RazorpayOrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "webhook for unknown order",
				"razorpay_order_id", ev.RazorpayOrderID, "type", ev.Type)
			return nil
		}
		if err != nil {
			return err
		}
		_, err = s.rec.Complete(ctx, &o, CompleteOptions{
			RazorpayOrderID: ev.RazorpayOrderID,
			SideEffects:     false,
		})
		return err

	default:
		s.logger.InfoContext(ctx, "unhandled gateway webhook event", "type", ev.Type)
		return nil
	}
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
