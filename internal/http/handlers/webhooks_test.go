package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nyra.shop/app/internal/mailer"
	"nyra.shop/app/internal/modules/orders"
	"nyra.shop/app/internal/modules/payments"
	"nyra.shop/app/internal/modules/products"
)

func newWebhookEngine(t *testing.T, db *gorm.DB) *testWebhookEnv {
	t.Helper()

	rec, mock := newTestReconciler(t, db)
	svc := payments.NewWebhookService(db, rec)
	svc.SetLogger(discardLogger())
	h := NewWebhookHandler(svc, testWebhookSecret, discardLogger())

	r := newTestEngine()
	r.POST("/api/webhooks/razorpay", h.Razorpay)
	return &testWebhookEnv{engine: r, mailer: mock}
}

type testWebhookEnv struct {
	engine *gin.Engine
	mailer *mailer.Mock
}

func (e *testWebhookEnv) deliver(body []byte, sig, eventID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set("X-Razorpay-Signature", sig)
	}
	if eventID != "" {
		req.Header.Set("X-Razorpay-Event-Id", eventID)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpoint(t *testing.T) {
	capturedBody := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_h1","order_id":"order_h1"}}}}`)

	t.Run("missing signature is rejected", func(t *testing.T) {
		env := newWebhookEngine(t, newTestDB(t))
		w := env.deliver(capturedBody, "", "evt_h1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		env := newWebhookEngine(t, newTestDB(t))
		sig := hmacHex(testWebhookSecret, capturedBody)
		tampered := bytes.Replace(capturedBody, []byte("pay_h1"), []byte("pay_h2"), 1)
		w := env.deliver(tampered, sig, "evt_h1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid payment.captured completes the order and acks", func(t *testing.T) {
		db := newTestDB(t)
		env := newWebhookEngine(t, db)
		o, p := seedPaidableOrder(t, db, "order_h1")

		w := env.deliver(capturedBody, hmacHex(testWebhookSecret, capturedBody), "evt_h1")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["received"])

		var got orders.Order
		require.NoError(t, db.First(&got, "id = ?", o.ID).Error)
		assert.Equal(t, orders.PaymentCompleted, got.PaymentStatus)

		var prod products.Product
		require.NoError(t, db.First(&prod, "id = ?", p.ID).Error)
		assert.Equal(t, 8, prod.Stock)

		assert.Equal(t, 1, env.mailer.SentCount())
	})

	t.Run("redelivery acks without repeating effects", func(t *testing.T) {
		db := newTestDB(t)
		env := newWebhookEngine(t, db)
		_, p := seedPaidableOrder(t, db, "order_h1")

		sig := hmacHex(testWebhookSecret, capturedBody)
		require.Equal(t, http.StatusOK, env.deliver(capturedBody, sig, "evt_h1").Code)
		require.Equal(t, http.StatusOK, env.deliver(capturedBody, sig, "evt_h1").Code)

		var prod products.Product
		require.NoError(t, db.First(&prod, "id = ?", p.ID).Error)
		assert.Equal(t, 8, prod.Stock)
		assert.Equal(t, 1, env.mailer.SentCount())
	})

	t.Run("authentic but unparseable body is acked", func(t *testing.T) {
		env := newWebhookEngine(t, newTestDB(t))
		body := []byte(`{"not":"an envelope"}`)
		w := env.deliver(body, hmacHex(testWebhookSecret, body), "evt_h3")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown event type is acked", func(t *testing.T) {
		env := newWebhookEngine(t, newTestDB(t))
		body := []byte(`{"event":"refund.created","payload":{}}`)
		w := env.deliver(body, hmacHex(testWebhookSecret, body), "evt_h4")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["received"])
	})

	t.Run("webhook for an unknown order is acked", func(t *testing.T) {
		env := newWebhookEngine(t, newTestDB(t))
		w := env.deliver(capturedBody, hmacHex(testWebhookSecret, capturedBody), "evt_h5")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
