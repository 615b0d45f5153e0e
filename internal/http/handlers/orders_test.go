package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nyra.shop/app/internal/http/middleware"
)

func newOrdersEngine(t *testing.T, db *gorm.DB, userID string) *gin.Engine {
	t.Helper()
	h := NewOrdersHandler(db, discardLogger())

	r := newTestEngine()
	asUser := func(c *gin.Context) {
		middleware.SetCurrentUser(c, middleware.CurrentUserInfo{ID: userID, Name: "Asha Rao", Email: "asha@example.com"})
		c.Next()
	}
	r.GET("/api/orders", asUser, h.List)
	r.GET("/api/orders/:id", asUser, h.Detail)
	return r
}

func getPath(t *testing.T, engine http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestOrderDetailEndpoint(t *testing.T) {
	t.Run("returns the order with its items", func(t *testing.T) {
		db := newTestDB(t)
		o, _ := seedPaidableOrder(t, db, "order_d1")
		engine := newOrdersEngine(t, db, o.UserID)

		w := getPath(t, engine, "/api/orders/"+o.ID)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				OrderNumber     string `json:"orderNumber"`
				PaymentStatus   string `json:"paymentStatus"`
				RazorpayOrderID string `json:"razorpayOrderId"`
				Items           []struct {
					Name     string `json:"name"`
					Quantity int    `json:"quantity"`
				} `json:"items"`
			} `json:"data"`
		}
		decodeJSON(t, w, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, o.OrderNumber, resp.Data.OrderNumber)
		assert.Equal(t, "order_d1", resp.Data.RazorpayOrderID)
		require.Len(t, resp.Data.Items, 1)
		assert.Equal(t, "Silk Scarf", resp.Data.Items[0].Name)
		assert.Equal(t, 2, resp.Data.Items[0].Quantity)
	})

	t.Run("another customer's order reads as not found", func(t *testing.T) {
		db := newTestDB(t)
		o, _ := seedPaidableOrder(t, db, "order_d2")
		engine := newOrdersEngine(t, db, "someone-else")

		w := getPath(t, engine, "/api/orders/"+o.ID)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		db := newTestDB(t)
		engine := newOrdersEngine(t, db, "user-1")
		w := getPath(t, engine, "/api/orders/missing-id")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderListEndpoint(t *testing.T) {
	db := newTestDB(t)
	o, _ := seedPaidableOrder(t, db, "order_l1")
	engine := newOrdersEngine(t, db, o.UserID)

	w := getPath(t, engine, "/api/orders")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Orders []struct {
				OrderNumber string `json:"orderNumber"`
				ItemCount   int    `json:"itemCount"`
			} `json:"orders"`
			Total int `json:"total"`
			Page  int `json:"page"`
		} `json:"data"`
	}
	decodeJSON(t, w, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Orders, 1)
	assert.Equal(t, o.OrderNumber, resp.Data.Orders[0].OrderNumber)
	assert.Equal(t, 1, resp.Data.Orders[0].ItemCount)
}
