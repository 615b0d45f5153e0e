package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nyra.shop/app/internal/config"
)

// RazorpayGateway talks to the Razorpay Orders REST API with basic auth
// (key id / key secret).
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	httpc     *http.Client
}

func NewRazorpayGateway(cfg config.RazorpayConfig) *RazorpayGateway {
	base := cfg.APIBaseURL
	if base == "" {
		base = "https://api.razorpay.com/v1"
	}
	return &RazorpayGateway{
		baseURL:   base,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		httpc:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *RazorpayGateway) Name() string { return "razorpay" }

type rzpOrderRequest struct {
	Amount   int               `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type rzpOrderResponse struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type rzpErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req CreateGatewayOrderRequest) (GatewayOrder, error) {
	body, err := json.Marshal(rzpOrderRequest{
		Amount:   req.AmountPaise,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return GatewayOrder{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return GatewayOrder{}, err
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.httpc.Do(httpReq)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if res.StatusCode >= 400 {
		var e rzpErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error.Description != "" {
			return GatewayOrder{}, fmt.Errorf("%w: %s (%s)", ErrGateway, e.Error.Description, e.Error.Code)
		}
		return GatewayOrder{}, fmt.Errorf("%w: status %d", ErrGateway, res.StatusCode)
	}

	var out rzpOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: decode: %v", ErrGateway, err)
	}
	if out.ID == "" {
		return GatewayOrder{}, fmt.Errorf("%w: empty order id in response", ErrGateway)
	}

	return GatewayOrder{
		ID:          out.ID,
		AmountPaise: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
		Status:      out.Status,
	}, nil
}
