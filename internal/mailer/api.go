package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIMailer delivers through a transactional email HTTP API (Mailtrap
// and compatible). Used where outbound SMTP is blocked.
type APIMailer struct {
	apiURL string
	apiKey string
	httpc  *http.Client
}

func NewAPIMailer(apiURL, apiKey string) *APIMailer {
	return &APIMailer{
		apiURL: apiURL,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

type apiPerson struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiPayload struct {
	From     apiPerson   `json:"from"`
	To       []apiPerson `json:"to"`
	Subject  string      `json:"subject"`
	Text     string      `json:"text,omitempty"`
	HTML     string      `json:"html,omitempty"`
	Category string      `json:"category,omitempty"`
}

func (m *APIMailer) Send(ctx context.Context, e Email) error {
	if m.apiURL == "" || m.apiKey == "" {
		return fmt.Errorf("mailer: api credentials not configured")
	}
	if len(e.To) == 0 {
		return fmt.Errorf("mailer: at least one recipient required")
	}

	to := make([]apiPerson, len(e.To))
	for i, addr := range e.To {
		to[i] = apiPerson{Email: addr}
	}

	payload := apiPayload{
		From:     apiPerson{Email: e.From, Name: e.FromName},
		To:       to,
		Subject:  e.Subject,
		Text:     e.TextBody,
		HTML:     e.HTMLBody,
		Category: "Transactional",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("mailer: api error: %d", res.StatusCode)
	}
	return nil
}
