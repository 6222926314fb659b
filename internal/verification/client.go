// Package verification talks to the external talent-verification and mailing backend.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrOffline is returned without a network call when no backend URL is configured.
var ErrOffline = errors.New("verification backend offline")

// APIError is a non-2xx answer. The backend reports failures as {"message": "..."}.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("verification backend: status=%d message=%s", e.Status, e.Message)
}

type TalentApplication struct {
	MitraID      int64  `json:"mitraId"`
	TalentID     int64  `json:"talentId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	City         string `json:"city,omitempty"`
	PricePerHour int64  `json:"pricePerHour"`
}

type LoginResult struct {
	Status string `json:"status"`
}

type PendingTalent struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	PricePerHour int64     `json:"pricePerHour"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BookingNotice is the payload of confirmation and reminder mails.
type BookingNotice struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	BookingID  int64  `json:"bookingId"`
	TalentName string `json:"talentName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Duration   int    `json:"duration"`
	Total      int64  `json:"total"`
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	offline atomic.Bool
	loggerf func(format string, args ...interface{})
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		loggerf: log.Printf,
	}
	if c.baseURL == "" {
		c.offline.Store(true)
	}
	return c
}

// Offline reports whether the last call failed to reach the backend.
func (c *Client) Offline() bool { return c.offline.Load() }

func (c *Client) RegisterTalent(ctx context.Context, app TalentApplication) error {
	return c.do(ctx, http.MethodPost, "/register-talent", app, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendApproval(ctx context.Context, email, name string) error {
	return c.do(ctx, http.MethodPost, "/send-approval", map[string]string{"email": email, "name": name}, nil)
}

func (c *Client) SendConfirmation(ctx context.Context, n BookingNotice) error {
	return c.do(ctx, http.MethodPost, "/send-confirmation", n, nil)
}

func (c *Client) SendReminder(ctx context.Context, n BookingNotice) error {
	return c.do(ctx, http.MethodPost, "/send-reminder", n, nil)
}

func (c *Client) PendingTalents(ctx context.Context) ([]PendingTalent, error) {
	var out []PendingTalent
	if err := c.do(ctx, http.MethodGet, "/pending-talents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if c.baseURL == "" {
		return ErrOffline
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("verification: encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("verification: build %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if !c.offline.Swap(true) {
			c.loggerf("level=warn msg=verification_backend_offline path=%s err=%v", path, err)
		}
		return fmt.Errorf("verification: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.offline.Swap(false) {
		c.loggerf("level=info msg=verification_backend_online path=%s", path)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("verification: read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("verification: decode %s: %w", path, err)
	}
	return nil
}
