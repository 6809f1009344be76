// Package client talks to the household hub REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billbatista/household-hub/appliance"
	"github.com/billbatista/household-hub/calendar"
	"github.com/billbatista/household-hub/eventlogger"
	"github.com/billbatista/household-hub/ledger"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/shopping"
	"github.com/google/uuid"
)

// APIError is a non-2xx response. Message carries the server's "error"
// field, or the status text when the body had none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Message struct {
	Message string `json:"message"`
}

type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send decodes the response into a fresh T and returns the zero value on
// error.
func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	if err := c.do(ctx, method, path, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	return send[*Health](ctx, c, http.MethodGet, "/api/health", nil)
}

func (c *Client) Members(ctx context.Context) ([]member.Member, error) {
	return send[[]member.Member](ctx, c, http.MethodGet, "/api/members", nil)
}

func (c *Client) Member(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	return send[*member.Member](ctx, c, http.MethodGet, "/api/members/"+id.String(), nil)
}

func (c *Client) CreateMember(ctx context.Context, in member.Input) (*member.Member, error) {
	return send[*member.Member](ctx, c, http.MethodPost, "/api/members", in)
}

func (c *Client) UpdateMember(ctx context.Context, id uuid.UUID, in member.Input) (*member.Member, error) {
	return send[*member.Member](ctx, c, http.MethodPut, "/api/members/"+id.String(), in)
}

func (c *Client) DeleteMember(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/members/"+id.String(), nil, nil)
}

func (c *Client) Expenses(ctx context.Context) ([]ledger.Expense, error) {
	return send[[]ledger.Expense](ctx, c, http.MethodGet, "/api/expenses", nil)
}

func (c *Client) Balances(ctx context.Context) ([]ledger.Balance, error) {
	return send[[]ledger.Balance](ctx, c, http.MethodGet, "/api/expenses/balance", nil)
}

func (c *Client) Settlements(ctx context.Context) ([]ledger.Settlement, error) {
	return send[[]ledger.Settlement](ctx, c, http.MethodGet, "/api/expenses/settlements", nil)
}

func (c *Client) AddExpense(ctx context.Context, in ledger.NewExpense) (*ledger.Expense, error) {
	return send[*ledger.Expense](ctx, c, http.MethodPost, "/api/expenses", in)
}

// DeleteExpense succeeds for ids the server no longer knows.
func (c *Client) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/expenses/"+id.String(), nil, nil)
}

func (c *Client) ShoppingList(ctx context.Context) ([]shopping.Item, error) {
	return send[[]shopping.Item](ctx, c, http.MethodGet, "/api/shopping", nil)
}

func (c *Client) AddShoppingItem(ctx context.Context, in shopping.Input) (*shopping.Item, error) {
	return send[*shopping.Item](ctx, c, http.MethodPost, "/api/shopping", in)
}

func (c *Client) MarkPurchased(ctx context.Context, id uuid.UUID, by uuid.NullUUID) (*shopping.Item, error) {
	body := map[string]uuid.NullUUID{"purchased_by": by}
	return send[*shopping.Item](ctx, c, http.MethodPut, "/api/shopping/"+id.String()+"/purchase", body)
}

func (c *Client) UnmarkPurchased(ctx context.Context, id uuid.UUID) (*shopping.Item, error) {
	return send[*shopping.Item](ctx, c, http.MethodPut, "/api/shopping/"+id.String()+"/unpurchase", nil)
}

func (c *Client) DeleteShoppingItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/shopping/"+id.String(), nil, nil)
}

// ClearPurchased reports how many purchased items were removed.
func (c *Client) ClearPurchased(ctx context.Context) (int64, error) {
	var out struct {
		Removed int64 `json:"removed"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/shopping/purchased/clear", nil, &out)
	return out.Removed, err
}

func (c *Client) Events(ctx context.Context) ([]calendar.Event, error) {
	return send[[]calendar.Event](ctx, c, http.MethodGet, "/api/events", nil)
}

// UpcomingEvents asks for at most limit events; zero leaves the server
// default.
func (c *Client) UpcomingEvents(ctx context.Context, limit int) ([]calendar.Event, error) {
	path := "/api/events/upcoming"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return send[[]calendar.Event](ctx, c, http.MethodGet, path, nil)
}

func (c *Client) AddEvent(ctx context.Context, in calendar.Input) (*calendar.Event, error) {
	return send[*calendar.Event](ctx, c, http.MethodPost, "/api/events", in)
}

func (c *Client) UpdateEvent(ctx context.Context, id uuid.UUID, in calendar.Input) (*calendar.Event, error) {
	return send[*calendar.Event](ctx, c, http.MethodPut, "/api/events/"+id.String(), in)
}

func (c *Client) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id.String(), nil, nil)
}

func (c *Client) Appliances(ctx context.Context) ([]appliance.Appliance, error) {
	return send[[]appliance.Appliance](ctx, c, http.MethodGet, "/api/appliances", nil)
}

func (c *Client) StartAppliance(ctx context.Context, id uuid.UUID, in appliance.StartInput) (*appliance.Appliance, error) {
	return send[*appliance.Appliance](ctx, c, http.MethodPut, "/api/appliances/"+id.String()+"/start", in)
}

func (c *Client) FinishAppliance(ctx context.Context, id uuid.UUID) (*appliance.Appliance, error) {
	return send[*appliance.Appliance](ctx, c, http.MethodPut, "/api/appliances/"+id.String()+"/done", nil)
}

func (c *Client) ResetAppliance(ctx context.Context, id uuid.UUID) (*appliance.Appliance, error) {
	return send[*appliance.Appliance](ctx, c, http.MethodPut, "/api/appliances/"+id.String()+"/reset", nil)
}

func (c *Client) Activity(ctx context.Context, eventType string, limit int) ([]eventlogger.Event, error) {
	q := url.Values{"type": {eventType}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return send[[]eventlogger.Event](ctx, c, http.MethodGet, "/api/activity?"+q.Encode(), nil)
}
