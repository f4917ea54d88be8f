// Package client is the data layer used by front ends of the inventory API.
// It wraps the HTTP API and derives sorted, filtered pages from fetched records.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/noob2628/Inventory-App/types"
)

const fetchPageSize = 100

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory api error: status=%d, message=%s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// AuthResult is returned by Login and Signup.
type AuthResult struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// ListOptions mirrors the list query parameters.
type ListOptions struct {
	Search string
	Sort   string
	Order  string
	Page   int
	Limit  int
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of the list endpoint.
type Page struct {
	Data       []types.InventoryRecord `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// Client is a resty-backed API client. It remembers the token from the last
// successful Login or Signup.
type Client struct {
	httpClient *resty.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{httpClient: restyClient}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, path, body, &result, nil); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(result.Token)
	return result, nil
}

func (c *Client) Me(ctx context.Context) (types.User, error) {
	var user types.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user, nil)
	return user, err
}

func (c *Client) ListPage(ctx context.Context, opts ListOptions) (Page, error) {
	params := map[string]string{}
	if opts.Search != "" {
		params["search"] = opts.Search
	}
	if opts.Sort != "" {
		params["sort"] = opts.Sort
	}
	if opts.Order != "" {
		params["order"] = opts.Order
	}
	if opts.Page > 0 {
		params["page"] = strconv.Itoa(opts.Page)
	}
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}

	var page Page
	err := c.do(ctx, http.MethodGet, "/inventory", nil, &page, params)
	return page, err
}

// FetchAll walks every page and returns the complete record set.
func (c *Client) FetchAll(ctx context.Context) ([]types.InventoryRecord, error) {
	var all []types.InventoryRecord
	for page := 1; ; page++ {
		result, err := c.ListPage(ctx, ListOptions{Page: page, Limit: fetchPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, result.Data...)
		if page >= result.Pagination.TotalPages || len(result.Data) == 0 {
			return all, nil
		}
	}
}

func (c *Client) Get(ctx context.Context, id int) (types.InventoryRecord, error) {
	return c.record(ctx, http.MethodGet, fmt.Sprintf("/inventory/%d", id), nil)
}

func (c *Client) Summary(ctx context.Context) (types.InventorySummary, error) {
	var summary types.InventorySummary
	err := c.do(ctx, http.MethodGet, "/inventory/summary", nil, &summary, nil)
	return summary, err
}

func (c *Client) Create(ctx context.Context, patch types.InventoryPatch) (types.InventoryRecord, error) {
	return c.record(ctx, http.MethodPost, "/inventory", patch)
}

// Update sends only the keys set on patch.
func (c *Client) Update(ctx context.Context, id int, patch types.InventoryPatch) (types.InventoryRecord, error) {
	return c.record(ctx, http.MethodPut, fmt.Sprintf("/inventory/%d", id), patch)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/inventory/%d", id), nil, nil, nil)
}

func (c *Client) Duplicate(ctx context.Context, id int) (types.InventoryRecord, error) {
	return c.record(ctx, http.MethodPost, fmt.Sprintf("/inventory/%d/duplicate", id), nil)
}

func (c *Client) SetRefillStatus(ctx context.Context, id int, status types.RefillStatus) (types.InventoryRecord, error) {
	return c.record(ctx, http.MethodPost, fmt.Sprintf("/inventory/%d/refill", id), map[string]string{
		"refill_status": string(status),
	})
}

func (c *Client) record(ctx context.Context, method, path string, body any) (types.InventoryRecord, error) {
	var record types.InventoryRecord
	err := c.do(ctx, method, path, body, &record, nil)
	return record, err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, params map[string]string) error {
	apiErr := new(errorBody)
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(apiErr)
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error
		if message == "" {
			message = http.StatusText(resp.StatusCode())
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: message}
	}
	return nil
}
