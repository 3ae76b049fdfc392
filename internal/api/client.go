// Package api is a client for the shop's REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

// ErrUnauthorized is matched by errors for 401 and 403 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api status %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Message returns the server-provided message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CustomerUpdate is the body of a customer update. An empty Password is
// omitted so the stored credential is left unchanged.
type CustomerUpdate struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Password string `json:"password,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", "", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return out.Token, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error) {
	var out struct {
		Order *domain.Order `json:"order"`
	}
	body := map[string]domain.OrderStatus{"status": status}
	if err := c.doJSON(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id), token, body, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, fmt.Errorf("update order response carried no order")
	}
	return out.Order, nil
}

func (c *Client) DeleteOrder(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct posts a multipart product payload and returns the server's
// confirmation message.
func (c *Client) CreateProduct(ctx context.Context, body io.Reader, contentType string) (string, error) {
	return c.doMultipart(ctx, http.MethodPost, "/api/products/create", body, contentType)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, body io.Reader, contentType string) (string, error) {
	return c.doMultipart(ctx, http.MethodPut, "/api/products/update/"+url.PathEscape(id), body, contentType)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/products/delete/"+url.PathEscape(id), "", nil, nil)
}

func (c *Client) ListCustomers(ctx context.Context, token string) ([]domain.Customer, error) {
	var out []domain.Customer
	if err := c.doJSON(ctx, http.MethodGet, "/api/customers", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, token, id string, upd CustomerUpdate) (*domain.Customer, error) {
	var out struct {
		Customer *domain.Customer `json:"customer"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/customers/"+url.PathEscape(id), token, upd, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, fmt.Errorf("update customer response carried no customer")
	}
	return out.Customer, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, body io.Reader, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)

	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError builds an *Error from a non-2xx response, picking up the
// "message" field of a JSON body when there is one.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
