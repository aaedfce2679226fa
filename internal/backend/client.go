// Package backend is the client for the coffee-shop REST API, which owns the
// catalog, accounts and token issuance.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
	"github.com/khalifgfrz/coffee-shop-storefront/pkg/httpclient"
)

const serviceName = "coffee-shop-api"

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// envelope is the response body shape of every backend endpoint.
type envelope[T any] struct {
	Msg  string `json:"msg"`
	Data T      `json:"data"`
	Meta *meta  `json:"meta,omitempty"`
}

type meta struct {
	Page      int `json:"page"`
	TotalPage int `json:"totalPage"`
}

type loginData struct {
	Token string `json:"token"`
}

// Client calls the coffee-shop REST API.
type Client struct {
	doer    HTTPDoer
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a backend client. A zero timeout leaves the caller's
// deadline in charge.
func NewClient(doer HTTPDoer, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// ListProducts fetches one page of the product listing.
func (c *Client) ListProducts(ctx context.Context, f domain.ListingFilter) (*domain.ProductPage, error) {
	q := url.Values{}
	if f.ProductName != "" {
		q.Set("product_name", f.ProductName)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.SortBy != "" {
		q.Set("sortBy", f.SortBy)
	}
	q.Set("min_price", strconv.FormatInt(f.MinPrice, 10))
	q.Set("max_price", strconv.FormatInt(f.MaxPrice, 10))
	page := f.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	var env envelope[[]domain.Product]
	if err := c.call(ctx, http.MethodGet, "/product?"+q.Encode(), "", nil, &env); err != nil {
		return nil, err
	}

	result := &domain.ProductPage{
		Products:  env.Data,
		Page:      page,
		TotalPage: 1,
	}
	if result.Products == nil {
		result.Products = []domain.Product{}
	}
	if env.Meta != nil {
		result.TotalPage = env.Meta.TotalPage
		if env.Meta.Page > 0 {
			result.Page = env.Meta.Page
		}
	}
	return result, nil
}

// GetProduct fetches a single product by UUID.
func (c *Client) GetProduct(ctx context.Context, uuid string) (*domain.Product, error) {
	var env envelope[[]domain.Product]
	if err := c.call(ctx, http.MethodGet, "/product/"+url.PathEscape(uuid), "", nil, &env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, apperrors.NotFound("product", uuid)
	}
	return &env.Data[0], nil
}

// Login exchanges credentials for a bearer token. A rejected login returns
// an AppError whose message is the backend's reason.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var env envelope[[]loginData]
	if err := c.call(ctx, http.MethodPost, "/user/login", "", creds, &env); err != nil {
		return "", err
	}
	if len(env.Data) == 0 || env.Data[0].Token == "" {
		return "", apperrors.Upstream("login response carried no token", fmt.Errorf("%s: empty data", serviceName))
	}
	return env.Data[0].Token, nil
}

// UpdateProfile forwards the profile change with the shopper's token.
func (c *Client) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	var env envelope[[]domain.UserProfile]
	if err := c.call(ctx, http.MethodPatch, "/user/settings", token, upd, &env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return &domain.UserProfile{}, nil
	}
	return &env.Data[0], nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("%s returned status %d", serviceName, statusErr.StatusCode)
		}
		return fmt.Errorf("ping %s: %w", serviceName, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "backend call failed",
			slog.String("method", method),
			slog.String("path", req.URL.Path),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return httpclient.MapTransportError(err, serviceName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.InfoContext(ctx, "backend rejected request",
			slog.String("method", method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
		)
		return httpclient.ParseResponseError(resp, serviceName)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Upstream("malformed response from "+serviceName, fmt.Errorf("decode %s %s response: %w", method, path, err))
	}

	c.logger.DebugContext(ctx, "backend call",
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
