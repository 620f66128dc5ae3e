// Package procurement updates purchase order account checks in the
// external procurement system.
package procurement

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type accountCheckRequest struct {
	Status string `json:"status"`
}

// Client calls the procurement HTTP API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().SetTimeout(timeout)
	return &Client{http: httpClient, baseURL: baseURL}
}

// MarkAccountSufficient flips the order's account check to sufficient.
// An order already marked answers 409, which counts as done.
func (c *Client) MarkAccountSufficient(ctx context.Context, orderID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(accountCheckRequest{Status: "sufficient"}).
		Post(c.baseURL + "/api/purchase-orders/" + orderID + "/account-check")
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	default:
		return fmt.Errorf("account check status: %d", resp.StatusCode())
	}
}
