// Package creditledger mirrors settlement credit sales into the external
// per-customer credit ledger.
package creditledger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type creditSaleRequest struct {
	CustomerID  string    `json:"customer_id"`
	Amount      float64   `json:"amount"`
	ReferenceID string    `json:"reference_id"`
	SoldAt      time.Time `json:"sold_at"`
	StaffID     string    `json:"staff_id"`
}

// Client calls the credit ledger HTTP API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().SetTimeout(timeout)
	return &Client{http: httpClient, baseURL: baseURL}
}

// RecordCreditSale posts one credit sale. The reference id is unique per
// (settlement, customer) pair so replays are accepted without a second
// charge; the ledger answers 409 for an already recorded reference. The
// staff id names the cashier who collected the credit sale.
func (c *Client) RecordCreditSale(ctx context.Context, customerID string, amount float64, refID string, soldAt time.Time, staffID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(creditSaleRequest{
			CustomerID:  customerID,
			Amount:      amount,
			ReferenceID: refID,
			SoldAt:      soldAt.UTC(),
			StaffID:     staffID,
		}).
		Post(c.baseURL + "/api/credit/sales")
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	default:
		return fmt.Errorf("credit sale status: %d", resp.StatusCode())
	}
}
