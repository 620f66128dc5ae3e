// Package tankmeter talks to the external tank and pump meter system.
// Readings feed the settlement reconciliation; volume adjustments return
// test liters drawn during pump checks back to the tank.
package tankmeter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	settlement "fuelstation-backoffice/internal/settlement/domain"
)

// ExpectedAmountResponse is the meter system's shift reading.
type ExpectedAmountResponse struct {
	PumpID    string  `json:"pump_id"`
	Shift     string  `json:"shift"`
	Amount    float64 `json:"amount"`
	UnitPrice float64 `json:"unit_price"`
}

type volumeAdjustmentRequest struct {
	TankID      string  `json:"tank_id"`
	Volume      float64 `json:"volume"`
	Note        string  `json:"note,omitempty"`
	ReferenceID string  `json:"reference_id"`
}

// Client calls the tank meter HTTP API.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().SetTimeout(timeout)
	return &Client{http: httpClient, baseURL: baseURL}
}

// GetExpectedAmount fetches the expected sales amount for a pump shift.
func (c *Client) GetExpectedAmount(ctx context.Context, pumpID string, date time.Time, shift settlement.Shift) (float64, float64, error) {
	var out ExpectedAmountResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"pump_id": pumpID,
			"date":    date.UTC().Format("2006-01-02"),
			"shift":   string(shift),
		}).
		SetResult(&out).
		Get(c.baseURL + "/api/meter/expected")
	if err != nil {
		return 0, 0, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, 0, fmt.Errorf("tank meter expected-amount status: %d", resp.StatusCode())
	}
	return out.Amount, out.UnitPrice, nil
}

// ApplyVolumeAdjustment posts a signed volume change against a tank.
// The reference id makes retried posts detectable on the meter side.
func (c *Client) ApplyVolumeAdjustment(ctx context.Context, tankID string, signedVolume float64, note, refID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(volumeAdjustmentRequest{
			TankID:      tankID,
			Volume:      signedVolume,
			Note:        note,
			ReferenceID: refID,
		}).
		Post(c.baseURL + "/api/tanks/adjustments")
	if err != nil {
		return err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		// Conflict means the reference id was already applied.
		return nil
	default:
		return fmt.Errorf("tank volume adjustment status: %d", resp.StatusCode())
	}
}
