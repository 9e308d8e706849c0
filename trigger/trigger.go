// Package trigger talks to the remote job service that actually runs
// the scraping pipeline. The monitor only ever starts runs; progress
// and results are read back from Postgres.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type runRequest struct {
	AgencyID uuid.UUID `json:"agency_id"`
}

// StartRun asks the job service to execute a scraping run for the
// agency. No response body is relied upon; any non-2xx status is an
// error carrying the body for diagnosis.
func (c *Client) StartRun(ctx context.Context, agencyID uuid.UUID) error {
	body, err := json.Marshal(runRequest{AgencyID: agencyID})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/run-agency", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trigger run failed %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
