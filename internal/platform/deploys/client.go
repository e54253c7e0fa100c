package deploys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable marks transport failures talking to the activity oracle.
// These are transient; callers must not treat them as a conclusive answer.
var ErrUnavailable = errors.New("activity oracle unavailable")

// Client implements deploy-count lookups via the chain activity oracle's
// HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetDeployCount returns the number of deploys recorded for the account.
// A zero count with a nil error is a conclusive negative.
func (c *Client) GetDeployCount(ctx context.Context, publicKey string) (int, error) {
	url := fmt.Sprintf("%s/accounts/%s/deploys?page=1&limit=1", c.baseURL, publicKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// The oracle answers 404 for accounts it has no deploys recorded for.
	// That is a conclusive zero, not an outage.
	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		ItemCount int `json:"itemCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if out.ItemCount < 0 {
		return 0, fmt.Errorf("%w: negative item count", ErrUnavailable)
	}
	return out.ItemCount, nil
}
