// Package unlocker fetches pages through the Bright Data web-unlocker API.
package unlocker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nikhilbhutani/newscast/internal/apperr"
	"github.com/nikhilbhutani/newscast/internal/config"
	"github.com/nikhilbhutani/newscast/internal/metrics"
)

const DefaultEndpoint = "https://api.brightdata.com/request"

// maxErrorBody bounds how much of an upstream error body ends up in messages.
const maxErrorBody = 512

type Client struct {
	endpoint   string
	apiKey     string
	zone       string
	httpClient *http.Client
}

func NewClient(cfg config.ProxyConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		zone:       cfg.Zone,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type request struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Fetch returns the raw body of target as served through the unlocker zone.
// Transport failures and non-2xx responses are Fetch errors; nothing is
// retried here.
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	start := time.Now()
	body, err := c.fetch(ctx, target)
	metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		return "", apperr.E(apperr.Fetch, fmt.Errorf("BrightData error: %w", err))
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, target string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("BRIGHTDATA_API_KEY is not set")
	}

	payload, err := json.Marshal(request{Zone: c.zone, URL: target, Format: "raw"})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			return "", fmt.Errorf("%s for url: %s", resp.Status, c.endpoint)
		}
		return "", fmt.Errorf("%s for url: %s: %s", resp.Status, c.endpoint, msg)
	}
	return string(data), nil
}
