package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sentinel-voice/sentinel/internal/health"
)

// HealthURL derives the health endpoint from a streaming URL:
// ws://host/ws becomes http://host/health.
func HealthURL(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/health"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// StreamURL ensures the streaming URL carries the sample rate, leaving an
// explicit sample_rate parameter untouched.
func StreamURL(base string, sampleRate int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	if q.Get("sample_rate") == "" {
		q.Set("sample_rate", strconv.Itoa(sampleRate))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchIdentity asks the server who it is before streaming starts. Any
// decodable health payload is returned, ready or not; the caller treats
// failures as informational.
func FetchIdentity(ctx context.Context, wsURL string) (*health.Response, error) {
	hu, err := HealthURL(wsURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hu, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var id health.Response
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("decode health payload: %w", err)
	}
	return &id, nil
}
