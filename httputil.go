package fumble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// http utils shared by the source adapters.

// CallTimeout bounds any single provider call so a dead upstream cannot
// hang a resolution.
const CallTimeout = 10 * time.Second

// NewHTTPClient returns the client the adapters use: plain transport,
// bounded timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: CallTimeout}
}

// Jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure. A 429 surfaces as ErrRateLimited so callers
// can tell throttling apart from everything else.
func Jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fumble/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("http GET %v/%v: %v: %w", req.URL.Host, req.URL.Path, resp.Status, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// Wget fetches a page body as text, advertising the given User-Agent.
// Finance pages serve bots a different (useless) page, so the scrape
// adapter masquerades as a browser.
func Wget(ctx context.Context, client *http.Client, addr, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cannot http GET %v/%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
