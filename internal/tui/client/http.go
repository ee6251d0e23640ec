package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient makes REST calls to netinfod.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetConnectivity fetches /api/connectivity.
func (c *HTTPClient) GetConnectivity() (*SnapshotPayload, error) {
	var s SnapshotPayload
	if err := c.do(http.MethodGet, "/api/connectivity", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Register sends POST /api/observer/register and returns the new state.
func (c *HTTPClient) Register() (string, error) {
	var out ObserverState
	if err := c.do(http.MethodPost, "/api/observer/register", nil, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

// Unregister sends POST /api/observer/unregister and returns the new state.
func (c *HTTPClient) Unregister() (string, error) {
	var out ObserverState
	if err := c.do(http.MethodPost, "/api/observer/unregister", nil, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

// Notify pushes a notification of the given kind.
func (c *HTTPClient) Notify(kind string) error {
	return c.do(http.MethodPost, "/api/notify", map[string]string{"kind": kind}, nil)
}

func (c *HTTPClient) do(method, path string, body interface{}, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
