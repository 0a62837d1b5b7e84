package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spectrum-keeper/internal/config"
)

/**
 * HTTPConfig configures the client used to reach the background service.
 * @property {string} BaseURL - Service base URL (e.g. "http://127.0.0.1:5000")
 * @property {time.Duration} Timeout - Per-request timeout
 */
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultHTTPConfig targets the locally configured service address.
func DefaultHTTPConfig() *HTTPConfig {
	cfg := config.Get()
	return &HTTPConfig{
		BaseURL: fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port),
		Timeout: 5 * time.Second,
	}
}

type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

type HTTPClient struct {
	cfg    *HTTPConfig
	client *http.Client
}

func NewHTTPClient(cfg *HTTPConfig) *HTTPClient {
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) do(method, path string, body io.Reader) (*HTTPResponse, error) {
	req, err := http.NewRequest(method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &HTTPResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *HTTPClient) Get(path string) (*HTTPResponse, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *HTTPClient) Post(path string, payload interface{}) (*HTTPResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	return c.do(http.MethodPost, path, body)
}

/**
 * GetJSON fetches path and decodes the response into a generic object.
 * @returns {(map[string]interface{}, int, error)} Body object, status code, error
 * @description
 * The status endpoint's payload shape is not guaranteed; callers must not
 * assume more than a JSON object. A non-object body yields an empty map,
 * not an error, as long as the transport round trip succeeded.
 */
func (c *HTTPClient) GetJSON(path string) (map[string]interface{}, int, error) {
	resp, err := c.Get(path)
	if err != nil {
		return nil, 0, err
	}
	obj := map[string]interface{}{}
	if err := json.Unmarshal(resp.Body, &obj); err != nil {
		return map[string]interface{}{}, resp.StatusCode, nil
	}
	return obj, resp.StatusCode, nil
}

func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}
