package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client represents an HTTP client for the asset store holding workspace logos
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// UploadResult represents the response for a stored object
type UploadResult struct {
	URL string `json:"url"`
}

// NewClient creates a new asset store client instance
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Upload decodes a base64 data URI and stores it under the given key,
// returning the public URL of the stored object
func (c *Client) Upload(ctx context.Context, key, dataURI string) (*UploadResult, error) {
	contentType, payload, err := decodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/%s", c.BaseURL, key), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", contentType)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("error uploading object: %d %s", resp.StatusCode, string(body))
	}

	return &UploadResult{URL: fmt.Sprintf("%s/%s", c.BaseURL, key)}, nil
}

// Delete removes a stored object. Deleting a missing object is not an error,
// so retried cleanup messages stay idempotent.
func (c *Client) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/%s", c.BaseURL, key), nil)
	if err != nil {
		return err
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error deleting object: %d %s", resp.StatusCode, string(body))
	}

	return nil
}

// KeyFromURL extracts the object key from a stored object URL. It returns an
// empty string when the URL does not belong to this store.
func (c *Client) KeyFromURL(assetURL string) string {
	prefix := c.BaseURL + "/"
	if !strings.HasPrefix(assetURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(assetURL, prefix)
}

// decodeDataURI splits a "data:<type>;base64,<payload>" URI into its content
// type and decoded payload
func decodeDataURI(dataURI string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI")
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI")
	}

	contentType, encoding := meta, ""
	if ct, enc, found := strings.Cut(meta, ";"); found {
		contentType, encoding = ct, enc
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if encoding != "base64" {
		return "", nil, fmt.Errorf("unsupported data URI encoding %q", encoding)
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	return contentType, payload, nil
}
