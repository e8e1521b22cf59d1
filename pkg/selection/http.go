package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSearcher queries the partner directory endpoint of a workspace
// service instance
type HTTPSearcher struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewHTTPSearcher creates a directory searcher for the given service URL
func NewHTTPSearcher(baseURL, token string) *HTTPSearcher {
	return &HTTPSearcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Search returns one page of directory partners matching the query
func (s *HTTPSearcher) Search(ctx context.Context, query string) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/api/partners?search=%s", s.BaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error searching partners: %d %s", resp.StatusCode, string(body))
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}
