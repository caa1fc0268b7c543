package unlock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/binge/internal/logger"
)

// HTTPStorefront talks to the store endpoints of the sync server
type HTTPStorefront struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

var _ Storefront = (*HTTPStorefront)(nil)

// NewHTTPStorefront creates a storefront client. Purchases need a session token.
func NewHTTPStorefront(serverURL, token string) *HTTPStorefront {
	return &HTTPStorefront{
		serverURL:  strings.TrimRight(serverURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPStorefront) Products(ctx context.Context, ids []string) (ProductsResponse, error) {
	var resp ProductsResponse
	u := s.serverURL + "/api/v1/store/products?ids=" + url.QueryEscape(strings.Join(ids, ","))
	err := s.do(ctx, http.MethodGet, u, nil, &resp)
	return resp, err
}

func (s *HTTPStorefront) Buy(ctx context.Context, productID string) (Transaction, error) {
	var tx Transaction
	err := s.do(ctx, http.MethodPost, s.serverURL+"/api/v1/store/purchases",
		map[string]string{"product_id": productID}, &tx)
	return tx, err
}

func (s *HTTPStorefront) Restore(ctx context.Context) ([]Transaction, error) {
	var resp struct {
		Transactions []Transaction `json:"transactions"`
	}
	err := s.do(ctx, http.MethodPost, s.serverURL+"/api/v1/store/restore", nil, &resp)
	return resp.Transactions, err
}

func (s *HTTPStorefront) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	logger.Debug("HTTP Request", logger.F("method", method), logger.F("url", url))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid store response: %w", err)
	}
	return nil
}
