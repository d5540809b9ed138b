package xero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flaboy/aira-books/pkg/config"
	"github.com/flaboy/aira-books/pkg/errors"
	"github.com/flaboy/aira-books/pkg/models"
	"gorm.io/gorm"
)

// tokenExpiryBuffer keeps a refresh ahead of expiry so a token cannot
// lapse in the middle of a request.
const tokenExpiryBuffer = 60 * time.Second

type Client struct {
	httpClient *http.Client
	db         *gorm.DB
}

func NewClient(db *gorm.DB) *Client {
	return &Client{
		db: db,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				MaxIdleConnsPerHost:   10,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Call executes an authenticated Xero API call. POST payloads are wrapped
// under the pluralized resource key; a 401 triggers exactly one token
// refresh followed by one retry of the same call.
func (c *Client) Call(ctx context.Context, conn *models.XeroConnection, method, endpoint string, query url.Values, payload interface{}) (*Response, error) {
	if !conn.Connected() {
		return nil, errors.ErrXeroNotConnected
	}

	token := conn.AccessToken
	if conn.TokenExpiringWithin(tokenExpiryBuffer) {
		refreshed, err := c.refreshAccessToken(ctx, conn)
		if err != nil {
			return nil, err
		}
		token = refreshed
	}

	resp, status, err := c.do(ctx, conn, token, method, endpoint, query, payload)
	if status == http.StatusUnauthorized {
		slog.Info("Xero returned 401, refreshing token and retrying once", "team_id", conn.TeamID, "endpoint", endpoint)
		refreshed, refreshErr := c.refreshAccessToken(ctx, conn)
		if refreshErr != nil {
			return nil, refreshErr
		}
		resp, status, err = c.do(ctx, conn, refreshed, method, endpoint, query, payload)
		if status == http.StatusUnauthorized {
			return nil, errors.ErrXeroReauthRequired
		}
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, conn *models.XeroConnection, token, method, endpoint string, query url.Values, payload interface{}) (*Response, int, error) {
	apiURL := strings.TrimRight(config.Config.Xero.APIBaseURL, "/") + "/" + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var body io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		wrapped := map[string]interface{}{responseKey(endpoint): payload}
		data, err := json.Marshal(wrapped)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal %s payload: %w", endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Xero-Tenant-Id", conn.TenantID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("xero request failed (%s %s): %w", method, endpoint, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to read xero response: %w", err)
	}

	if httpResp.StatusCode == http.StatusUnauthorized {
		return nil, httpResp.StatusCode, errors.ErrXeroReauthRequired
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		message := "An unknown Xero API error occurred."
		var errBody struct {
			Message string `json:"Message"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		slog.Error("Xero API call failed",
			"method", method, "endpoint", endpoint,
			"team_id", conn.TeamID, "status", httpResp.StatusCode, "message", message)
		return nil, httpResp.StatusCode, fmt.Errorf("xero api error (%s %s): [HTTP %d] %s", method, endpoint, httpResp.StatusCode, message)
	}

	response := &Response{}
	if err := json.Unmarshal(data, response); err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to decode xero response: %w", err)
	}
	return response, httpResp.StatusCode, nil
}

// responseKey returns the pluralized resource wrapper Xero uses for both
// request and response bodies, e.g. "Invoices" for the Invoices endpoint.
func responseKey(endpoint string) string {
	segments := strings.Split(endpoint, "/")
	return segments[len(segments)-1]
}

// Accounts lists accounts of the given type, used by the payment mapping
// configuration to offer bank accounts.
func (c *Client) Accounts(ctx context.Context, conn *models.XeroConnection, accountType string) ([]Account, error) {
	query := url.Values{}
	query.Set("where", fmt.Sprintf("Type==%q", accountType))

	resp, err := c.Call(ctx, conn, http.MethodGet, "Accounts", query, nil)
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(resp.Accounts))
	for _, account := range resp.Accounts {
		if account.Code == "" {
			account.Code = account.AccountID
		}
		if account.Code == "" {
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}
