package xero

import (
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
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// refreshAccessToken runs the OAuth refresh grant and persists the rotated
// token pair. A 400 from the token endpoint means the refresh token itself
// is dead and the team must reconnect.
func (c *Client) refreshAccessToken(ctx context.Context, conn *models.XeroConnection) (string, error) {
	if conn.RefreshToken == "" {
		return "", errors.ErrXeroReauthRequired
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", config.Config.Xero.ClientID)
	form.Set("refresh_token", conn.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.Config.Xero.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("xero token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Xero token refresh failed", "team_id", conn.TeamID, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusBadRequest {
			return "", errors.ErrXeroReauthRequired
		}
		return "", fmt.Errorf("failed to refresh xero access token: HTTP %d", resp.StatusCode)
	}

	var tokens tokenResponse
	if err := json.Unmarshal(data, &tokens); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	conn.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		conn.RefreshToken = tokens.RefreshToken
	}
	conn.TokenExpiresAt = &expiresAt

	if c.db != nil {
		err = c.db.Model(conn).Updates(map[string]interface{}{
			"access_token":     conn.AccessToken,
			"refresh_token":    conn.RefreshToken,
			"token_expires_at": conn.TokenExpiresAt,
		}).Error
		if err != nil {
			return "", fmt.Errorf("failed to save refreshed tokens: %w", err)
		}
	}

	slog.Info("Xero token refreshed", "team_id", conn.TeamID)
	return conn.AccessToken, nil
}

// RevokeConnection revokes the refresh token with Xero and clears the
// stored credentials. Revocation failures are logged and ignored: the
// local cleanup matters regardless.
func (c *Client) RevokeConnection(ctx context.Context, conn *models.XeroConnection) error {
	if conn.RefreshToken != "" {
		form := url.Values{}
		form.Set("client_id", config.Config.Xero.ClientID)
		form.Set("token", conn.RefreshToken)
		form.Set("token_type_hint", "refresh_token")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.Config.Xero.RevocationURL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			resp, err := c.httpClient.Do(req)
			if err != nil {
				slog.Error("Network error during Xero token revocation", "team_id", conn.TeamID, "error", err)
			} else {
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					slog.Warn("Xero token revocation failed, proceeding with local cleanup",
						"team_id", conn.TeamID, "status", resp.StatusCode)
				}
			}
		}
	}

	conn.AccessToken = ""
	conn.RefreshToken = ""
	conn.TokenExpiresAt = nil
	conn.TenantID = ""
	conn.TenantName = ""
	if c.db != nil {
		return c.db.Model(conn).Updates(map[string]interface{}{
			"access_token":     "",
			"refresh_token":    "",
			"token_expires_at": nil,
			"tenant_id":        "",
			"tenant_name":      "",
		}).Error
	}
	return nil
}

type ConnectionStatus struct {
	Connected    bool       `json:"connected"`
	TenantName   string     `json:"tenant_name"`
	ExpiresAt    *time.Time `json:"expires_at"`
	NeedsRefresh bool       `json:"needs_refresh"`
	Message      string     `json:"message"`
}

func (c *Client) ConnectionStatus(conn *models.XeroConnection) ConnectionStatus {
	status := ConnectionStatus{
		Connected:  conn.Connected(),
		TenantName: conn.TenantName,
		ExpiresAt:  conn.TokenExpiresAt,
		Message:    "Not connected to Xero.",
	}
	if status.Connected {
		if conn.TokenExpiringWithin(tokenExpiryBuffer) {
			status.NeedsRefresh = true
			status.Message = "Connected, but token is expired or requires immediate refresh."
		} else {
			status.Message = "Successfully connected and tokens are valid."
		}
	}
	return status
}
