package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/scc-digitalhub/digitalhub-go/pkg/configs"
	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

// tokens are refreshed this earlier than they expire.
const expiryLeeway = 30 * time.Second

// expiryOf reads "exp" claim of a JWT.
//
// The signature is not verified: the client only wants to know when to refresh.
// Tokens which are not JWT, or have no exp, never expire.
func expiryOf(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// setAuth sets Authorization header by the current credentials.
func (c *Client) setAuth(req *http.Request) {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	switch creds.AuthType() {
	case configs.AuthOAuth2:
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	case configs.AuthBasic:
		req.SetBasicAuth(creds.User, creds.Password)
	}
}

func (c *Client) refreshable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.AuthType() == configs.AuthOAuth2 && c.creds.RefreshToken != ""
}

// expiring reports the access token expires soon.
func (c *Client) expiring(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasExpiry && c.expiry.Add(-expiryLeeway).Before(now)
}

// tokenEndpoint discovers the token endpoint of the issuer.
//
// When the issuer does not publish openid configuration, {issuer}/token is used.
func (c *Client) tokenEndpoint(ctx context.Context, issuer string) string {
	fallback := issuer + "/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return fallback
	}
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()
	if !succeeded(resp) {
		return fallback
	}
	conf := struct {
		TokenEndpoint string `json:"token_endpoint"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil || conf.TokenEndpoint == "" {
		return fallback
	}
	return strings.TrimSuffix(conf.TokenEndpoint, "/")
}

// Refresh gets a new access token with the refresh token.
//
// # Returns
//
// - error: ErrConfiguration if the issuer or refresh token is not configured,
// ErrUnauthorized if the issuer rejects the refresh token, or other backend errors.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	creds := c.creds
	c.mu.Unlock()

	op := "refreshing access token"
	if creds.Issuer == "" || creds.RefreshToken == "" {
		return dherr.NewBackendError(dherr.ErrConfiguration, op, "issuer or refresh token is not set", nil)
	}

	endpoint := c.tokenEndpoint(ctx, creds.Issuer)
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", creds.ClientID)
	form.Set("refresh_token", creds.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return dherr.NewBackendError(dherr.ErrConfiguration, op, "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()
	if !succeeded(resp) {
		err := statusError(resp, op)
		if resp.StatusCode == http.StatusBadRequest {
			// issuers answer 400 invalid_grant for expired refresh tokens.
			return fmt.Errorf("%w: %w", dherr.ErrUnauthorized, err)
		}
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}
	tokens := struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}{}
	if err := json.Unmarshal(body, &tokens); err != nil || tokens.AccessToken == "" {
		return dherr.NewBackendError(dherr.ErrStatus, op, "issuer response has no access_token", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.creds.RefreshToken = tokens.RefreshToken
	}
	c.expiry, c.hasExpiry = expiryOf(tokens.AccessToken)
	c.logger.Debugf("access token is refreshed")
	return nil
}
