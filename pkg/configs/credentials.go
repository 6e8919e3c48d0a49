// Package configs holds how the SDK reaches the platform: endpoints and credentials,
// from environment variables or from a profile store on disk.
package configs

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	dherr "github.com/scc-digitalhub/digitalhub-go/pkg/domain/errors"
)

// environment variables read by FromEnv.
const (
	EnvEndpoint       = "DHCORE_ENDPOINT"
	EnvEndpointLegacy = "DIGITALHUB_CORE_ENDPOINT"
	EnvIssuer         = "DHCORE_ISSUER"
	EnvUser           = "DHCORE_USER"
	EnvPassword       = "DHCORE_PASSWORD"
	EnvAccessToken    = "DHCORE_ACCESS_TOKEN"
	EnvRefreshToken   = "DHCORE_REFRESH_TOKEN"
	EnvClientID       = "DHCORE_CLIENT_ID"
)

// FallbackUser is the user recorded when none is configured.
const FallbackUser = "anonymous"

type AuthType string

const (
	AuthNone   AuthType = ""
	AuthBasic  AuthType = "basic"
	AuthOAuth2 AuthType = "oauth2"
)

// Credentials to reach the platform core.
type Credentials struct {
	// base URL of the core. Required.
	Endpoint string `yaml:"endpoint"`

	// base URL of the token issuer. Required to refresh tokens.
	Issuer string `yaml:"issuer,omitempty"`

	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`

	AccessToken  string `yaml:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
}

// FromEnv reads Credentials from environment variables.
//
// DHCORE_ENDPOINT takes precedence over DIGITALHUB_CORE_ENDPOINT.
// Nothing is verified here; see Verify.
func FromEnv() Credentials {
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		endpoint = os.Getenv(EnvEndpointLegacy)
	}
	return Credentials{
		Endpoint:     endpoint,
		Issuer:       os.Getenv(EnvIssuer),
		User:         os.Getenv(EnvUser),
		Password:     os.Getenv(EnvPassword),
		AccessToken:  os.Getenv(EnvAccessToken),
		RefreshToken: os.Getenv(EnvRefreshToken),
		ClientID:     os.Getenv(EnvClientID),
	}
}

// Merge returns c with empty fields filled by other.
func (c Credentials) Merge(other Credentials) Credentials {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Credentials{
		Endpoint:     pick(c.Endpoint, other.Endpoint),
		Issuer:       pick(c.Issuer, other.Issuer),
		User:         pick(c.User, other.User),
		Password:     pick(c.Password, other.Password),
		AccessToken:  pick(c.AccessToken, other.AccessToken),
		RefreshToken: pick(c.RefreshToken, other.RefreshToken),
		ClientID:     pick(c.ClientID, other.ClientID),
	}
}

// AuthType tells how requests are authenticated. Tokens are preferred to passwords.
func (c Credentials) AuthType() AuthType {
	if c.AccessToken != "" {
		return AuthOAuth2
	}
	if c.User != "" && c.Password != "" {
		return AuthBasic
	}
	return AuthNone
}

// Username is User, or FallbackUser.
func (c Credentials) Username() string {
	if c.User == "" {
		return FallbackUser
	}
	return c.User
}

// Verify checks the endpoints.
//
// # Returns
//
// nil if valid. Otherwise ErrConfiguration.
func (c Credentials) Verify() error {
	if c.Endpoint == "" {
		return dherr.NewBackendError(
			dherr.ErrConfiguration, "configuring client",
			fmt.Sprintf("endpoint is not set. Set %s or pass credentials explicitly", EnvEndpoint), nil,
		)
	}
	if err := verifyURL("endpoint", c.Endpoint); err != nil {
		return err
	}
	if c.Issuer != "" {
		if err := verifyURL("issuer", c.Issuer); err != nil {
			return err
		}
	}
	return nil
}

func verifyURL(field string, s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return dherr.NewBackendError(
			dherr.ErrConfiguration, "configuring client",
			fmt.Sprintf("%s should be http:// or https:// URL: %s", field, s), err,
		)
	}
	return nil
}

// Sanitize trims spaces and trailing slashes of endpoints.
func (c Credentials) Sanitize() Credentials {
	c.Endpoint = strings.TrimSuffix(strings.TrimSpace(c.Endpoint), "/")
	c.Issuer = strings.TrimSuffix(strings.TrimSpace(c.Issuer), "/")
	return c
}
