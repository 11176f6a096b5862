package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/s/ecourse/internal/config"
)

func TestTokenValidatorRoundTrip(t *testing.T) {
	v := NewTokenValidator("secret", "https://auth.example.com")

	token, err := v.Issue(42, time.Hour)
	require.NoError(t, err)

	id, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestTokenValidatorRejects(t *testing.T) {
	v := NewTokenValidator("secret", "issuer-a")

	expired, err := v.Issue(1, -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewTokenValidator("other", "issuer-a").Issue(1, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := NewTokenValidator("secret", "issuer-b").Issue(1, time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "1",
		Issuer:  "issuer-a",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "issuer-a",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no expiry":    noExpiry,
		"bad subject":  badSubject,
		"garbage":      "not-a-jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenValidatorWithoutIssuer(t *testing.T) {
	token, err := NewTokenValidator("secret", "anything").Issue(7, time.Hour)
	require.NoError(t, err)

	id, err := NewTokenValidator("secret", "").Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestOAuthConfigAndInfo(t *testing.T) {
	cfg := config.OAuth2{
		ClientID:     "mobile",
		ClientSecret: "s3cret",
		TokenURL:     "https://auth.example.com/o/token/",
		GrantType:    "password",
		Scopes:       []string{"read", "write"},
	}

	oc := NewOAuthConfig(cfg)
	assert.Equal(t, "mobile", oc.ClientID)
	assert.Equal(t, "https://auth.example.com/o/token/", oc.Endpoint.TokenURL)
	assert.Equal(t, oauth2.AuthStyleInParams, oc.Endpoint.AuthStyle)

	info := Info(cfg)
	assert.Equal(t, "mobile", info["client_id"])
	assert.Equal(t, "s3cret", info["client_secret"])
	assert.Equal(t, "password", info["grant_type"])
	assert.Equal(t, "read write", info["scope"])
	assert.NotContains(t, info, "authorize_url")

	cfg.AuthorizeURL = "https://auth.example.com/o/authorize/"
	assert.Equal(t, cfg.AuthorizeURL, Info(cfg)["authorize_url"])
}
