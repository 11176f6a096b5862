package auth

import (
	"strings"

	"golang.org/x/oauth2"

	"github.com/s/ecourse/internal/config"
)

// NewOAuthConfig builds the client configuration for the external provider.
func NewOAuthConfig(cfg config.OAuth2) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthorizeURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Info is the static blob clients read to learn how to authenticate.
func Info(cfg config.OAuth2) map[string]any {
	info := map[string]any{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret,
		"token_url":     cfg.TokenURL,
		"grant_type":    cfg.GrantType,
		"scope":         strings.Join(cfg.Scopes, " "),
	}
	if cfg.AuthorizeURL != "" {
		info["authorize_url"] = cfg.AuthorizeURL
	}
	return info
}
