package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/s/ecourse/internal/middleware"
)

// GET /auth/info
func (h *Handler) AuthInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.OAuthInfo)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// POST /auth/login exchanges credentials at the provider's token endpoint and
// keeps the access token in the cookie session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readPayload(w, r)
	if err != nil {
		payloadError(w, err)
		return
	}
	username, _ := body.String("username")
	password, _ := body.String("password")
	if strings.TrimSpace(username) == "" || password == "" {
		jsonError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.OAuth.PasswordCredentialsToken(r.Context(), username, password)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			jsonError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		h.Log.Error("token exchange failed", "error", err)
		jsonError(w, http.StatusBadGateway, "authentication provider unavailable")
		return
	}

	session, _ := h.Sessions.Get(r, middleware.SessionName)
	session.Values[middleware.SessionTokenKey] = token.AccessToken
	if err := session.Save(r, w); err != nil {
		h.Log.Error("failed to save session", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := tokenResponse{
		AccessToken:  token.AccessToken,
		TokenType:    token.Type(),
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(token.Expiry).Round(time.Second).Seconds())
	}
	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Sessions.Get(r, middleware.SessionName)
	delete(session.Values, middleware.SessionTokenKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		h.Log.Error("failed to clear session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
