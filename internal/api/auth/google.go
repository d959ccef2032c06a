package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"profile-app/config"
	"profile-app/database"
	"profile-app/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer     = "https://accounts.google.com"
	stateCookie      = "oauth_state"
	stateCookieTTL   = 5 * time.Minute
	googleStateBytes = 32
)

// identityVerifier turns a raw ID token into a verified identity.
type identityVerifier func(ctx context.Context, rawIDToken string) (users.GoogleIdentity, error)

// codeExchanger swaps an authorization code for the raw ID token.
type codeExchanger func(ctx context.Context, code string) (string, error)

var (
	verifyMu       sync.Mutex
	cachedVerifier *oidc.IDTokenVerifier

	verifyIdentity identityVerifier = verifyGoogleIDToken
	exchangeCode   codeExchanger    = exchangeGoogleCode
)

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func googleConfigured(c *gin.Context) bool {
	if config.GOOGLE_CLIENT_ID != "" {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not configured"})
	return false
}

// GET /auth/google
func GoogleStart(c *gin.Context) {
	if !googleConfigured(c) {
		return
	}
	b := make([]byte, googleStateBytes)
	if _, err := rand.Read(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int(stateCookieTTL.Seconds()), "/", "", secure, true)
	c.Redirect(http.StatusFound, googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func GoogleCallback(c *gin.Context) {
	if !googleConfigured(c) {
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}
	if cookieState, err := c.Cookie(stateCookie); err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	// One use per state.
	c.SetCookie(stateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	ctx := c.Request.Context()
	rawIDToken, err := exchangeCode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Msg("google code exchange failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}
	identity, err := verifyIdentity(ctx, rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("google id token rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id_token"})
		return
	}

	user, created, err := users.FindOrCreateByGoogle(ctx, database.DB, identity, newTrialUser(time.Now()))
	if err != nil {
		log.Error().Err(err).Str("email", identity.Email).Msg("google user upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	if created {
		log.Info().Uint("user_id", user.ID).Msg("google account registered")
	}

	token, err := issueAppJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	if config.GOOGLE_FRONTEND_REDIRECT == "" {
		c.JSON(http.StatusOK, gin.H{"token": token, "created": created})
		return
	}
	c.Redirect(http.StatusFound, config.GOOGLE_FRONTEND_REDIRECT+"?token="+url.QueryEscape(token))
}

func exchangeGoogleCode(ctx context.Context, code string) (string, error) {
	tok, err := googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("token response without id_token")
	}
	return raw, nil
}

// googleVerifier builds the OIDC verifier once; provider discovery is a network call.
func googleVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	verifyMu.Lock()
	defer verifyMu.Unlock()
	if cachedVerifier != nil {
		return cachedVerifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("google oidc discovery: %w", err)
	}
	cachedVerifier = provider.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID})
	return cachedVerifier, nil
}

func verifyGoogleIDToken(ctx context.Context, rawIDToken string) (users.GoogleIdentity, error) {
	verifier, err := googleVerifier(ctx)
	if err != nil {
		return users.GoogleIdentity{}, err
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return users.GoogleIdentity{}, err
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return users.GoogleIdentity{}, fmt.Errorf("decode claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return users.GoogleIdentity{}, fmt.Errorf("google account has no verified email")
	}
	return users.GoogleIdentity{
		Subject:    idToken.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}, nil
}
