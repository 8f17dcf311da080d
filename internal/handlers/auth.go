package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/R-Vicente/watchnext/internal/middleware"
	"github.com/R-Vicente/watchnext/internal/models"
)

const (
	stateCookieName = "oauth_state"
	stateMaxAge     = 5 * 60

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserURL     = "https://api.github.com/user"
	githubEmailsURL   = "https://api.github.com/user/emails"
)

// LoginService finds or registers users coming back from an OAuth provider
type LoginService interface {
	FindOrCreate(ctx context.Context, providerID string, provider models.Provider, email, name string) (*models.User, error)
}

// SessionIssuer creates and deletes login sessions
type SessionIssuer interface {
	GenerateSessionID() (string, error)
	Set(ctx context.Context, sessionID string, userID uuid.UUID) error
	Delete(ctx context.Context, sessionID string) error
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	users          LoginService
	sessions       SessionIssuer
	authMiddleware *middleware.AuthMiddleware
	googleConfig   *oauth2.Config
	githubConfig   *oauth2.Config
	secure         bool
	logger         zerolog.Logger
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	CallbackHost       string
	// Secure marks the state cookie as HTTPS only
	Secure bool
}

// providerProfile is the identity returned by a provider
type providerProfile struct {
	ID    string
	Email string
	Name  string
}

// NewAuthHandler creates a new auth handler
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewAuthHandler(
	users LoginService,
	sessions SessionIssuer,
	authMiddleware *middleware.AuthMiddleware,
	cfg AuthConfig,
	logger zerolog.Logger,
) *AuthHandler {
	githubConfig := &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  fmt.Sprintf("%s/auth/github/callback", cfg.CallbackHost),
		Scopes:       []string{"user:email"},
		Endpoint:     github.Endpoint,
	}

	googleConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/auth/google/callback", cfg.CallbackHost),
		Scopes:       []string{"profile", "email"},
		Endpoint:     google.Endpoint,
	}

	logger = logger.With().Str("handler", "auth").Logger()
	logger.Debug().Str("callback", googleConfig.RedirectURL).Msg("google oauth configured")

	return &AuthHandler{
		users:          users,
		sessions:       sessions,
		authMiddleware: authMiddleware,
		googleConfig:   googleConfig,
		githubConfig:   githubConfig,
		secure:         cfg.Secure,
		logger:         logger,
	}
}

// GoogleLogin initiates Google OAuth flow
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	h.begin(w, r, h.googleConfig, oauth2.AccessTypeOffline)
}

// GitHubLogin initiates GitHub OAuth flow
func (h *AuthHandler) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	h.begin(w, r, h.githubConfig)
}

// begin stores a CSRF state token in a short-lived cookie and redirects to the provider
func (h *AuthHandler) begin(w http.ResponseWriter, r *http.Request, cfg *oauth2.Config, opts ...oauth2.AuthCodeOption) {
	state, err := h.sessions.GenerateSessionID()
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to generate state token")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, cfg.AuthCodeURL(state, opts...), http.StatusTemporaryRedirect)
}

// exchange checks the state token and trades the code for an authorized client
func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, cfg *oauth2.Config) (*http.Client, bool) {
	cookie, err := r.Cookie(stateCookieName)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return nil, false
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No code provided", http.StatusBadRequest)
		return nil, false
	}

	token, err := cfg.Exchange(r.Context(), code)
	if err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to exchange code")
		http.Error(w, "Failed to exchange code", http.StatusInternalServerError)
		return nil, false
	}
	return cfg.Client(r.Context(), token), true
}

// GoogleCallback handles Google OAuth callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchange(w, r, h.googleConfig)
	if !ok {
		return
	}

	var userInfo struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(r.Context(), client, googleUserInfoURL, &userInfo); err != nil {
		requestLogger(r, h.logger).Error().Err(err).Msg("failed to get google user info")
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	h.complete(w, r, models.ProviderGoogle, providerProfile{
		ID:    userInfo.ID,
		Email: userInfo.Email,
		Name:  userInfo.Name,
	})
}

// GitHubCallback handles GitHub OAuth callback
func (h *AuthHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	client, ok := h.exchange(w, r, h.githubConfig)
	if !ok {
		return
	}
	logger := requestLogger(r, h.logger)

	var userInfo struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := getJSON(r.Context(), client, githubUserURL, &userInfo); err != nil {
		logger.Error().Err(err).Msg("failed to get github user info")
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	// GitHub omits private emails from the profile
	if userInfo.Email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := getJSON(r.Context(), client, githubEmailsURL, &emails); err != nil {
			logger.Warn().Err(err).Msg("failed to get github emails")
		}
		for _, email := range emails {
			if email.Primary {
				userInfo.Email = email.Email
				break
			}
		}
	}

	if userInfo.Name == "" {
		userInfo.Name = userInfo.Login
	}

	h.complete(w, r, models.ProviderGitHub, providerProfile{
		ID:    strconv.Itoa(userInfo.ID),
		Email: userInfo.Email,
		Name:  userInfo.Name,
	})
}

// complete registers the user, opens a session and redirects home
func (h *AuthHandler) complete(w http.ResponseWriter, r *http.Request, provider models.Provider, profile providerProfile) {
	logger := requestLogger(r, h.logger)

	user, err := h.users.FindOrCreate(r.Context(), profile.ID, provider, profile.Email, profile.Name)
	if err != nil {
		logger.Error().Err(err).Str("provider", provider.String()).Msg("failed to find or create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	sessionID, err := h.sessions.GenerateSessionID()
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate session id")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Set(r.Context(), sessionID, user.ID); err != nil {
		logger.Error().Err(err).Msg("failed to store session")
		http.Error(w, "Failed to store session", http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetSessionCookie(w, sessionID)
	logger.Info().Str("user_id", user.ID.String()).Str("provider", provider.String()).Msg("user signed in")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := h.authMiddleware.SessionID(r); ok {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			requestLogger(r, h.logger).Warn().Err(err).Msg("failed to delete session")
		}
	}

	h.authMiddleware.ClearSessionCookie(w)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// getJSON fetches url with the authorized client and decodes the body into dst
func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
