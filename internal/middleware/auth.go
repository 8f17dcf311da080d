package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/R-Vicente/watchnext/internal/models"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserContextKey is the key for storing user in context
	UserContextKey ContextKey = "user"
	// UserIDContextKey is the key for storing user ID in context
	UserIDContextKey ContextKey = "userID"
)

// SessionLookup resolves session ids to user ids
type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (uuid.UUID, error)
	Delete(ctx context.Context, sessionID string) error
}

// UserLookup loads users by id
type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware handles authentication for protected routes
type AuthMiddleware struct {
	sessions     SessionLookup
	users        UserLookup
	cookieName   string
	isProduction bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions SessionLookup, users UserLookup, cookieName string, isProduction bool) *AuthMiddleware {
	if cookieName == "" {
		cookieName = "session"
	}
	return &AuthMiddleware{
		sessions:     sessions,
		users:        users,
		cookieName:   cookieName,
		isProduction: isProduction,
	}
}

// RequireAuth rejects requests without a valid session with 401
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		userID, err := m.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		user, err := m.users.Get(r.Context(), userID)
		if err != nil {
			// the account is gone; drop the dangling session
			_ = m.sessions.Delete(r.Context(), cookie.Value)
			m.ClearSessionCookie(w)
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		ctx := WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUser stores the user and its id in ctx
func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, user)
	return context.WithValue(ctx, UserIDContextKey, user.ID)
}

// GetUserFromContext retrieves the user from request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// GetUserIDFromContext retrieves the user ID from request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// SetSessionCookie sets a session cookie
func (m *AuthMiddleware) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // 7 days
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie clears the session cookie
func (m *AuthMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, cookie)
}

// SessionID returns the session cookie value, if any
func (m *AuthMiddleware) SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
