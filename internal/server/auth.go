// auth.go - Admin credential verification and session-cookie plumbing.
//
// Passwords are stored as bcrypt hashes; verification is constant-time
// with the salt embedded in the hash. Sessions live server-side in the
// SessionStore and reach the browser only as an opaque cookie value.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "filehost_session"

type accountIDKey struct{}

// hashPassword generates a bcrypt hash of the password.
// Cost 12 is a good balance of security and performance.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword compares a password with its stored hash.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Auth gates mutation of the registry behind an authenticated session.
type Auth struct {
	registry *Registry
	sessions *SessionStore
	audit    *Auditor
}

func NewAuth(registry *Registry, sessions *SessionStore, audit *Auditor) *Auth {
	return &Auth{registry: registry, sessions: sessions, audit: audit}
}

// Login verifies the credentials and establishes a session. Unknown
// usernames and wrong passwords both come back as
// ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	acct, err := a.registry.FindAccountByUsername(ctx, username)
	if err == ErrNotFound {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if !verifyPassword(password, acct.PasswordHash) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.sessions.Create(acct.ID)
}

// ChangePassword validates the request and replaces the stored hash.
// Other active sessions stay valid.
func (a *Auth) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword, confirmPassword string) error {
	if currentPassword == "" {
		return &ValidationError{Field: "current_password", Message: "current password is required"}
	}
	if newPassword == "" || confirmPassword == "" {
		return &ValidationError{Field: "new_password", Message: "new password is required"}
	}
	if len(newPassword) < 6 {
		return &ValidationError{Field: "new_password", Message: "new password must be at least 6 characters"}
	}
	if newPassword != confirmPassword {
		return &ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}

	acct, err := a.registry.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !verifyPassword(currentPassword, acct.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return a.registry.UpdatePasswordHash(ctx, accountID, hash)
}

// requireAuth rejects requests without a live session and puts the
// account id into the request context for downstream handlers.
func (a *Auth) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
			return
		}
		accountID, ok := a.sessions.Lookup(c.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized.Error())
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey{}, accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accountIDFromContext returns the authenticated account id, if any.
func accountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey{}).(int64)
	return id, ok
}

// accountName resolves the account id on the request to its username
// for audit entries; empty when unavailable.
func (a *Auth) accountName(r *http.Request) string {
	id, ok := accountIDFromContext(r.Context())
	if !ok {
		return ""
	}
	acct, err := a.registry.FindAccountByID(r.Context(), id)
	if err != nil {
		return ""
	}
	return acct.Username
}

// loginHandler issues a session cookie on successful authentication.
func (a *Auth) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad request")
			return
		}

		token, exp, err := a.Login(r.Context(), body.Username, body.Password)
		if err == ErrInvalidCredentials {
			a.audit.Record(r.Context(), AuditActionLogin, body.Username, "", false, "invalid credentials")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			log.Printf("login: %v", err)
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  exp,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		a.audit.Record(r.Context(), AuditActionLogin, body.Username, "", true, "")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// logoutHandler invalidates the session and clears the cookie.
func (a *Auth) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookieName); err == nil {
			a.sessions.Invalidate(c.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		a.audit.Record(r.Context(), AuditActionLogout, a.accountName(r), "", true, "")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
