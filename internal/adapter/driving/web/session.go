package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

const (
	sessionCookieName = "fleetcert_session"
	sessionIssuer     = "fleetcert"
)

// IdentityLoader resolves a user id from a session to the current identity.
// It returns nil when the user no longer exists.
type IdentityLoader interface {
	Identify(ctx context.Context, userID int64) (*model.Identity, error)
}

// Sessions issues and verifies signed session cookies. The cookie carries only
// the user id; role and username are reloaded on every request so deleted
// users and role changes take effect immediately.
type Sessions struct {
	key    []byte
	ttl    time.Duration
	secure bool
	users  IdentityLoader
	now    func() time.Time
}

// NewSessions creates a session manager signing with key (HMAC-SHA256).
func NewSessions(key []byte, ttl time.Duration, secure bool, users IdentityLoader) *Sessions {
	return &Sessions{key: key, ttl: ttl, secure: secure, users: users, now: time.Now}
}

// Issue sets a fresh session cookie for id.
func (s *Sessions) Issue(w http.ResponseWriter, id model.Identity) error {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   strconv.FormatInt(id.UserID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticate returns the identity of the request's session, or nil when
// there is no valid session. Tampered, expired, or orphaned sessions are
// treated as absent; only store failures are returned as errors.
func (s *Sessions) Authenticate(r *http.Request) (*model.Identity, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, nil
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, nil
	}

	id, err := s.users.Identify(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("identify session user %d: %w", userID, err)
	}
	return id, nil
}

type identityKey struct{}

func withIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// identityFrom returns the identity stored by requireAuth.
func identityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}

var errNoIdentity = errors.New("no identity in request context")
