package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
)

type identityKey struct{}

type displayNameKey struct{}

const (
	expiresExtension = "exp"
	nameExtension    = "name"
)

// identityClaims are the claims read from identity provider tokens. Name and Email only
// feed the display name shown in invite emails.
type identityClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ErrNoSecret is returned for every token when no signing secret is configured
var ErrNoSecret = errors.New("token signing secret is not configured")

// Authenticator verifies bearer tokens issued by the identity provider. A verified token
// is cached for tokenCacheTTL so repeated calls skip signature checks, but a cached token
// is still refused once its exp has passed.
type Authenticator struct {
	authenticator auth.Authenticator
	secret        []byte
	issuer        string
	now           func() time.Time
}

const tokenCacheTTL = time.Minute

// NewAuthenticator sets up go-guardian with a cached bearer strategy backed by HS256 JWT
// verification. Tokens must carry a subject, which becomes the caller identity.
func NewAuthenticator(ctx context.Context, secret, issuer string) *Authenticator {
	a := &Authenticator{
		authenticator: auth.New(),
		secret:        []byte(secret),
		issuer:        issuer,
		now:           time.Now,
	}
	cache := store.NewFIFO(ctx, tokenCacheTTL)
	tokenStrategy := bearer.New(a.verifyToken, cache)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return a
}

func (a *Authenticator) verifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	if len(a.secret) == 0 {
		return nil, ErrNoSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return auth.NewDefaultUser(claims.Subject, claims.Subject, nil, map[string][]string{
		expiresExtension: {strconv.FormatInt(claims.ExpiresAt.Unix(), 10)},
		nameExtension:    {name},
	}), nil
}

// expired reports whether a possibly cached user outlived its token
func (a *Authenticator) expired(user auth.Info) bool {
	values := user.Extensions()[expiresExtension]
	if len(values) == 0 {
		return true
	}
	exp, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return true
	}
	return !a.now().Before(time.Unix(exp, 0))
}

// Middleware rejects requests without a valid bearer token and stores the caller
// identity on the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := a.authenticator.Authenticate(r)
		if err == nil && a.expired(user) {
			err = errors.New("token has expired")
		}
		if err != nil {
			zap.S().Infow("unauthorized",
				"path", r.URL.Path,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "unauthorized", "kind": "Unauthenticated"}`))
			return
		}
		zap.S().Debugw("user authenticated", "identity", user.UserName())
		ctx := WithIdentity(r.Context(), user.UserName())
		if names := user.Extensions()[nameExtension]; len(names) > 0 {
			ctx = WithDisplayName(ctx, names[0])
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity returns a copy of ctx carrying the caller identity
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity set by Middleware
func IdentityFromContext(ctx context.Context) (string, bool) {
	identity, ok := ctx.Value(identityKey{}).(string)
	return identity, ok && identity != ""
}

// WithDisplayName returns a copy of ctx carrying a human readable name for the caller
func WithDisplayName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, displayNameKey{}, name)
}

// DisplayNameFromContext returns the caller's name or email from the token, or ""
func DisplayNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(displayNameKey{}).(string)
	return name
}
