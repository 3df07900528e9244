// Package auth gates the admin endpoints behind a shared-secret
// password and a signed session cookie. Sessions are stateless: a
// token is invalidated only by expiry or secret rotation.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie the gate issues and reads.
const CookieName = "token"

// ErrInvalidPassword is returned by Login on a password mismatch.
var ErrInvalidPassword = errors.New("invalid password")

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Config defines how sessions are issued and verified.
type Config struct {
	AdminPassword string
	Secret        []byte
	TTL           time.Duration // default 7 days
	SecureCookie  bool
	Now           func() time.Time
}

// Gate issues and validates admin session tokens.
type Gate struct {
	password string
	secret   []byte
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

func NewGate(cfg Config) *Gate {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Gate{
		password: cfg.AdminPassword,
		secret:   cfg.Secret,
		ttl:      ttl,
		secure:   cfg.SecureCookie,
		now:      now,
	}
}

// Login compares the input against the configured admin password in
// constant time and issues a signed session token on match.
func (g *Gate) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		return "", ErrInvalidPassword
	}

	now := g.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
		Role: "admin",
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Cookie wraps a session token in the http-only cookie the browser
// sends back on every request.
func (g *Gate) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.ttl / time.Second),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Authenticated reports whether the request carries a validly signed,
// unexpired session token. It returns false on any failure.
func (g *Gate) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)
	return err == nil
}
