package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrUnauthenticated is the parent of every auth precondition failure.
	// Callers are expected to send the user back to 'kontakt login'.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrNoToken      = fmt.Errorf("%w: no token available", ErrUnauthenticated)
	ErrTokenExpired = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
)

// Credentials is what every request to the contacts API needs
type Credentials struct {
	Token    string
	UserID   string
	Username string
}

func (c Credentials) BearerHeader() string {
	return "Bearer " + c.Token
}

// Provider supplies the bearer credential for the current session
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

type Session struct {
	Username string
	Token    string
	UserID   string
}

// SessionStore persists the session between CLI runs.
// CurrentSession returns (nil, nil) when nobody is logged in.
type SessionStore interface {
	CurrentSession() (*Session, error)
	SaveSession(session Session) error
	ClearSession() error
}

type TokenClaims struct {
	Username string `json:"username,omitempty"`
	jwt.StandardClaims
}

// ParseClaims decodes the claims of a JWT access token WITHOUT verifying its signature.
// The client never holds the signing key; the server remains the authority.
func ParseClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.Parser{}

	_, _, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("unable to parse token claims: %v", err)
	}

	return claims, nil
}

// SessionProvider reads credentials from a SessionStore on every call,
// so a logout in another process is picked up immediately.
type SessionProvider struct {
	store SessionStore
	now   func() time.Time
}

func NewSessionProvider(store SessionStore) *SessionProvider {
	return &SessionProvider{store: store, now: time.Now}
}

func (p *SessionProvider) Credentials(ctx context.Context) (Credentials, error) {
	session, err := p.store.CurrentSession()
	if err != nil {
		return Credentials{}, pkgerrors.Wrapf(ErrNoToken, "reading session: %v", err)
	}

	if session == nil || strings.TrimSpace(session.Token) == "" {
		return Credentials{}, ErrNoToken
	}

	creds := Credentials{Token: session.Token, UserID: session.UserID, Username: session.Username}

	// Opaque (non JWT) tokens are passed through as is
	claims, err := ParseClaims(session.Token)
	if err != nil {
		return creds, nil
	}

	if claims.ExpiresAt != 0 && p.now().Unix() > claims.ExpiresAt {
		return Credentials{}, ErrTokenExpired
	}

	if creds.UserID == "" {
		creds.UserID = claims.Subject
	}

	return creds, nil
}

// StaticProvider always returns the same credentials
type StaticProvider Credentials

func (s StaticProvider) Credentials(ctx context.Context) (Credentials, error) {
	if s.Token == "" {
		return Credentials{}, ErrNoToken
	}
	return Credentials(s), nil
}
