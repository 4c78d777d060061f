package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"ceramics-booking/errors"
)

const (
	CookieName = "admin_session"
	Lifetime   = 24 * time.Hour

	clockSkew = time.Minute
)

var (
	ErrExpired      = errors.New(errors.KindAuth, "session expired")
	ErrInvalid      = errors.New(errors.KindAuth, "invalid session")
	ErrBadLogin     = errors.New(errors.KindAuth, "invalid username or password")
	ErrUnconfigured = errors.New(errors.KindInternal, "admin credentials are not configured")
)

// Info describes an authenticated admin session.
type Info struct {
	ID        string    `json:"-"`
	Username  string    `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Guard issues and validates admin session tokens. The token carries the username and
// issue time only; expiry is recomputed on every validation.
type Guard struct {
	secret   []byte
	checker  CredentialChecker
	registry Registry
	now      func() time.Time
	newID    func() string
}

func NewGuard(secret string, checker CredentialChecker, registry Registry) *Guard {
	if registry == nil {
		registry = NoopRegistry{}
	}
	return &Guard{secret: []byte(secret), checker: checker, registry: registry, now: time.Now, newID: uuid.NewString}
}

// Login checks the credentials and returns a signed session token.
func (g *Guard) Login(ctx context.Context, username, password string) (string, Info, error) {
	if g.checker == nil || !g.checker.Configured() {
		return "", Info{}, ErrUnconfigured
	}
	if !g.checker.Check(username, password) {
		return "", Info{}, ErrBadLogin
	}

	info := Info{ID: g.newID(), Username: username, IssuedAt: g.now().UTC().Truncate(time.Second)}
	info.ExpiresAt = info.IssuedAt.Add(Lifetime)

	token, err := g.sign(info)
	if err != nil {
		return "", Info{}, err
	}
	if err := g.registry.Save(ctx, info.ID, Lifetime); err != nil {
		return "", Info{}, err
	}
	return token, info, nil
}

func (g *Guard) sign(info Info) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: info.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       info.ID,
			Subject:  info.Username,
			IssuedAt: jwt.NewNumericDate(info.IssuedAt),
		},
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (g *Guard) parse(token string) (Info, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || c.Username == "" || c.IssuedAt == nil {
		return Info{}, ErrInvalid
	}

	issuedAt := c.IssuedAt.Time.UTC()
	return Info{ID: c.ID, Username: c.Username, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(Lifetime)}, nil
}

// Validate returns the session carried by token, ErrExpired once 24 hours have passed
// since login, or ErrInvalid for malformed, forged or revoked tokens.
func (g *Guard) Validate(ctx context.Context, token string) (Info, error) {
	if token == "" {
		return Info{}, ErrInvalid
	}
	info, err := g.parse(token)
	if err != nil {
		return Info{}, err
	}

	now := g.now()
	if info.IssuedAt.After(now.Add(clockSkew)) {
		return Info{}, ErrInvalid
	}
	if !now.Before(info.ExpiresAt) {
		return Info{}, ErrExpired
	}

	if info.ID != "" {
		ok, err := g.registry.Exists(ctx, info.ID)
		if err != nil {
			return Info{}, err
		}
		if !ok {
			return Info{}, ErrInvalid
		}
	}
	return info, nil
}

// Logout revokes token. Malformed tokens are ignored.
func (g *Guard) Logout(ctx context.Context, token string) error {
	info, err := g.parse(token)
	if err != nil || info.ID == "" {
		return nil
	}
	return g.registry.Delete(ctx, info.ID)
}
