package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"blog/pkg/common"
	"blog/pkg/user"
)

type (
	sessionKey string

	// SessionManager issues and verifies bearer tokens. Tokens carry only
	// the user id and the expiry; nothing is kept on the server.
	SessionManager struct {
		secret []byte
		ttl    time.Duration
		now    func() time.Time
	}
)

const SessionKey sessionKey = "authenticatedUser"

var ErrNoAuth = fmt.Errorf("sessions: no session found: %w", common.ErrUnauthorized)

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (sm *SessionManager) CreateToken(u *user.User) (string, error) {
	now := sm.now()
	claims := jwt.StandardClaims{
		Subject:   u.Id,
		ExpiresAt: now.Add(sm.ttl).Unix(),
		IssuedAt:  now.Unix(),
		Id:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("sessions: can't sign token: %w", err)
	}
	return token, nil
}

// UserIdFromToken verifies the token from an `Authorization: Bearer`
// header value and returns the user id it carries.
func (sm *SessionManager) UserIdFromToken(authHeader string) (string, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("sessions: auth header is empty: %w", common.ErrUnauthorized)
	}

	claims := new(jwt.StandardClaims)
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return sm.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("sessions: token is not valid: %v: %w", err, common.ErrUnauthorized)
	}
	if !token.Valid {
		return "", fmt.Errorf("sessions: token is not valid: %w", common.ErrUnauthorized)
	}
	if claims.Subject == "" || claims.ExpiresAt == 0 {
		return "", fmt.Errorf("sessions: token has no subject or expiry: %w", common.ErrUnauthorized)
	}
	return claims.Subject, nil
}

func WithAuthUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, SessionKey, u)
}

func GetAuthUser(ctx context.Context) (*user.User, error) {
	u, ok := ctx.Value(SessionKey).(*user.User)
	if !ok || u == nil {
		return nil, ErrNoAuth
	}
	return u, nil
}

// IsAuthError reports whether err is a token verification failure, as
// opposed to a failure of the verifier itself.
func IsAuthError(err error) bool {
	return errors.Is(err, common.ErrUnauthorized)
}
