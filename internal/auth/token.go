package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates a token that is malformed, badly signed or
// expired.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed claim set carried by both token kinds. Access
// tokens never carry Refresh=true; refresh tokens always do.
type Claims struct {
	Refresh bool `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the identity id the token was issued for.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.RegisteredClaims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// TokenService issues and verifies HS256-signed bearer tokens. The
// signing secret is fixed for the process lifetime and passed in at
// construction.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService with the given signing secret
// and token lifetimes.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccessToken signs a short-lived access token for the identity.
func (s *TokenService) IssueAccessToken(userID uuid.UUID) (string, error) {
	return s.issue(userID, s.accessTTL, false)
}

// IssueRefreshToken signs a long-lived refresh token for the identity.
func (s *TokenService) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return s.issue(userID, s.refreshTTL, true)
}

func (s *TokenService) issue(userID uuid.UUID, ttl time.Duration, refresh bool) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. It fails
// with ErrInvalidToken on a bad signature, malformed structure or
// expiry. It does not reject wrong-flag use; callers decide whether an
// access or refresh token is acceptable by inspecting Claims.Refresh.
func (s *TokenService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
