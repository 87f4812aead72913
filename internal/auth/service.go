package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/passforge/passforge/internal/repo"
	"github.com/passforge/passforge/internal/store"
)

// ErrInvalidCredentials is returned when an email/password pair does not
// match a stored user.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// ErrInactive is returned when the account exists but is deactivated.
var ErrInactive = errors.New("inactive user")

// ErrUserNotFound is returned when the identity referenced by a token no
// longer exists.
var ErrUserNotFound = errors.New("user not found")

// TokenPair is the response shape of the login and refresh contracts.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// Service provides login, refresh and registration on top of the user
// repository and the token service.
type Service struct {
	users      *Repository
	tokens     *TokenService
	bcryptCost int
}

// NewService creates an auth Service.
func NewService(users *Repository, tokens *TokenService, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Tokens exposes the underlying token service.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Users exposes the underlying user repository.
func (s *Service) Users() *Repository { return s.users }

// Login verifies an email/password pair and issues a fresh token pair.
// The password check runs even when no user matches, so response timing
// does not reveal whether the email exists.
func (s *Service) Login(ctx context.Context, sess *store.Session, email, password string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, sess, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			VerifyPassword(dummyHash, password)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("looking up user: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenPair{}, ErrInactive
	}

	return s.mintPair(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair. A
// token without the refresh flag is rejected with ErrInvalidToken; a
// token whose identity is gone fails with ErrUserNotFound; an inactive
// identity fails with ErrInactive.
func (s *Service) Refresh(ctx context.Context, sess *store.Session, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if !claims.Refresh {
		return TokenPair{}, ErrInvalidToken
	}

	userID, err := claims.SubjectID()
	if err != nil {
		return TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, sess, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("looking up user: %w", err)
	}
	if !user.IsActive {
		return TokenPair{}, ErrInactive
	}

	return s.mintPair(user)
}

// Register creates a new active, non-superuser account with no tenant.
// Returns repo.ErrConflict when the email is already registered.
func (s *Service) Register(ctx context.Context, sess *store.Session, email, password string, fullName *string) (*User, error) {
	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, sess, user); err != nil {
		return nil, err
	}
	return user, nil
}

// HashPassword hashes a password at the service's configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

func (s *Service) mintPair(user *User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, TokenType: "bearer", RefreshToken: refresh}, nil
}

// dummyHash keeps login timing uniform when the email is unknown.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
