package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnold-commerce/backend/apperrors"
	"github.com/arnold-commerce/backend/logger"
	"github.com/arnold-commerce/backend/models"
	"github.com/arnold-commerce/backend/repository"
)

// Identity is the authenticated caller handed to downstream components.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

var errInvalidCredentials = apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeInvalidCredentials, "invalid email or password")

// AuthService is the credential store: it owns user records, issues session
// tokens and maintains the revocation list.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	tokens    *TokenService
	passwords *PasswordValidator
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		passwords: NewPasswordValidator(),
	}
}

// Register creates a new customer account. The password is bcrypt-hashed
// before storage; the plaintext is never retained.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if err := s.passwords.Validate(password); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicateEmail, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicateEmail, "email already registered")
		}
		return nil, apperrors.Internal(err)
	}

	logger.Info(ctx, "user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}

	// bcrypt's comparison is constant-time with respect to the hash.
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, _, expiresAt, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Validate verifies a session token and resolves it to an identity. It is
// pure verification: expiry is never extended.
func (s *AuthService) Validate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return Identity{}, apperrors.Internal(err)
	}
	if revoked {
		return Identity{}, apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeRevoked, "session revoked")
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// Revoke marks a token invalid for future validation. Revoking an already
// revoked or expired token is a no-op.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeExpired {
			return nil
		}
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.TokenID, claims.UserID, claims.ExpiresAt); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Profile returns the user record for an authenticated identity.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "", "user not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// ChangePassword re-verifies the current password before accepting a new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.New(apperrors.KindNotFound, "", "user not found")
		}
		return apperrors.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return errInvalidCredentials
	}
	if err := s.passwords.Validate(next); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal(err)
	}
	user.Password = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.Internal(err)
	}

	logger.Info(ctx, "password changed", zap.String("user_id", userID.String()))
	return nil
}

// DeleteAccount removes the user record. Outstanding tokens become useless
// once the record is gone only for operations that resolve the user, so the
// caller's current token is revoked alongside.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return apperrors.Internal(err)
	}
	if token != "" {
		_ = s.Revoke(ctx, token)
	}
	logger.Info(ctx, "account deleted", zap.String("user_id", userID.String()))
	return nil
}
