package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/arnold-commerce/backend/apperrors"
)

// SessionClaims is the verified content of a session token.
type SessionClaims struct {
	UserID    uuid.UUID
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService creates and verifies signed session tokens. Tokens are opaque
// HS256 JWTs carrying user id, role, expiry and a jti for revocation; no
// server-side session object is needed to validate them.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secretKey: []byte(secret), ttl: ttl}
}

// Generate issues a session token for the user. Validation never extends the
// expiry set here.
func (s *TokenService) Generate(userID uuid.UUID, role string) (token string, tokenID string, expiresAt time.Time, err error) {
	tokenID = uuid.NewString()
	expiresAt = time.Now().Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"typ":  "access",
		"jti":  tokenID,
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	return token, tokenID, expiresAt, err
}

// Verify parses and validates a token string, distinguishing an elapsed
// expiry from a malformed or forged token.
func (s *TokenService) Verify(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeExpired, "session expired")
		}
		return nil, apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeMalformed, "malformed session token")
	}
	if !token.Valid {
		return nil, apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeMalformed, "invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeMalformed, "invalid token claims")
	}
	return parseSessionClaims(claims)
}

func parseSessionClaims(claims jwt.MapClaims) (*SessionClaims, error) {
	malformed := apperrors.New(apperrors.KindUnauthenticated, apperrors.CodeMalformed, "malformed session token")

	if typ, ok := claims["typ"].(string); !ok || typ != "access" {
		return nil, malformed
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, malformed
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, malformed
	}
	role, ok := claims["role"].(string)
	if !ok {
		return nil, malformed
	}
	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, malformed
	}

	sc := &SessionClaims{UserID: userID, Role: role, TokenID: tokenID}
	if exp, ok := claims["exp"].(float64); ok {
		sc.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return sc, nil
}
