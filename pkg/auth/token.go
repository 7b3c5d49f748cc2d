package auth

import (
	"errors"
	"time"

	"apiprobe/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the bearer token claims accepted by the service
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 bearer tokens
type TokenService struct {
	signingKey []byte
	issuer     string
}

func NewTokenService(signingKey, issuer string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Issue mints a token for subject valid for ttl
func (s *TokenService) Issue(subject, name string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", apperr.New(apperr.CodeBadRequest, "subject cannot be empty")
	}
	if ttl <= 0 {
		return "", apperr.New(apperr.CodeBadRequest, "ttl must be positive")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate checks signature, algorithm, expiry and issuer and returns the
// claims. Every failure is an unauthorized error.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "missing bearer token")
	}

	claims := new(Claims)
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperr.New(apperr.CodeUnauthorized, "token expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperr.New(apperr.CodeUnauthorized, "invalid token signature")
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, apperr.New(apperr.CodeUnauthorized, "unexpected token issuer")
		default:
			return nil, apperr.New(apperr.CodeUnauthorized, "invalid bearer token")
		}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "invalid bearer token")
	}

	return claims, nil
}
