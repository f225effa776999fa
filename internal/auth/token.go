package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/shop-service/internal/domain"
)

// Verification failures. Every failure returned by ParseToken wraps exactly one of them.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	errMissingSecret    = errors.New("signing secret is empty")
	errMissingIdentity  = errors.New("user id and username are required")
)

const defaultTokenLifetime = 14 * 24 * time.Hour

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) { tm.now = now }
}

// NewTokenManager builds a new manager. The secret must be the same for the whole
// lifetime of every outstanding token.
func NewTokenManager(secret string, ttl time.Duration, issuer, audience string, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, errMissingSecret
	}
	if ttl <= 0 {
		ttl = defaultTokenLifetime
	}
	tm := &TokenManager{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes JWT payload.
type Claims struct {
	UserID   string            `json:"userId"`
	Username string            `json:"username"`
	Status   domain.UserStatus `json:"status"`
	jwt.RegisteredClaims
}

// GenerateToken builds and signs a JWT for the user.
func (tm *TokenManager) GenerateToken(userID, username string, status domain.UserStatus) (*domain.Token, error) {
	if userID == "" || username == "" {
		return nil, errMissingIdentity
	}
	issuedAt := tm.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Status:   status,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{tm.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, err
	}
	return &domain.Token{
		Value:     tokenString,
		UserID:    userID,
		Username:  username,
		Status:    status,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates and returns claims. The signature is checked over the raw
// header and payload before anything in them is decoded, so any tampering is
// reported as ErrInvalidSignature.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformedToken
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, tm.secret); err != nil {
		return nil, ErrInvalidSignature
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(tm.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	if !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if claims.UserID == "" || claims.Username == "" || claims.Subject != claims.UserID {
		return nil, fmt.Errorf("%w: identity claims missing", ErrMalformedToken)
	}
	return claims, nil
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}
