package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-helpdesk/pkg/domain"
)

// DefaultAccessTokenTTL is used when TokenConfig.AccessTokenTTL is zero.
const DefaultAccessTokenTTL = 15 * time.Minute

// TokenConfig holds access token configuration.
type TokenConfig struct {
	AccessTokenTTL time.Duration
	JWTSecret      []byte
	Issuer         string
}

// TokenService signs and validates caller access tokens.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig) *TokenService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	return &TokenService{config: config}
}

// AccessTokenClaims represents the claims in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	TenantID string      `json:"tenant_id"`
	Role     domain.Role `json:"role"`
}

// Issue signs an access token for caller.
func (s *TokenService) Issue(caller domain.Caller) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			Issuer:    s.config.Issuer,
			ID:        uuid.NewString(),
		},
		TenantID: caller.TenantID.String(),
		Role:     caller.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.config.JWTSecret)
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *TokenService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.config.JWTSecret, nil
	}, opts...)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// Caller validates tokenString and returns the caller it identifies.
func (s *TokenService) Caller(tokenString string) (domain.Caller, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return domain.Caller{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Caller{}, domain.ErrInvalidToken
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return domain.Caller{}, domain.ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return domain.Caller{}, domain.ErrInvalidToken
	}

	return domain.Caller{UserID: userID, TenantID: tenantID, Role: claims.Role}, nil
}
