package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alfanzaky/queuehub/config"
	"github.com/alfanzaky/queuehub/internal/domain"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrMissingTenant    = errors.New("token carries no tenant")
	ErrUnknownAuthority = errors.New("token carries unknown authority")
)

type customClaims struct {
	TenantID  string `json:"tenant_id"`
	Authority string `json:"authority"`
	jwt.RegisteredClaims
}

// JWTAuthService implements domain.AuthService using HS256 signed JWTs
type JWTAuthService struct {
	cfg config.AuthConfig
}

var _ domain.AuthService = (*JWTAuthService)(nil)

// NewJWTAuthService creates a new auth service instance
func NewJWTAuthService(cfg config.AuthConfig) *JWTAuthService {
	return &JWTAuthService{cfg: cfg}
}

func (s *JWTAuthService) accessTTL() time.Duration {
	if s.cfg.AccessTokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.cfg.AccessTokenTTL
}

// GenerateAccessToken creates signed JWT access token for the given principal
func (s *JWTAuthService) GenerateAccessToken(principal *domain.Principal) (string, error) {
	if principal == nil || principal.UserID == "" {
		return "", fmt.Errorf("invalid principal payload")
	}
	if principal.TenantID == "" {
		return "", ErrMissingTenant
	}
	if !domain.IsValidAuthority(principal.Authority) {
		return "", ErrUnknownAuthority
	}

	now := time.Now()
	claims := &customClaims{
		TenantID:  principal.TenantID,
		Authority: principal.Authority,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL())),
			ID:        fmt.Sprintf("%s-%d", principal.UserID, now.UnixNano()),
		},
	}
	if audience := strings.TrimSpace(s.cfg.Audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates JWT token and returns AuthClaims
func (s *JWTAuthService) ValidateToken(token string) (*domain.AuthClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &customClaims{}
	options := []jwt.ParserOption{jwt.WithIssuedAt(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if iss := strings.TrimSpace(s.cfg.Issuer); iss != "" {
		options = append(options, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(s.cfg.Audience); aud != "" {
		options = append(options, jwt.WithAudience(aud))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	authority := strings.ToUpper(claims.Authority)
	if !domain.IsValidAuthority(authority) {
		return nil, ErrUnknownAuthority
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenant
	}

	result := &domain.AuthClaims{
		UserID:    claims.Subject,
		TenantID:  claims.TenantID,
		Authority: authority,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
