package domain

import (
	"time"
)

const (
	AuthoritySysAdmin    = "SYS_ADMIN"
	AuthorityTenantAdmin = "TENANT_ADMIN"
	AuthorityCustomer    = "CUSTOMER_USER"
)

// SystemTenantID is the tenant system administrators belong to
const SystemTenantID = "13814000-1dd2-11b2-8080-808080808080"

// Principal is the authenticated caller of a registry operation
type Principal struct {
	UserID    string `json:"user_id"`
	TenantID  string `json:"tenant_id"`
	Authority string `json:"authority"`
}

// HasAuthority reports whether the principal holds one of the given authorities
func (p *Principal) HasAuthority(authorities ...string) bool {
	if p == nil {
		return false
	}
	for _, a := range authorities {
		if p.Authority == a {
			return true
		}
	}
	return false
}

// IsValidAuthority checks if authority is one of the known values
func IsValidAuthority(authority string) bool {
	switch authority {
	case AuthoritySysAdmin, AuthorityTenantAdmin, AuthorityCustomer:
		return true
	}
	return false
}

// AuthClaims represents validated JWT claims
type AuthClaims struct {
	UserID    string
	TenantID  string
	Authority string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal converts claims into the caller identity used by the registry
func (c *AuthClaims) Principal() *Principal {
	return &Principal{
		UserID:    c.UserID,
		TenantID:  c.TenantID,
		Authority: c.Authority,
	}
}

// AuthService defines JWT helpers used by the HTTP boundary
type AuthService interface {
	GenerateAccessToken(principal *Principal) (string, error)
	ValidateToken(token string) (*AuthClaims, error)
}
