package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity provider.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	CompanyID string   `json:"company_id"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller holds the admin capability.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role.IsAdmin()
}

// SameCompany reports whether the caller may see a record of the given tenant.
// DEV_ADMIN spans every tenant.
func (c *JWTClaims) SameCompany(companyID string) bool {
	if c == nil {
		return false
	}
	return c.Role == RoleDevAdmin || c.CompanyID == companyID
}
