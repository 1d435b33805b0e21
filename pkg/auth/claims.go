package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// AppMetadata is the provider-controlled metadata block; users cannot edit it.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// AccessTokenClaims mirrors the identity provider's access token.
type AccessTokenClaims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a UUID.
func (c AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// StoreRole resolves the storefront role; only app metadata can grant admin.
func (c AccessTokenClaims) StoreRole(adminRole string) string {
	if adminRole == "" {
		adminRole = RoleAdmin
	}
	if strings.EqualFold(strings.TrimSpace(c.AppMetadata.Role), adminRole) {
		return RoleAdmin
	}
	return RoleCustomer
}

// AccessTokenPayload is used to mint tokens for local tooling and tests.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Admin  bool
}
