package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the
// external identity provider. The core only validates and extracts; it never
// issues tokens.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
