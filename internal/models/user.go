package models

import "github.com/golang-jwt/jwt/v5"

// UserRole mirrors the roles issued by the school backend.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleDOS       UserRole = "DOS"
	RoleTeacher   UserRole = "TEACHER"
	RolePrincipal UserRole = "PRINCIPAL"
)

// ReportRoles may read results and generate exports.
var ReportRoles = []UserRole{RoleDOS, RolePrincipal, RoleAdmin}

// JWTClaims represents the JWT payload of backend-issued access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
