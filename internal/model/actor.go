package model

import "strings"

// Role names come from the user directory and are compared
// case-insensitively everywhere.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleMenadzer       Role = "menadzer"
	RoleSef            Role = "sef"
	RoleMagacioner     Role = "magacioner"
	RoleKomercijalista Role = "komercijalista"
	RoleLogistika      Role = "logistika"
)

// NormalizeRole lowercases a role string for comparison.
func NormalizeRole(r string) Role {
	return Role(strings.ToLower(strings.TrimSpace(r)))
}

// Actor is the authenticated caller, supplied by the transport layer after
// token verification. The engine trusts it and only does authorization.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
