package auth

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Request/Response types
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Permission constants
const (
	PermBlueprintRead   = "blueprint:read"
	PermBlueprintWrite  = "blueprint:write"
	PermBlueprintDelete = "blueprint:delete"
	PermContentRead     = "content:read"
	PermContentWrite    = "content:write"
	PermContentDelete   = "content:delete"
	PermUserManage      = "user:manage"
)

var AllPermissions = []string{
	PermBlueprintRead, PermBlueprintWrite, PermBlueprintDelete,
	PermContentRead, PermContentWrite, PermContentDelete,
	PermUserManage,
}

var AdminPermissions = append([]string{}, AllPermissions...)

// Editors fill content but cannot change blueprint structure.
var EditorPermissions = []string{
	PermBlueprintRead,
	PermContentRead, PermContentWrite, PermContentDelete,
}

var ViewerPermissions = []string{
	PermBlueprintRead,
	PermContentRead,
}

// Permissions returns the permission set granted to role.
func Permissions(role Role) []string {
	switch role {
	case RoleAdmin:
		return AdminPermissions
	case RoleEditor:
		return EditorPermissions
	case RoleViewer:
		return ViewerPermissions
	}
	return nil
}

func HasPermission(role Role, permission string) bool {
	for _, p := range Permissions(role) {
		if p == permission {
			return true
		}
	}
	return false
}
