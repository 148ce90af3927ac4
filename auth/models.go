package auth

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleOps      Role = "ops"
)

// Profile is the domain representation of an authenticated user.
// It mirrors the profiles table and should not include JSON annotations so it
// can be reused by different presentation layers.
type Profile struct {
	ID           string
	Email        string
	FullName     *string
	PasswordHash string
	Phone        *string
	Role         Role
	CreatedAt    time.Time
}

// RegisterRequest contains registration data supplied by callers.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
