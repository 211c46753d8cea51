package model

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	FirstName  string `json:"firstName" binding:"required"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body of PUT /auth/profile. Email is immutable
// and therefore absent.
type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName,omitempty"`
	MiddleName      *string `json:"middleName,omitempty"`
	LastName        *string `json:"lastName,omitempty"`
	CurrentPassword string  `json:"currentPassword,omitempty"`
	NewPassword     string  `json:"newPassword,omitempty"`
}

// UpdateRoleRequest is the body of PUT /users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}
