package domain

import (
	"slices"
	"time"
)

// Roles issued by the backend.
const (
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
	RoleAdmin      = "ROLE_ADMIN"
)

// SuperAdminUsername is the seeded account whose row cannot be edited.
const SuperAdminUsername = "superadmin"

// Admin is a staff account.
type Admin struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	Status      bool   `json:"status"`
}

// Locked reports whether the row is the seeded super admin.
func (a Admin) Locked() bool {
	return a.Username == SuperAdminUsername
}

// Customer is a person depositing stuff or withdrawing their balance.
type Customer struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	BirthDate   string `json:"birthDate"`
	KtpNumber   string `json:"ktpNumber"`
	Balance     int64  `json:"balance"`
	Status      bool   `json:"status"`
}

// AdminInput registers or updates an admin. Password is required on
// registration only.
type AdminInput struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username" validate:"required,min=4"`
	Password    string `json:"password,omitempty" validate:"required_without=ID,omitempty,min=8,password"`
	Email       string `json:"email" validate:"required,contains=@"`
	Name        string `json:"name" validate:"required,min=4"`
	PhoneNumber string `json:"phoneNumber" validate:"required,numeric,min=10,max=13"`
	Address     string `json:"address" validate:"required,min=10"`
}

// CustomerInput registers or updates a customer.
type CustomerInput struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username" validate:"required,min=4"`
	Password    string `json:"password,omitempty" validate:"required_without=ID,omitempty,min=8,password"`
	Email       string `json:"email" validate:"required,contains=@"`
	Name        string `json:"name" validate:"required,min=4"`
	PhoneNumber string `json:"phoneNumber" validate:"required,numeric,min=10,max=13"`
	Address     string `json:"address" validate:"required,min=10"`
	BirthDate   string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	KtpNumber   string `json:"ktpNumber" validate:"required,numeric,len=16"`
}

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email" validate:"required,contains=@"`
	Password string `json:"password" validate:"required,min=8"`
}

// Identity is the signed-in staff member as reported by the backend token.
// It is read-only for the lifetime of a session.
type Identity struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	AdminID   string    `json:"adminId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return slices.Contains(i.Roles, role)
}

// IsSuperAdmin reports whether the identity may manage admins.
func (i *Identity) IsSuperAdmin() bool {
	return i.HasRole(RoleSuperAdmin)
}

// DisplayName returns the best available name for the navbar.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	if i.Email != "" {
		return i.Email
	}
	return i.Subject
}
