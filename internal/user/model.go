package user

import (
	"regexp"
	"time"

	"github.com/paramedia/dispatch/internal/shared/types"
)

// User is a personnel record. PasswordHash is never serialized: every
// endpoint returns user documents through this struct, so the credential
// hash cannot leave the service regardless of the caller's permission tier.
type User struct {
	ID           types.ID  `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	BirthDate    string    `json:"birth_date,omitempty"`
	RegisteredAt string    `json:"registered_at,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email"`
	CURP         string    `json:"curp,omitempty"`
	Address      string    `json:"address,omitempty"`
	Role         string    `json:"role"`
	Shifts       []string  `json:"shifts"`
	Permissions  []string  `json:"permissions"`
	PasswordHash string    `json:"-"`
	AddedBy      *types.ID `json:"added_by,omitempty"`
	RemovedBy    *types.ID `json:"removed_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the user's display name
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CreateUserRequest is the request to create a user
type CreateUserRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	BirthDate   string   `json:"birth_date"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	CURP        string   `json:"curp"`
	Address     string   `json:"address"`
	Role        string   `json:"role"`
	Shifts      []string `json:"shifts"`
	Permissions []string `json:"permissions"`
	Password    string   `json:"password"`
}

// Validate returns per-field problems, empty when the request is valid.
func (r CreateUserRequest) Validate() map[string]string {
	details := make(map[string]string)

	if r.FirstName == "" {
		details["first_name"] = "first_name is required"
	}
	if r.LastName == "" {
		details["last_name"] = "last_name is required"
	}
	if r.Email == "" {
		details["email"] = "email is required"
	} else if !emailPattern.MatchString(r.Email) {
		details["email"] = "invalid email format"
	}
	if r.Password == "" {
		details["password"] = "password is required"
	}

	return details
}

// UpdateUserRequest is the request to update a user. PUT semantics: profile
// fields are replaced wholesale; the password is only rotated when a new
// one is given.
type UpdateUserRequest struct {
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	BirthDate   string   `json:"birth_date"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	CURP        string   `json:"curp"`
	Address     string   `json:"address"`
	Role        string   `json:"role"`
	Shifts      []string `json:"shifts"`
	Permissions []string `json:"permissions"`
	Password    string   `json:"password"`
}

// Validate returns per-field problems, empty when the request is valid.
func (r UpdateUserRequest) Validate() map[string]string {
	details := make(map[string]string)

	if r.FirstName == "" {
		details["first_name"] = "first_name is required"
	}
	if r.LastName == "" {
		details["last_name"] = "last_name is required"
	}
	if r.Email == "" {
		details["email"] = "email is required"
	} else if !emailPattern.MatchString(r.Email) {
		details["email"] = "invalid email format"
	}

	return details
}

// LoginRequest carries login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the redacted user document together with the token
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// sortColumns whitelists the API sort fields against their columns.
var sortColumns = map[string]string{
	"id":            "id",
	"first_name":    "first_name",
	"last_name":     "last_name",
	"email":         "email",
	"phone":         "phone",
	"role":          "role",
	"birth_date":    "birth_date",
	"registered_at": "registered_at",
	"created_at":    "created_at",
}
