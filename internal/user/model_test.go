package user

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/paramedia/dispatch/internal/shared/types"
)

// TestPasswordHashNeverSerialized tests that the credential hash cannot
// appear in a serialized user document
func TestPasswordHashNeverSerialized(t *testing.T) {
	u := User{
		ID:           types.NewID(),
		FirstName:    "Laura",
		LastName:     "Mendoza",
		Email:        "laura.mendoza@paramedia.com",
		Role:         "turnchief",
		Shifts:       []string{"LV-8am3pm"},
		Permissions:  []string{"view_turn_reports"},
		PasswordHash: "$2a$10$supersecrethash",
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if strings.Contains(string(data), "supersecrethash") {
		t.Error("Serialized user contains the password hash")
	}
	if strings.Contains(string(data), "password") {
		t.Errorf("Serialized user contains a password field: %s", data)
	}
}

// TestFullName tests the display name used for report snapshots
func TestFullName(t *testing.T) {
	u := User{FirstName: "Diego", LastName: "Ramirez"}
	if got := u.FullName(); got != "Diego Ramirez" {
		t.Errorf("Expected 'Diego Ramirez', got %q", got)
	}
}

// TestCreateUserRequestValidate tests required-field and format checks
func TestCreateUserRequestValidate(t *testing.T) {
	valid := CreateUserRequest{
		FirstName: "Sofia",
		LastName:  "Castillo",
		Email:     "sofia@paramedia.com",
		Password:  "changeme123",
		Role:      "paramedic",
	}

	if details := valid.Validate(); len(details) != 0 {
		t.Errorf("Expected valid request, got %v", details)
	}

	cases := []struct {
		name   string
		mutate func(*CreateUserRequest)
		field  string
	}{
		{"missing first name", func(r *CreateUserRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *CreateUserRequest) { r.LastName = "" }, "last_name"},
		{"missing email", func(r *CreateUserRequest) { r.Email = "" }, "email"},
		{"bad email format", func(r *CreateUserRequest) { r.Email = "not-an-email" }, "email"},
		{"missing password", func(r *CreateUserRequest) { r.Password = "" }, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			details := req.Validate()
			if _, ok := details[tc.field]; !ok {
				t.Errorf("Expected problem on %q, got %v", tc.field, details)
			}
		})
	}
}

// TestUpdateUserRequestValidate tests that the password is optional on update
func TestUpdateUserRequestValidate(t *testing.T) {
	req := UpdateUserRequest{
		FirstName: "Sofia",
		LastName:  "Castillo",
		Email:     "sofia@paramedia.com",
	}

	if details := req.Validate(); len(details) != 0 {
		t.Errorf("Expected valid request without password, got %v", details)
	}

	req.Email = "broken@"
	if _, ok := req.Validate()["email"]; !ok {
		t.Error("Expected email format problem")
	}
}
