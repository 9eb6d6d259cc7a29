package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role determines what a user may do. The model is binary: admins manage
// users, everyone else manages their own work.
type Role string

// Valid role values.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an operator account. The password is stored only as a
// bcrypt hash; the plaintext Password field exists solely to carry input
// from registration/update requests to the hashing boundary and is never
// serialized.
type User struct {
	ID                   int64      `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	Password             string     `json:"-"`
	HashedPassword       string     `json:"-"`
	Name                 string     `json:"name,omitempty"`
	AvatarURL            string     `json:"avatarUrl,omitempty"`
	Role                 Role       `json:"role"`
	Active               bool       `json:"active"`
	Timezone             string     `json:"timezone,omitempty"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	LastLogin            *time.Time `json:"lastLogin,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// NewUser creates a new User with the given username, email, and
// plaintext password, defaulting to the non-admin role and active state.
// The caller is responsible for hashing the password before storage.
// Returns an error if validation fails.
func NewUser(username, email, password string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		Username:             username,
		Email:                email,
		Password:             password,
		Role:                 RoleUser,
		Active:               true,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// Validate checks if the User has valid data.
// Returns a ValidationError if any field fails validation.
func (u *User) Validate() error {
	if u.Username == "" {
		return NewValidationError("username", "is required", nil)
	}
	if u.Email == "" {
		return NewValidationError("email", "is required", nil)
	}
	if !strings.Contains(u.Email, "@") {
		return NewValidationError("email", "is not a valid address", nil)
	}
	if u.Password == "" && u.HashedPassword == "" {
		return NewValidationError("password", "is required", nil)
	}
	if u.Role != "" && !u.Role.IsValid() {
		return NewValidationError("role", "must be admin or user", nil)
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// MarshalJSON adds the derived initials alongside the stored fields so
// clients never compute avatar text themselves.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		Initials string `json:"initials"`
	}{alias(u), u.Initials()})
}

// Initials derives the avatar initials shown by the client: the first
// letters of the first two words of the display name, or the first two
// characters of the username when no name is set.
func (u *User) Initials() string {
	if u.Name != "" {
		parts := strings.Fields(u.Name)
		if len(parts) >= 2 {
			return strings.ToUpper(firstRune(parts[0]) + firstRune(parts[1]))
		}
		return upperPrefix(parts[0], 2)
	}
	return upperPrefix(u.Username, 2)
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func upperPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.ToUpper(string(runes))
}
