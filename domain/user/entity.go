package user

import (
	"slices"
	"time"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleJobSeeker Role = "jobSeeker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains([]Role{RoleAdmin, RoleRecruiter, RoleJobSeeker}, r)
}

// User represents a user entity in the system.
type User struct {
	ID                  string     `gorm:"primaryKey;type:text"`
	Email               string     `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash        string     `gorm:"not null;type:text" json:"-"`
	Role                Role       `gorm:"not null;type:text;default:jobSeeker"`
	IsVerified          bool       `gorm:"not null;default:false"`
	VerificationToken   *string    `gorm:"index;type:text"`
	ResetPasswordToken  *string    `gorm:"index;type:text"`
	ResetPasswordExpire *time.Time
	InviteCodeUsed      *string `gorm:"type:text"`
	TokenVersion        int     `gorm:"not null;default:0"`
	FullName            string  `gorm:"type:text"`
	Contact             string  `gorm:"type:text"`
	Designation         string  `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Identity returns the public view of the user. The password hash and the
// token fields never leave the auth module.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		FullName:    u.FullName,
		Contact:     u.Contact,
		Designation: u.Designation,
		CreatedAt:   u.CreatedAt,
	}
}

// Identity is the authenticated user attached to a request.
type Identity struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	IsVerified  bool      `json:"isVerified"`
	FullName    string    `json:"fullName,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	Designation string    `json:"designation,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasRole reports whether the identity holds any of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	return slices.Contains(roles, i.Role)
}

// Profile holds the optional fields accepted at registration.
type Profile struct {
	FullName    string `json:"fullName,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
