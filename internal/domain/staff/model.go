package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
)

// Account status values. Only active users can sign in.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a staff account. The password hash never leaves the service.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           auth.Role `json:"role"`
	Image          *string   `json:"image"`
	Specialization *string   `json:"specialization"`
	Qualification  *string   `json:"qualification"`
	License        *string   `json:"license"`
	Age            *int      `json:"age"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) Principal() *auth.Principal {
	return &auth.Principal{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}

// Summary is the admin's view of a staff member in a role listing.
type Summary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Specialization *string   `json:"specialization,omitempty"`
	Qualification  *string   `json:"qualification,omitempty"`
	License        *string   `json:"license,omitempty"`
	Age            *int      `json:"age"`
	Status         string    `json:"status"`
	Image          *string   `json:"image"`
}

// DoctorName is what the front desk needs to pick an attending doctor.
type DoctorName struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CreateUserInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Role           string  `json:"role"`
	Image          *string `json:"image"`
	Specialization *string `json:"specialization"`
	Qualification  *string `json:"qualification"`
	License        *string `json:"license"`
	Age            *int    `json:"age"`
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	Role           *string `json:"role"`
	Image          *string `json:"image"`
	Specialization *string `json:"specialization"`
	Qualification  *string `json:"qualification"`
	License        *string `json:"license"`
	Age            *int    `json:"age"`
	Status         *string `json:"status"`
}
