package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
)

// UserRepository persists staff accounts in app_user.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*User, error)
}
