package staff

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/apperror"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/pkg/pagination"
)

const emailConstraint = "app_user_email_key"

const minPasswordLength = 8

// SessionRevoker ends every session a user currently holds.
type SessionRevoker interface {
	RevokeAllForUser(userID string)
}

type Service struct {
	users    UserRepository
	sessions SessionRevoker
	log      zerolog.Logger
	hashCost int
}

// NewService builds the staff service. sessions may be nil.
func NewService(users UserRepository, sessions SessionRevoker, log zerolog.Logger) *Service {
	return &Service{users: users, sessions: sessions, log: log, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost used for new password hashes.
func (s *Service) SetHashCost(cost int) {
	s.hashCost = cost
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Image:          in.Image,
		Specialization: in.Specialization,
		Qualification:  in.Qualification,
		License:        in.License,
		Age:            in.Age,
		Status:         StatusActive,
	}
	if err := validateAge(u.Age); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, s.storeErr("create user", err)
	}
	s.log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, p pagination.Params) ([]*User, int, error) {
	users, total, err := s.users.List(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, s.storeErr("list users", err)
	}
	if users == nil {
		users = []*User{}
	}
	return users, total, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("load user", err)
	}
	return u, nil
}

// UpdateUser applies the non-nil fields of in. Changing the password, role or
// status ends the user's existing sessions.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("load user", err)
	}

	revoke := false
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
		revoke = true
	}
	if in.Role != nil {
		role, err := parseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		revoke = revoke || role != u.Role
		u.Role = role
	}
	if in.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*in.Status))
		if status != StatusActive && status != StatusInactive {
			return nil, apperror.Validation("status must be active or inactive")
		}
		revoke = revoke || status != u.Status
		u.Status = status
	}
	if in.Image != nil {
		u.Image = in.Image
	}
	if in.Specialization != nil {
		u.Specialization = in.Specialization
	}
	if in.Qualification != nil {
		u.Qualification = in.Qualification
	}
	if in.License != nil {
		u.License = in.License
	}
	if in.Age != nil {
		if err := validateAge(in.Age); err != nil {
			return nil, err
		}
		u.Age = in.Age
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, s.storeErr("update user", err)
	}
	if revoke {
		s.endSessions(u.ID)
	}
	return u, nil
}

// DeleteUser removes the account and ends its sessions. A doctor still
// attending patients cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperror.Conflict("user is still referenced by patient records")
		}
		return s.storeErr("delete user", err)
	}
	s.endSessions(id)
	s.log.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

// ListByRole returns the admin listing of every user holding role.
func (s *Service) ListByRole(ctx context.Context, role auth.Role) ([]*Summary, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, s.storeErr("list users by role", err)
	}
	out := make([]*Summary, 0, len(users))
	for _, u := range users {
		sum := &Summary{
			ID: u.ID, Name: u.Name, Email: u.Email,
			Age: u.Age, Status: u.Status, Image: u.Image,
		}
		switch role {
		case auth.RoleDoctor:
			sum.Specialization, sum.License = u.Specialization, u.License
		default:
			sum.Qualification = u.Qualification
		}
		out = append(out, sum)
	}
	return out, nil
}

// DoctorNames lists every doctor by id and name.
func (s *Service) DoctorNames(ctx context.Context) ([]*DoctorName, error) {
	users, err := s.users.ListByRole(ctx, auth.RoleDoctor)
	if err != nil {
		return nil, s.storeErr("list doctors", err)
	}
	out := make([]*DoctorName, 0, len(users))
	for _, u := range users {
		out = append(out, &DoctorName{ID: u.ID, Name: u.Name})
	}
	return out, nil
}

// IsDoctor reports whether id names a user with the doctor role.
func (s *Service) IsDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.users.GetByID(ctx, id)
	if db.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == auth.RoleDoctor, nil
}

var errInvalidCredentials = apperror.Unauthorized("invalid credentials")

// Authenticate checks email and password. Unknown emails and wrong passwords
// fail the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if db.IsNotFound(err) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, s.storeErr("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("stored password hash unusable")
		}
		return nil, errInvalidCredentials
	}
	if u.Status != StatusActive {
		return nil, apperror.Unauthorized("account is inactive")
	}
	return u.Principal(), nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperror.Validation("password must be at least 8 characters")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("password is too long")
		}
		return "", apperror.Persistence("hash password failed", err)
	}
	return string(h), nil
}

func (s *Service) endSessions(id uuid.UUID) {
	if s.sessions != nil {
		s.sessions.RevokeAllForUser(id.String())
	}
}

func (s *Service) storeErr(op string, err error) error {
	if apperror.KindOf(err) != apperror.KindUnknown {
		return err
	}
	if db.IsNotFound(err) {
		return apperror.NotFound("user not found")
	}
	if db.IsUniqueViolation(err, emailConstraint) {
		return apperror.Conflict("a user with this email already exists")
	}
	s.log.Error().Err(err).Str("op", op).Msg("staff store failure")
	return apperror.Persistence(op+" failed", err)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperror.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.Validation("email is not a valid address")
	}
	return email, nil
}

func parseRole(raw string) (auth.Role, error) {
	role, err := auth.ParseRole(raw)
	if err != nil {
		return "", apperror.Validation("role must be one of admin, doctor, nurse, pharmacist, frontdesk")
	}
	return role, nil
}

func validateAge(age *int) error {
	if age != nil && (*age < 0 || *age > 150) {
		return apperror.Validation("age is out of range")
	}
	return nil
}
