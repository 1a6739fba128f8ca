package staff

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
)

type mockUserRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*User
	// referenced ids fail deletion with a foreign key violation.
	referenced map[uuid.UUID]bool
	failErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{store: make(map[uuid.UUID]*User), referenced: make(map[uuid.UUID]bool)}
}

func (m *mockUserRepo) emailTaken(email string, self uuid.UUID) bool {
	for id, u := range m.store {
		if id != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if m.emailTaken(u.Email, uuid.Nil) {
		return &pgconn.PgError{Code: "23505", ConstraintName: emailConstraint}
	}
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	u, ok := m.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	if m.emailTaken(u.Email, u.ID) {
		return &pgconn.PgError{Code: "23505", ConstraintName: emailConstraint}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.referenced[id] {
		return &pgconn.PgError{Code: "23503", ConstraintName: "patient_attended_by_doctor_id_fkey"}
	}
	if _, ok := m.store[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.store, id)
	return nil
}

func (m *mockUserRepo) sorted() []*User {
	var all []*User
	for _, u := range m.store {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	return all
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, 0, m.failErr
	}
	all := m.sorted()
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role auth.Role) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.sorted() {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) RevokeAllForUser(userID string) {
	r.revoked = append(r.revoked, userID)
}
