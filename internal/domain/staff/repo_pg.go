package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/auth"
	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, image, specialization,
	qualification, license, age, status, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	return db.Pick(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO app_user (
			id, name, email, password_hash, role, image, specialization,
			qualification, license, age, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Image, u.Specialization,
		u.Qualification, u.License, u.Age, u.Status,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE lower(email) = lower($1)`, email))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	return db.Pick(ctx, r.pool).QueryRow(ctx, `
		UPDATE app_user SET
			name = $2, email = $3, password_hash = $4, role = $5, image = $6,
			specialization = $7, qualification = $8, license = $9, age = $10,
			status = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Image,
		u.Specialization, u.Qualification, u.License, u.Age, u.Status,
	).Scan(&u.UpdatedAt)
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pick(ctx, r.pool).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := db.Pick(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pick(ctx, r.pool).Query(ctx,
		`SELECT `+userColumns+` FROM app_user ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	users, err := collectUsers(rows)
	return users, total, err
}

func (r *userRepoPG) ListByRole(ctx context.Context, role auth.Role) ([]*User, error) {
	rows, err := db.Pick(ctx, r.pool).Query(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE role = $1 ORDER BY name`, role)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Image,
		&u.Specialization, &u.Qualification, &u.License, &u.Age, &u.Status,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	defer rows.Close()
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
