package token

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ruhamakhan123/nhs-ibrahim-backend/internal/platform/db"
)

const settingID = 1

type counterRepoPG struct {
	pool *pgxpool.Pool
}

func NewCounterRepo(pool *pgxpool.Pool) CounterRepository {
	return &counterRepoPG{pool: pool}
}

func (r *counterRepoPG) Get(ctx context.Context) (Counter, bool, error) {
	var c Counter
	err := db.Pick(ctx, r.pool).QueryRow(ctx,
		`SELECT last_token, last_token_date FROM global_setting WHERE id = $1`, settingID,
	).Scan(&c.LastToken, &c.LastTokenDate)
	if db.IsNotFound(err) {
		return Counter{}, false, nil
	}
	if err != nil {
		return Counter{}, false, err
	}
	return c, true, nil
}

func (r *counterRepoPG) Init(ctx context.Context, c Counter) (bool, error) {
	tag, err := db.Pick(ctx, r.pool).Exec(ctx, `
		INSERT INTO global_setting (id, last_token, last_token_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		settingID, c.LastToken, c.LastTokenDate,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *counterRepoPG) CompareAndSwap(ctx context.Context, old, next Counter) (bool, error) {
	tag, err := db.Pick(ctx, r.pool).Exec(ctx, `
		UPDATE global_setting
		SET last_token = $2, last_token_date = $3
		WHERE id = $1 AND last_token = $4 AND last_token_date = $5`,
		settingID, next.LastToken, next.LastTokenDate, old.LastToken, old.LastTokenDate,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
