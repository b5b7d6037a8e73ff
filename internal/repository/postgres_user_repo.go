package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/gadash/internal/model"
)

const userColumns = `id, google_id, display_name, access_token, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// Upsert はgoogle_idの一意制約を使ってユーザーを作成または更新する。
// 競合時はaccess_tokenとupdated_atのみを更新する。
// xmax = 0 は当該行がこの文でINSERTされたことを示す。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, bool, error) {
	saved := &model.User{}
	var created bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, google_id, display_name, access_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (google_id) DO UPDATE
		   SET access_token = EXCLUDED.access_token,
		       updated_at   = EXCLUDED.updated_at
		 RETURNING `+userColumns+`, (xmax = 0) AS created`,
		user.ID, user.GoogleID, user.DisplayName, user.AccessToken, user.CreatedAt, user.UpdatedAt,
	).Scan(&saved.ID, &saved.GoogleID, &saved.DisplayName, &saved.AccessToken, &saved.CreatedAt, &saved.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}
	return saved, created, nil
}

// scanUser は1行をmodel.Userに読み込む。行がない場合はnil, nilを返す。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.GoogleID, &user.DisplayName, &user.AccessToken, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
