package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `u.id, u.email, u.password_hash, u.first_name, u.last_name,
	u.display_name, r.name, u.is_active, u.created_at, u.updated_at`

func (repo *userRepoPG) scanRow(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.DisplayName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (repo *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := repo.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, display_name, role_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, (SELECT id FROM roles WHERE name = $7), $8)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.DisplayName, u.Role, u.IsActive)
	return err
}

func (repo *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return repo.scanRow(repo.pool.QueryRow(ctx, `
		SELECT `+userCols+` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`, id))
}

func (repo *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return repo.scanRow(repo.pool.QueryRow(ctx, `
		SELECT `+userCols+` FROM users u JOIN roles r ON r.id = u.role_id WHERE LOWER(u.email) = LOWER($1)`, email))
}

func (repo *userRepoPG) Update(ctx context.Context, u *User) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE users SET email=$2, first_name=$3, last_name=$4, display_name=$5,
			role_id=(SELECT id FROM roles WHERE name = $6), is_active=$7, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Email, u.FirstName, u.LastName, u.DisplayName, u.Role, u.IsActive)
	return err
}

func (repo *userRepoPG) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	return err
}

func (repo *userRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := repo.pool.Exec(ctx, `
		UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (repo *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := repo.pool.Query(ctx, `
		SELECT `+userCols+` FROM users u JOIN roles r ON r.id = u.role_id
		ORDER BY u.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := repo.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}
