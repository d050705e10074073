package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexaprendiz/lexaprendiz/pkg/admin"
	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
)

// UserRepository implements auth.UserRepository and admin.Repository backed
// by PostgreSQL (pgx). The schema comes from the goose migrations.
type UserRepository struct {
	pool *pgxpool.Pool
}

var (
	_ auth.UserRepository = (*UserRepository)(nil)
	_ admin.Repository    = (*UserRepository)(nil)
)

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, COALESCE(cpf, ''), city, state, cep,
	address, number, complement, neighborhood, is_admin, created_at`

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CPF, &u.City, &u.State, &u.CEP,
		&u.Address, &u.Number, &u.Complement, &u.Neighborhood, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrNotFound
		}
		return auth.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// nullable stores an empty CPF as NULL so the unique constraint ignores it.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// uniqueViolation maps 23505 on the users constraints to domain errors.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return auth.ErrDuplicateEmail
	case "users_cpf_key":
		return auth.ErrDuplicateTaxpayerID
	case "users_pkey":
		return auth.ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepository) Create(ctx context.Context, user auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, cpf, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, strings.ToLower(user.Email), user.PasswordHash, user.Name, nullable(user.CPF), user.IsAdmin, user.CreatedAt)
	if err != nil {
		return uniqueViolation(err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// GetByCPF matches the stored value exactly.
func (r *UserRepository) GetByCPF(ctx context.Context, cpf string) (auth.User, error) {
	if cpf == "" {
		return auth.User{}, auth.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE cpf = $1`, cpf))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (auth.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u auth.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, cpf = $3, city = $4, state = $5, cep = $6,
			address = $7, number = $8, complement = $9, neighborhood = $10
		WHERE id = $1
	`, u.ID, u.Name, nullable(u.CPF), u.City, u.State, u.CEP, u.Address, u.Number, u.Complement, u.Neighborhood)
	if err != nil {
		return uniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) CountUsersWithProfile(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE name <> '' AND cpf IS NOT NULL`).Scan(&n)
	return n, err
}

func (r *UserRepository) RecentUsers(ctx context.Context, limit int) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

// SearchUsers lists matches newest first together with the total match count.
// The search term is matched literally, case-insensitively.
func (r *UserRepository) SearchUsers(ctx context.Context, q admin.UserQuery) ([]auth.User, int, error) {
	const where = `
		WHERE $1 = ''
		   OR strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(email), lower($1)) > 0
		   OR strpos(cpf, $1) > 0
		   OR ($2 <> '' AND strpos(regexp_replace(cpf, '[^0-9]', '', 'g'), $2) > 0)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`+where, q.Search, q.CPFDigits).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+where+`
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`, q.Search, q.CPFDigits, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	users, err := collectUsers(rows)
	return users, total, err
}

func (r *UserRepository) EachUser(ctx context.Context, fn func(auth.User) error) error {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return rows.Err()
}

// DeleteUsers removes the accounts in one transaction; questions follow
// through ON DELETE CASCADE.
func (r *UserRepository) DeleteUsers(ctx context.Context, ids []uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *UserRepository) UpdateCPFs(ctx context.Context, cpfs map[uuid.UUID]string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for id, v := range cpfs {
		batch.Queue(`UPDATE users SET cpf = $2 WHERE id = $1`, id, nullable(v))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return uniqueViolation(err)
	}
	return tx.Commit(ctx)
}

func collectUsers(rows pgx.Rows) ([]auth.User, error) {
	defer rows.Close()
	out := []auth.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
