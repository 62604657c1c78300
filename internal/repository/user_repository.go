package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// UserRepository defines persistence access for marketplace users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	ApplyPatch(ctx context.Context, id int64, patch domain.UserPatch) (bool, error)
	MarkDeleted(ctx context.Context, id int64) (bool, error)
	GetActiveByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, first_name, second_name, last_name, second_last_name,
               email, password_hash, role, created_at, updated_at, deleted_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, second_name, last_name, second_last_name, email, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.SecondName,
		user.LastName,
		user.SecondLastName,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) ApplyPatch(ctx context.Context, id int64, patch domain.UserPatch) (bool, error) {
	const query = `
        UPDATE users SET
            first_name=COALESCE($2, first_name),
            second_name=COALESCE($3, second_name),
            last_name=COALESCE($4, last_name),
            second_last_name=COALESCE($5, second_last_name),
            email=COALESCE($6, email),
            password_hash=COALESCE($7, password_hash),
            updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id,
		patch.FirstName,
		patch.SecondName,
		patch.LastName,
		patch.SecondLastName,
		patch.Email,
		patch.PasswordHash,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) MarkDeleted(ctx context.Context, id int64) (bool, error) {
	const query = `
        UPDATE users SET deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *userRepository) GetActiveByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users WHERE id=$1 AND deleted_at IS NULL`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users WHERE email=$1 AND deleted_at IS NULL`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) ListActive(ctx context.Context) ([]domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users WHERE deleted_at IS NULL
        ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows.Scan, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg).Scan, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(scan func(...any) error, user *domain.User) error {
	return scan(
		&user.ID,
		&user.FirstName,
		&user.SecondName,
		&user.LastName,
		&user.SecondLastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
}
