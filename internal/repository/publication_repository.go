package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// PublicationRepository encapsulates publication persistence. Every "active"
// read joins the owning user and filters soft-deleted rows on both sides.
// State transitions are single conditional UPDATE statements so that two
// concurrent callers can never both win the same transition.
type PublicationRepository interface {
	Create(ctx context.Context, publication *domain.Publication) error
	GetActiveByID(ctx context.Context, id int64) (*domain.Publication, error)
	GetByID(ctx context.Context, id int64) (*domain.Publication, error)
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Publication, error)
	ListActiveFiltered(ctx context.Context, filter domain.PublicationFilter) ([]domain.Publication, error)
	ApplyPatch(ctx context.Context, id int64, patch domain.PublicationPatch) (bool, error)
	MarkReserved(ctx context.Context, id, reserverID int64, allowOwner bool) (bool, error)
	MarkUnreserved(ctx context.Context, id int64) (bool, error)
	MarkRetired(ctx context.Context, id int64) (bool, error)
}

type publicationRepository struct {
	pool *pgxpool.Pool
}

// NewPublicationRepository returns a Postgres-backed implementation.
func NewPublicationRepository(pool *pgxpool.Pool) PublicationRepository {
	return &publicationRepository{pool: pool}
}

const publicationColumns = `p.id, p.title, p.description, p.price, p.status,
               p.owner_id, p.reserver_id, p.created_at, p.updated_at, p.deleted_at`

func (r *publicationRepository) Create(ctx context.Context, publication *domain.Publication) error {
	const query = `
        INSERT INTO publications (title, description, price, status, owner_id, reserver_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		publication.Title,
		publication.Description,
		publication.Price,
		publication.Status,
		publication.OwnerID,
		publication.ReserverID,
	).Scan(&publication.ID, &publication.CreatedAt, &publication.UpdatedAt)
}

func (r *publicationRepository) GetActiveByID(ctx context.Context, id int64) (*domain.Publication, error) {
	query := `
        SELECT ` + publicationColumns + `
        FROM publications p
        INNER JOIN users u ON u.id = p.owner_id
        WHERE p.id=$1 AND p.deleted_at IS NULL AND u.deleted_at IS NULL`
	return r.fetchSingle(ctx, query, id)
}

// GetByID fetches without the active filters; used to classify why a
// conditional transition affected no rows.
func (r *publicationRepository) GetByID(ctx context.Context, id int64) (*domain.Publication, error) {
	query := `
        SELECT ` + publicationColumns + `
        FROM publications p
        WHERE p.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *publicationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Publication, error) {
	var publication domain.Publication
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&publication.ID,
		&publication.Title,
		&publication.Description,
		&publication.Price,
		&publication.Status,
		&publication.OwnerID,
		&publication.ReserverID,
		&publication.CreatedAt,
		&publication.UpdatedAt,
		&publication.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &publication, nil
}

func (r *publicationRepository) ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Publication, error) {
	query := `
        SELECT ` + publicationColumns + `
        FROM publications p
        INNER JOIN users u ON u.id = p.owner_id
        WHERE p.owner_id=$1 AND p.deleted_at IS NULL AND u.deleted_at IS NULL
        ORDER BY p.id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPublications(rows)
}

func (r *publicationRepository) ListActiveFiltered(ctx context.Context, filter domain.PublicationFilter) ([]domain.Publication, error) {
	base := `SELECT ` + publicationColumns + `
             FROM publications p
             INNER JOIN users u ON u.id = p.owner_id`
	clauses := []string{"p.deleted_at IS NULL", "u.deleted_at IS NULL"}
	args := []any{}

	if filter.TitleContains != nil && strings.TrimSpace(*filter.TitleContains) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.TitleContains)+"%")
		clauses = append(clauses, fmt.Sprintf("p.title ILIKE $%d", len(args)))
	}
	if filter.DescriptionContains != nil && strings.TrimSpace(*filter.DescriptionContains) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.DescriptionContains)+"%")
		clauses = append(clauses, fmt.Sprintf("p.description ILIKE $%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY p.id", base, strings.Join(clauses, " AND "))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPublications(rows)
}

func (r *publicationRepository) ApplyPatch(ctx context.Context, id int64, patch domain.PublicationPatch) (bool, error) {
	const query = `
        UPDATE publications SET
            title=COALESCE($2, title),
            description=COALESCE($3, description),
            price=COALESCE($4, price),
            owner_id=COALESCE($5, owner_id),
            updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, patch.Title, patch.Description, patch.Price, patch.OwnerID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkReserved performs the AVAILABLE -> RESERVED transition as one
// conditional write. When allowOwner is false the owner check rides in the
// same statement, keeping the transition race-free either way.
func (r *publicationRepository) MarkReserved(ctx context.Context, id, reserverID int64, allowOwner bool) (bool, error) {
	const query = `
        UPDATE publications p SET status=$3, reserver_id=$2, updated_at=NOW()
        WHERE p.id=$1 AND p.deleted_at IS NULL AND p.status=$4
          AND EXISTS (SELECT 1 FROM users u WHERE u.id = p.owner_id AND u.deleted_at IS NULL)
          AND ($5 OR p.owner_id <> $2)`
	cmd, err := r.pool.Exec(ctx, query, id, reserverID,
		domain.PublicationStatusReserved, domain.PublicationStatusAvailable, allowOwner)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkUnreserved performs RESERVED -> AVAILABLE, clearing the reserver.
func (r *publicationRepository) MarkUnreserved(ctx context.Context, id int64) (bool, error) {
	const query = `
        UPDATE publications SET status=$2, reserver_id=NULL, updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, id,
		domain.PublicationStatusAvailable, domain.PublicationStatusReserved)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkRetired soft-deletes, conditioned on AVAILABLE so a reserved row is
// never retired even under concurrent callers.
func (r *publicationRepository) MarkRetired(ctx context.Context, id int64) (bool, error) {
	const query = `
        UPDATE publications SET deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL AND status=$2`
	cmd, err := r.pool.Exec(ctx, query, id, domain.PublicationStatusAvailable)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanPublications(rows pgx.Rows) ([]domain.Publication, error) {
	var result []domain.Publication
	for rows.Next() {
		var publication domain.Publication
		if err := rows.Scan(
			&publication.ID,
			&publication.Title,
			&publication.Description,
			&publication.Price,
			&publication.Status,
			&publication.OwnerID,
			&publication.ReserverID,
			&publication.CreatedAt,
			&publication.UpdatedAt,
			&publication.DeletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, publication)
	}
	return result, rows.Err()
}
