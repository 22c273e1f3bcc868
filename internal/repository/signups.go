package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/habitloop/signup-api/internal/dto"
	"github.com/habitloop/signup-api/internal/entity"
)

// ErrEmailDuplicate is returned when the email is already registered.
var ErrEmailDuplicate = errors.New("email already exists")

// pgUniqueViolation is the standard Postgres code for unique constraint violations.
const pgUniqueViolation = "23505"

// CollaboratorError carries a structured error reported by the persistence
// collaborator. Its message is safe to surface to the user verbatim;
// transport-level failures are not wrapped in this type.
type CollaboratorError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return e.Message
}

// SignupsRepository declares persistence operations for captured signups.
type SignupsRepository interface {
	Create(ctx context.Context, email, source string, metadata map[string]any) (*entity.Signup, error)
	List(ctx context.Context, filter dto.SignupListFilter) ([]entity.Signup, error)
	CountBySource(ctx context.Context) ([]dto.SourceStats, error)
}

type pgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGXSignupsRepository implements SignupsRepository with pgx.
type PGXSignupsRepository struct {
	pool pgxPool
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// NewPGXSignupsRepository instantiates a signups repository.
func NewPGXSignupsRepository(pool *pgxpool.Pool) *PGXSignupsRepository {
	return &PGXSignupsRepository{pool: pool}
}

// Create inserts a signup row. The creation timestamp is set by the database.
func (r *PGXSignupsRepository) Create(ctx context.Context, email, source string, metadata map[string]any) (*entity.Signup, error) {
	meta := json.RawMessage("{}")
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode signup metadata: %w", err)
		}
		meta = encoded
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO signups (email, source, metadata)
        VALUES ($1, $2, $3::jsonb)
        RETURNING id, email, source, metadata, created_at
    `, email, source, meta)

	signup, err := scanSignup(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgUniqueViolation {
				return nil, fmt.Errorf("%w: %v", ErrEmailDuplicate, pgErr)
			}
			return nil, &CollaboratorError{Code: pgErr.Code, Message: pgErr.Message}
		}
		return nil, fmt.Errorf("insert signup: %w", err)
	}

	return signup, nil
}

// List retrieves signups matching the provided filter, newest first.
func (r *PGXSignupsRepository) List(ctx context.Context, filter dto.SignupListFilter) ([]entity.Signup, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, email, source, metadata, created_at FROM signups`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("source = $%d", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.Since != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *filter.Since)
		idx++
	}
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	query.WriteString(" ORDER BY created_at DESC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var signups []entity.Signup
	for rows.Next() {
		signup, err := scanSignup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signup row: %w", err)
		}
		signups = append(signups, *signup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signups: %w", err)
	}
	return signups, nil
}

// CountBySource aggregates signup counts per originating UI surface.
func (r *PGXSignupsRepository) CountBySource(ctx context.Context) ([]dto.SourceStats, error) {
	rows, err := r.pool.Query(ctx, `SELECT source, COUNT(*) FROM signups GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("count signups by source: %w", err)
	}
	defer rows.Close()

	var stats []dto.SourceStats
	for rows.Next() {
		var s dto.SourceStats
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			return nil, fmt.Errorf("scan source stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source stats: %w", err)
	}
	return stats, nil
}

func scanSignup(row pgx.Row) (*entity.Signup, error) {
	var (
		signup entity.Signup
		meta   []byte
	)
	if err := row.Scan(&signup.ID, &signup.Email, &signup.Source, &meta, &signup.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &signup.Metadata); err != nil {
			return nil, fmt.Errorf("decode signup metadata: %w", err)
		}
	}
	return &signup, nil
}
