package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/estate/internal/database"
	"github.com/stwalsh4118/estate/internal/models"
)

// PostgreSQL error codes mapped to domain constraint errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// querier is the subset of pgxpool.Pool and pgx.Tx used by the repositories.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// postgresStore is the PostgreSQL implementation of Store.
type postgresStore struct {
	db *database.Database
	q  querier
	tx bool
}

// NewPostgresStore creates a Store backed by the given connection pool.
func NewPostgresStore(db *database.Database) Store {
	return &postgresStore{db: db, q: db.Pool}
}

func (s *postgresStore) Properties() PropertyRepository { return &propertyRepository{q: s.q} }
func (s *postgresStore) Offers() OfferRepository        { return &offerRepository{q: s.q} }
func (s *postgresStore) Types() PropertyTypeRepository  { return &typeRepository{q: s.q} }
func (s *postgresStore) Tags() PropertyTagRepository    { return &tagRepository{q: s.q} }

// InTx runs fn inside a database transaction.
func (s *postgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		return fn(&postgresStore{db: s.db, q: tx, tx: true})
	})
}

// translateError converts constraint violations raised by PostgreSQL into
// domain errors. Other errors are wrapped with the operation description.
func translateError(err error, entity, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return models.DuplicateNameError(entity)
		case pgForeignKeyViolation:
			return &models.ConstraintError{
				Field:   pgErr.ColumnName,
				Message: fmt.Sprintf("The %s references a record that does not exist.", entity),
			}
		case pgCheckViolation:
			return &models.ConstraintError{
				Field:   pgErr.ConstraintName,
				Message: fmt.Sprintf("The %s violates constraint %s.", entity, pgErr.ConstraintName),
			}
		}
	}
	return fmt.Errorf("failed to %s %s: %w", op, entity, err)
}
