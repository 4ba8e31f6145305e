package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"expense-ledger/internal/repository"
)

// Repository implements the persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ repository.UserRepository    = (*Repository)(nil)
	_ repository.ExpenseRepository = (*Repository)(nil)
)

// mapPgError translates PostgreSQL error codes into repository sentinels.
// 23505 unique_violation, 23503 foreign_key_violation, 22P02 is what a
// malformed uuid produces when it reaches the store.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "23503":
			return repository.ErrNotFound
		case "22P02", "23514":
			return repository.ErrInvalidArgument
		}
	}
	return err
}
