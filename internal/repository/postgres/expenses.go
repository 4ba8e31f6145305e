package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

const expenseColumns = `id, owner_id, title, amount, date, description, category, created_at`

// CreateExpense inserts a ledger record bound to its owner.
func (r *Repository) CreateExpense(ctx context.Context, expense *domain.Expense) error {
	const query = `INSERT INTO expenses (id, owner_id, title, amount, date, description, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		expense.ID,
		expense.OwnerID,
		expense.Title,
		expense.Amount,
		expense.Date,
		expense.Description,
		expense.Category,
		expense.CreatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// GetExpense fetches a record matched by (id, ownerID). A record owned by
// someone else is reported as ErrNotFound.
func (r *Repository) GetExpense(ctx context.Context, id, ownerID string) (*domain.Expense, error) {
	const query = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND owner_id = $2`
	return r.scanExpense(r.pool.QueryRow(ctx, query, id, ownerID))
}

// ListExpenses returns the owner's records in creation order. The explicit
// (created_at, id) ordering keeps pagination stable across requests.
func (r *Repository) ListExpenses(ctx context.Context, ownerID string, limit, offset int) ([]domain.Expense, error) {
	const query = `SELECT ` + expenseColumns + ` FROM expenses
		WHERE owner_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Amount, &e.Date, &e.Description, &e.Category, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpdateExpense applies only the non-nil fields of update to the record
// matched by (id, ownerID) and returns the post-update state.
func (r *Repository) UpdateExpense(ctx context.Context, id, ownerID string, update repository.ExpenseUpdate) (*domain.Expense, error) {
	const query = `UPDATE expenses SET
			title = COALESCE($3, title),
			amount = COALESCE($4, amount),
			date = COALESCE($5, date),
			description = COALESCE($6, description),
			category = COALESCE($7, category)
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + expenseColumns
	row := r.pool.QueryRow(ctx, query, id, ownerID,
		update.Title,
		update.Amount,
		update.Date,
		update.Description,
		update.Category,
	)
	return r.scanExpense(row)
}

// DeleteExpense removes the record matched by (id, ownerID) and reports
// whether exactly one row was removed.
func (r *Repository) DeleteExpense(ctx context.Context, id, ownerID string) (bool, error) {
	const query = `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// CategoryTotals aggregates the owner's spending per category inside
// [from, to). Uncategorized records group under the empty string.
func (r *Repository) CategoryTotals(ctx context.Context, ownerID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	const query = `SELECT category, SUM(amount), COUNT(*) FROM expenses
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		GROUP BY category ORDER BY SUM(amount) DESC`
	rows, err := r.pool.Query(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	totals := make([]domain.CategoryTotal, 0)
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (r *Repository) scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Amount, &e.Date, &e.Description, &e.Category, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &e, nil
}
