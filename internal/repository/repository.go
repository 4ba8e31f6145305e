package repository

import (
	"context"
	"time"

	"expense-ledger/internal/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ExpenseUpdate carries a partial update: nil fields are left untouched.
type ExpenseUpdate struct {
	Title       *string
	Amount      *float64
	Date        *time.Time
	Description *string
	Category    *string
}

// Empty reports whether the update would change nothing.
func (u ExpenseUpdate) Empty() bool {
	return u.Title == nil && u.Amount == nil && u.Date == nil &&
		u.Description == nil && u.Category == nil
}

// ExpenseRepository persists ledger records. Every method that addresses a
// single record filters on (id, ownerID) together; there is no unscoped
// access path.
type ExpenseRepository interface {
	CreateExpense(ctx context.Context, expense *domain.Expense) error
	GetExpense(ctx context.Context, id, ownerID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, ownerID string, limit, offset int) ([]domain.Expense, error)
	UpdateExpense(ctx context.Context, id, ownerID string, update ExpenseUpdate) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id, ownerID string) (bool, error)
	CategoryTotals(ctx context.Context, ownerID string, from, to time.Time) ([]domain.CategoryTotal, error)
}
