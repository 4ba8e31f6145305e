package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/repository"
)

const defaultListLimit = 100

var (
	errTitleRequired  = fmt.Errorf("%w: title is required", domain.ErrValidation)
	errAmountRequired = fmt.Errorf("%w: amount is required", domain.ErrValidation)
	errNegativeOffset = fmt.Errorf("%w: offset must not be negative", domain.ErrValidation)
	errNegativeLimit  = fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	errMissingOwner   = errors.New("owner identity required")
)

// CreateInput carries the fields for a new expense. Amount uses a pointer so
// an absent amount is distinguishable from an explicit zero.
type CreateInput struct {
	Title       string     `json:"title"`
	Amount      *float64   `json:"amount"`
	Date        *time.Time `json:"date"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title       *string    `json:"title"`
	Amount      *float64   `json:"amount"`
	Date        *time.Time `json:"date"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
}

// Summary reports one month of owner-scoped spending grouped by category.
type Summary struct {
	Year       int                    `json:"year"`
	Month      int                    `json:"month"`
	Total      float64                `json:"total"`
	Count      int                    `json:"count"`
	Categories []domain.CategoryTotal `json:"categories"`
}

// Service performs create/read/list/update/delete on expense records, always
// constrained to the owner identity resolved by the auth layer. It never
// accepts an owner id taken from untrusted input.
type Service struct {
	expenses repository.ExpenseRepository
	logger   *slog.Logger
}

// New constructs a Service.
func New(expenses repository.ExpenseRepository, logger *slog.Logger) Service {
	return Service{expenses: expenses, logger: logger}
}

// Create persists a new record bound to ownerID. Date defaults to the
// current time when unset.
func (s Service) Create(ctx context.Context, ownerID string, input CreateInput) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, errMissingOwner
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errTitleRequired
	}
	if input.Amount == nil {
		return nil, errAmountRequired
	}
	now := time.Now().UTC()
	date := now
	if input.Date != nil && !input.Date.IsZero() {
		date = input.Date.UTC()
	}
	expense := &domain.Expense{
		ID:          domain.NewID(),
		OwnerID:     ownerID,
		Title:       title,
		Amount:      *input.Amount,
		Date:        date,
		Description: input.Description,
		Category:    input.Category,
		CreatedAt:   now,
	}
	if err := s.expenses.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	s.logger.Info("expense created", "expense_id", expense.ID, "owner_id", ownerID)
	return expense, nil
}

// Get returns the record only when both id and owner match. Records owned by
// someone else come back as repository.ErrNotFound, indistinguishable from
// records that do not exist.
func (s Service) Get(ctx context.Context, ownerID, id string) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, errMissingOwner
	}
	parsed, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.expenses.GetExpense(ctx, parsed, ownerID)
}

// List returns the owner's records in creation order. Offset and limit
// default to 0 and 100; negative values are caller errors.
func (s Service) List(ctx context.Context, ownerID string, offset, limit int) ([]domain.Expense, error) {
	if ownerID == "" {
		return nil, errMissingOwner
	}
	if offset < 0 {
		return nil, errNegativeOffset
	}
	if limit < 0 {
		return nil, errNegativeLimit
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	return s.expenses.ListExpenses(ctx, ownerID, limit, offset)
}

// Update applies only the supplied fields and returns the post-update
// record. An empty update is a no-op that still returns the current record
// when it exists. The same ownership-hiding rule as Get applies.
func (s Service) Update(ctx context.Context, ownerID, id string, input UpdateInput) (*domain.Expense, error) {
	if ownerID == "" {
		return nil, errMissingOwner
	}
	parsed, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, errTitleRequired
	}
	update := repository.ExpenseUpdate{
		Title:       input.Title,
		Amount:      input.Amount,
		Date:        input.Date,
		Description: input.Description,
		Category:    input.Category,
	}
	if update.Empty() {
		return s.expenses.GetExpense(ctx, parsed, ownerID)
	}
	expense, err := s.expenses.UpdateExpense(ctx, parsed, ownerID, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense updated", "expense_id", expense.ID, "owner_id", ownerID)
	return expense, nil
}

// Delete removes the record matched by (id, owner). A record that is absent
// or owned by someone else yields repository.ErrNotFound either way.
func (s Service) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return errMissingOwner
	}
	parsed, err := domain.ParseID(id)
	if err != nil {
		return err
	}
	deleted, err := s.expenses.DeleteExpense(ctx, parsed, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}
	s.logger.Info("expense deleted", "expense_id", parsed, "owner_id", ownerID)
	return nil
}

// MonthlySummary aggregates the owner's spending for one calendar month.
// Zero year/month default to the current month.
func (s Service) MonthlySummary(ctx context.Context, ownerID string, year int, month time.Month) (*Summary, error) {
	if ownerID == "" {
		return nil, errMissingOwner
	}
	now := time.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	totals, err := s.expenses.CategoryTotals(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Year: year, Month: int(month), Categories: totals}
	for _, ct := range totals {
		summary.Total += ct.Total
		summary.Count += ct.Count
	}
	return summary, nil
}
