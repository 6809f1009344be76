package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/billbatista/household-hub/money"
	"github.com/billbatista/household-hub/store"
	"github.com/google/uuid"
)

// The functions below take a store.Querier so the service decides the
// transaction boundary.

func saveExpense(ctx context.Context, q store.Querier, expense *Expense) error {
	query := `INSERT INTO expenses (id, description, amount, paid_by, date, category, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.Description,
		int64(expense.Amount),
		expense.PaidBy,
		expense.Date,
		expense.Category,
		expense.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}

	query = `INSERT INTO expense_splits (id, expense_id, member_id, amount, position) VALUES ($1, $2, $3, $4, $5)`
	for i, split := range expense.Splits {
		_, err = q.ExecContext(ctx, query, split.ID, split.ExpenseID, split.MemberID, int64(split.Amount), i)
		if err != nil {
			return fmt.Errorf("inserting split for member %s: %w", split.MemberID, err)
		}
	}

	return nil
}

// deleteExpense removes the splits and then the expense, reporting whether
// the expense existed.
func deleteExpense(ctx context.Context, q store.Querier, id uuid.UUID) (bool, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, id); err != nil {
		return false, fmt.Errorf("deleting splits: %w", err)
	}

	res, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func getExpenses(ctx context.Context, q store.Querier) ([]Expense, error) {
	query := `SELECT e.id, e.description, e.amount, e.paid_by, m.name, m.color, CAST(e.date AS TEXT), e.category, e.created_at
              FROM expenses e
              INNER JOIN members m ON m.id = e.paid_by
              ORDER BY e.date DESC, e.created_at DESC, e.id DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		var (
			expense   Expense
			amount    int64
			createdAt int64
		)
		err := rows.Scan(
			&expense.ID,
			&expense.Description,
			&amount,
			&expense.PaidBy,
			&expense.PaidByName,
			&expense.PaidByColor,
			&expense.Date,
			&expense.Category,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		expense.Amount = money.Cents(amount)
		expense.CreatedAt = time.UnixMicro(createdAt).UTC()
		expense.Splits = make([]ExpenseSplit, 0)
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// getExpenseSplits returns every split keyed by expense, each slice in
// insertion order.
func getExpenseSplits(ctx context.Context, q store.Querier) (map[uuid.UUID][]ExpenseSplit, error) {
	query := `SELECT es.id, es.expense_id, es.member_id, m.name, m.color, es.amount
              FROM expense_splits es
              INNER JOIN members m ON m.id = es.member_id
              ORDER BY es.expense_id, es.position`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying splits: %w", err)
	}
	defer rows.Close()

	splits := make(map[uuid.UUID][]ExpenseSplit)
	for rows.Next() {
		var (
			split  ExpenseSplit
			amount int64
		)
		err := rows.Scan(&split.ID, &split.ExpenseID, &split.MemberID, &split.MemberName, &split.MemberColor, &amount)
		if err != nil {
			return nil, fmt.Errorf("scanning split: %w", err)
		}
		split.Amount = money.Cents(amount)
		splits[split.ExpenseID] = append(splits[split.ExpenseID], split)
	}

	return splits, rows.Err()
}

func getMembers(ctx context.Context, q store.Querier) ([]MemberInfo, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, color FROM members`)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []MemberInfo
	for rows.Next() {
		var m MemberInfo
		if err := rows.Scan(&m.ID, &m.Name, &m.Color); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// getTotals runs a per-member SUM query, e.g. amount paid grouped by payer.
func getTotals(ctx context.Context, q store.Querier, query string) (map[uuid.UUID]money.Cents, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]money.Cents)
	for rows.Next() {
		var (
			memberID uuid.UUID
			total    int64
		)
		if err := rows.Scan(&memberID, &total); err != nil {
			return nil, fmt.Errorf("scanning total: %w", err)
		}
		totals[memberID] = money.Cents(total)
	}

	return totals, rows.Err()
}

const (
	paidTotalsQuery = `SELECT paid_by, COALESCE(SUM(amount), 0) FROM expenses GROUP BY paid_by`
	owedTotalsQuery = `SELECT member_id, COALESCE(SUM(amount), 0) FROM expense_splits GROUP BY member_id`
)
