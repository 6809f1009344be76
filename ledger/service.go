package ledger

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/billbatista/household-hub/apperr"
	"github.com/billbatista/household-hub/eventlogger"
	"github.com/billbatista/household-hub/member"
	"github.com/billbatista/household-hub/metrics"
	"github.com/billbatista/household-hub/store"
	"github.com/google/uuid"
)

// Directory resolves members by id. GetByID returns nil, nil for an unknown
// id.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error)
}

type Service struct {
	store    *store.Store
	members  Directory
	recorder eventlogger.Recorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(r eventlogger.Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces time.Now, which decides the default expense date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(st *store.Store, members Directory, opts ...Option) *Service {
	s := &Service{
		store:    st,
		members:  members,
		recorder: eventlogger.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpense validates n, checks that the payer and every split member
// exist, and stores the expense with its splits in one transaction.
func (s *Service) AddExpense(ctx context.Context, n NewExpense) (*Expense, error) {
	v, err := n.validate(s.now())
	if err != nil {
		return nil, err
	}

	payer, err := s.lookup(ctx, v.paidBy)
	if err != nil {
		return nil, err
	}

	expenseID, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Storage("generate expense id", err)
	}
	expense := &Expense{
		ID:          expenseID,
		Description: v.description,
		Amount:      v.amount,
		PaidBy:      payer.ID,
		PaidByName:  payer.Name,
		PaidByColor: payer.Color,
		Date:        v.date,
		Category:    v.category,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
		Splits:      make([]ExpenseSplit, 0, len(v.splits)),
	}

	for _, vs := range v.splits {
		owing, err := s.lookup(ctx, vs.memberID)
		if err != nil {
			return nil, err
		}
		splitID, err := uuid.NewV7()
		if err != nil {
			return nil, apperr.Storage("generate split id", err)
		}
		expense.Splits = append(expense.Splits, ExpenseSplit{
			ID:          splitID,
			ExpenseID:   expense.ID,
			MemberID:    owing.ID,
			MemberName:  owing.Name,
			MemberColor: owing.Color,
			Amount:      vs.amount,
		})
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return saveExpense(ctx, tx, expense)
	})
	if err != nil {
		// The member was deleted between the lookup and the insert.
		if store.IsForeignKeyViolation(err) {
			return nil, apperr.NotFound("member", "")
		}
		slog.Error("failed to save expense", "error", err, "expense_id", expense.ID, "paid_by", expense.PaidBy)
		return nil, apperr.Storage("save expense", err)
	}

	s.recorder.Log(expenseAddedEvent(expense))
	s.metrics.ExpenseAdded(int64(expense.Amount))

	return expense, nil
}

func (s *Service) lookup(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	m, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("lookup member", err)
	}
	if m == nil {
		return nil, apperr.NotFound("member", id.String())
	}
	return m, nil
}

// DeleteExpense removes an expense and its splits. Unknown ids succeed
// without changing anything.
func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = deleteExpense(ctx, tx, id)
		return err
	})
	if err != nil {
		slog.Error("failed to delete expense", "error", err, "expense_id", id)
		return apperr.Storage("delete expense", err)
	}

	if deleted {
		s.recorder.Log(expenseDeletedEvent(id.String()))
		s.metrics.ExpenseDeleted()
	}
	return nil
}

// ListExpenses returns every expense, newest date first, with its splits in
// the order they were entered.
func (s *Service) ListExpenses(ctx context.Context) ([]Expense, error) {
	var expenses []Expense
	err := s.store.WithReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		expenses, err = getExpenses(ctx, tx)
		if err != nil {
			return err
		}

		splits, err := getExpenseSplits(ctx, tx)
		if err != nil {
			return err
		}
		for i := range expenses {
			if ss, ok := splits[expenses[i].ID]; ok {
				expenses[i].Splits = ss
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to list expenses", "error", err)
		return nil, apperr.Storage("list expenses", err)
	}

	return expenses, nil
}

// ComputeBalances reports paid, owed and balance for every member, read from
// a single snapshot.
func (s *Service) ComputeBalances(ctx context.Context) ([]Balance, error) {
	var balances []Balance
	err := s.store.WithReadTx(ctx, func(tx *sql.Tx) error {
		members, err := getMembers(ctx, tx)
		if err != nil {
			return err
		}
		paid, err := getTotals(ctx, tx, paidTotalsQuery)
		if err != nil {
			return err
		}
		owed, err := getTotals(ctx, tx, owedTotalsQuery)
		if err != nil {
			return err
		}

		balances = CalculateBalances(members, paid, owed)
		return nil
	})
	if err != nil {
		slog.Error("failed to compute balances", "error", err)
		return nil, apperr.Storage("compute balances", err)
	}

	return balances, nil
}

func (s *Service) SuggestSettlements(ctx context.Context) ([]Settlement, error) {
	balances, err := s.ComputeBalances(ctx)
	if err != nil {
		return nil, err
	}
	return SuggestSettlements(balances), nil
}
