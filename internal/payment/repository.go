package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAccountNotFound = errors.New("payment: account not found")
	ErrInsufficient    = errors.New("payment: insufficient balance")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const accountColumns = `account_id, person_id, balance, is_main_account, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	err := row.Scan(&a.AccountID, &a.PersonID, &a.Balance, &a.IsMainAccount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (r *Repository) GetAccountByPerson(ctx context.Context, personID int64) (Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE person_id = $1`, personID))
}

// Deposit credits the account and records the transaction in one
// transaction. External money carries EXTERNAL as its source.
func (r *Repository) Deposit(ctx context.Context, accountID string, amount int64) (Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, fmt.Errorf("payment: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payment_accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_id = $1`,
		accountID, amount)
	if err != nil {
		return Account{}, fmt.Errorf("payment: credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Account{}, err
	}
	if affected == 0 {
		return Account{}, ErrAccountNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (from_account_id, to_account_id, amount, transaction_type, description)
		VALUES ('EXTERNAL', $1, $2, 'deposit', 'Nạp tiền vào tài khoản')`,
		accountID, amount)
	if err != nil {
		return Account{}, fmt.Errorf("payment: record deposit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Account{}, fmt.Errorf("payment: commit: %w", err)
	}

	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE account_id = $1`, accountID))
}

// Pay moves amount from the person's account to the main account, records
// the payment and flips the person's pending orders to paid, all in one
// transaction. Insufficient balance leaves every row untouched.
func (r *Repository) Pay(ctx context.Context, personID int64, amount int64, description string) (Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Account{}, fmt.Errorf("payment: begin tx: %w", err)
	}
	defer tx.Rollback()

	var accountID string
	var balance int64
	err = tx.QueryRowContext(ctx, `
		SELECT account_id, balance FROM payment_accounts
		WHERE person_id = $1 FOR UPDATE`,
		personID).Scan(&accountID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("payment: lock account: %w", err)
	}

	if balance < amount {
		return Account{}, ErrInsufficient
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE account_id = $1`,
		accountID, amount)
	if err != nil {
		return Account{}, fmt.Errorf("payment: debit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE payment_accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_id = $1`,
		MainAccountID, amount)
	if err != nil {
		return Account{}, fmt.Errorf("payment: credit main: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (from_account_id, to_account_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, 'payment', $4)`,
		accountID, MainAccountID, amount, description)
	if err != nil {
		return Account{}, fmt.Errorf("payment: record payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = 'paid'
		WHERE person_id = $1 AND status = 'pending'`,
		personID)
	if err != nil {
		return Account{}, fmt.Errorf("payment: mark orders paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Account{}, fmt.Errorf("payment: commit: %w", err)
	}

	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE account_id = $1`, accountID))
}

func (r *Repository) ListTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_account_id, to_account_id, amount, transaction_type, description, status, created_at
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("payment: list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount,
			&t.Type, &t.Description, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("payment: scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Totals sums ledger volume per type since a point in time. Used by
// analytics.
func (r *Repository) Totals(ctx context.Context, since, until time.Time) (deposits, payments int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'deposit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'payment'), 0)
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2`,
		since, until).Scan(&deposits, &payments)
	if err != nil {
		return 0, 0, fmt.Errorf("payment: totals: %w", err)
	}
	return deposits, payments, nil
}
