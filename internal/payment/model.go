// Package payment keeps the internal ledger: one account per tracked person
// plus the single main account that collects all payments.
package payment

import "time"

// MainAccountID is the seeded collection account.
const MainAccountID = "MAIN"

const (
	TypeDeposit = "deposit"
	TypePayment = "payment"
)

type Account struct {
	AccountID     string    `json:"account_id"`
	PersonID      *int64    `json:"person_id,omitempty"`
	Balance       int64     `json:"balance"`
	IsMainAccount bool      `json:"is_main_account"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Transaction struct {
	ID            int64     `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"transaction_type"`
	Description   *string   `json:"description,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
