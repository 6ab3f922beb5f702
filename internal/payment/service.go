package payment

import (
	"context"
	"errors"

	"github.com/tvtrungg/covid-management-system/internal/notification"
	"github.com/tvtrungg/covid-management-system/internal/person"
)

var (
	ErrNoProfile     = errors.New("payment: no covid profile for user")
	ErrInvalidAmount = errors.New("payment: amount must be positive")
)

type Service struct {
	repo     *Repository
	people   *person.Repository
	notifier *notification.Notifier
}

func NewService(repo *Repository, people *person.Repository) *Service {
	return &Service{repo: repo, people: people}
}

func (s *Service) WithNotifier(n *notification.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) account(ctx context.Context, userID int64) (Account, int64, error) {
	p, err := s.people.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) {
			return Account{}, 0, ErrNoProfile
		}
		return Account{}, 0, err
	}

	a, err := s.repo.GetAccountByPerson(ctx, p.ID)
	return a, p.ID, err
}

func (s *Service) Account(ctx context.Context, userID int64) (Account, error) {
	a, _, err := s.account(ctx, userID)
	return a, err
}

func (s *Service) Deposit(ctx context.Context, userID, amount int64) (Account, error) {
	if amount <= 0 {
		return Account{}, ErrInvalidAmount
	}

	a, _, err := s.account(ctx, userID)
	if err != nil {
		return Account{}, err
	}

	updated, err := s.repo.Deposit(ctx, a.AccountID, amount)
	if err != nil {
		return Account{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.PaymentReceived(ctx, userID, amount, updated.Balance)
	}

	return updated, nil
}

func (s *Service) Pay(ctx context.Context, userID, amount int64, description string) (Account, error) {
	if amount <= 0 {
		return Account{}, ErrInvalidAmount
	}
	if description == "" {
		description = "Thanh toán đơn hàng"
	}

	_, personID, err := s.account(ctx, userID)
	if err != nil {
		return Account{}, err
	}

	updated, err := s.repo.Pay(ctx, personID, amount, description)
	if err != nil {
		return Account{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.PaymentMade(ctx, userID, amount, updated.Balance)
	}

	return updated, nil
}

func (s *Service) Transactions(ctx context.Context, userID int64) ([]Transaction, error) {
	a, _, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, a.AccountID)
}
