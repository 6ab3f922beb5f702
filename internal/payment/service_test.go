package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.Deposit(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Deposit(context.Background(), 1, -500)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPayRejectsNonPositiveAmount(t *testing.T) {
	s := NewService(nil, nil)

	_, err := s.Pay(context.Background(), 1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
