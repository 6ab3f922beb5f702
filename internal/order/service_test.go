package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceRejectsEmptyOrder(t *testing.T) {
	s := NewService(nil, nil, nil)

	_, err := s.Place(context.Background(), 1, 1, nil)
	assert.ErrorIs(t, err, ErrNoItems)
}
