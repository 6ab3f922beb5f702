package person

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListRejectsInvalidStatus(t *testing.T) {
	s := NewService(nil)

	_, _, err := s.List(context.Background(), ListFilter{Status: "F9"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	s := NewService(nil)

	_, err := s.Create(context.Background(), CreateInput{FullName: "A", IDNumber: "123456789", Status: "healthy"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.Update(context.Background(), 1, UpdateInput{FullName: "A", Status: ""})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
