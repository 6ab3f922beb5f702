package person

import (
	"context"
	"errors"

	"github.com/tvtrungg/covid-management-system/internal/notification"
)

var ErrInvalidStatus = errors.New("person: invalid status")

type Service struct {
	repo     *Repository
	notifier *notification.Notifier
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) WithNotifier(n *notification.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Status != "" && !validStatuses[filter.Status] {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Person, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Profile(ctx context.Context, userID int64) (Person, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Person, error) {
	if !validStatuses[in.Status] {
		return Person{}, ErrInvalidStatus
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Person, error) {
	if !validStatuses[in.Status] {
		return Person{}, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Person{}, err
	}

	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Person{}, err
	}

	if s.notifier != nil && updated.UserID != nil && current.Status != updated.Status {
		_ = s.notifier.StatusChanged(ctx, *updated.UserID, current.Status, updated.Status)
	}

	return updated, nil
}
