package location

import (
	"context"
	"database/sql"
	"errors"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

var (
	ErrLocationNotFound = errors.New("location: treatment location not found")
	ErrLocationInUse    = errors.New("location: treatment location has assigned people")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Provinces(ctx context.Context) ([]Province, error) {
	return s.repo.ListProvinces(ctx)
}

func (s *Service) Districts(ctx context.Context, provinceID int64) ([]District, error) {
	return s.repo.ListDistricts(ctx, provinceID)
}

func (s *Service) Wards(ctx context.Context, districtID int64) ([]Ward, error) {
	return s.repo.ListWards(ctx, districtID)
}

func (s *Service) TreatmentLocations(ctx context.Context) ([]TreatmentLocation, error) {
	return s.repo.ListTreatmentLocations(ctx)
}

func (s *Service) CreateTreatmentLocation(ctx context.Context, name string, capacity int) (TreatmentLocation, error) {
	return s.repo.CreateTreatmentLocation(ctx, name, capacity)
}

func (s *Service) UpdateTreatmentLocation(ctx context.Context, id int64, name string, capacity int) (TreatmentLocation, error) {
	loc, err := s.repo.UpdateTreatmentLocation(ctx, id, name, capacity)
	if err != nil {
		if isNoRows(err) {
			return TreatmentLocation{}, ErrLocationNotFound
		}
		return TreatmentLocation{}, err
	}
	return loc, nil
}

// DeleteTreatmentLocation refuses to remove a location that still has
// people assigned to it.
func (s *Service) DeleteTreatmentLocation(ctx context.Context, id int64) error {
	count, err := s.repo.OccupantCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrLocationInUse
	}

	if err := s.repo.DeleteTreatmentLocation(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrLocationNotFound
		}
		return err
	}
	return nil
}
