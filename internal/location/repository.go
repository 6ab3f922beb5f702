package location

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListProvinces(ctx context.Context) ([]Province, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM provinces ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("location: list provinces: %w", err)
	}
	defer rows.Close()

	provinces := []Province{}
	for rows.Next() {
		var p Province
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("location: scan province: %w", err)
		}
		provinces = append(provinces, p)
	}
	return provinces, rows.Err()
}

func (r *Repository) ListDistricts(ctx context.Context, provinceID int64) ([]District, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, province_id, name FROM districts WHERE province_id = $1 ORDER BY name`,
		provinceID)
	if err != nil {
		return nil, fmt.Errorf("location: list districts: %w", err)
	}
	defer rows.Close()

	districts := []District{}
	for rows.Next() {
		var d District
		if err := rows.Scan(&d.ID, &d.ProvinceID, &d.Name); err != nil {
			return nil, fmt.Errorf("location: scan district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, rows.Err()
}

func (r *Repository) ListWards(ctx context.Context, districtID int64) ([]Ward, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, district_id, name FROM wards WHERE district_id = $1 ORDER BY name`,
		districtID)
	if err != nil {
		return nil, fmt.Errorf("location: list wards: %w", err)
	}
	defer rows.Close()

	wards := []Ward{}
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.DistrictID, &w.Name); err != nil {
			return nil, fmt.Errorf("location: scan ward: %w", err)
		}
		wards = append(wards, w)
	}
	return wards, rows.Err()
}

const treatmentLocationColumns = `id, name, capacity, current_count, created_at, updated_at`

func scanTreatmentLocation(row interface{ Scan(...any) error }) (TreatmentLocation, error) {
	var l TreatmentLocation
	err := row.Scan(&l.ID, &l.Name, &l.Capacity, &l.CurrentCount, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *Repository) ListTreatmentLocations(ctx context.Context) ([]TreatmentLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+treatmentLocationColumns+` FROM treatment_locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("location: list treatment locations: %w", err)
	}
	defer rows.Close()

	locations := []TreatmentLocation{}
	for rows.Next() {
		l, err := scanTreatmentLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("location: scan treatment location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *Repository) GetTreatmentLocation(ctx context.Context, id int64) (TreatmentLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+treatmentLocationColumns+` FROM treatment_locations WHERE id = $1`, id)
	return scanTreatmentLocation(row)
}

func (r *Repository) CreateTreatmentLocation(ctx context.Context, name string, capacity int) (TreatmentLocation, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO treatment_locations (name, capacity)
		VALUES ($1, $2)
		RETURNING `+treatmentLocationColumns,
		name, capacity)
	return scanTreatmentLocation(row)
}

func (r *Repository) UpdateTreatmentLocation(ctx context.Context, id int64, name string, capacity int) (TreatmentLocation, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE treatment_locations
		SET name = $2, capacity = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+treatmentLocationColumns,
		id, name, capacity)
	return scanTreatmentLocation(row)
}

// OccupantCount reports how many people are currently assigned to the
// location. Used as the delete guard.
func (r *Repository) OccupantCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM covid_people WHERE treatment_location_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("location: occupant count: %w", err)
	}
	return count, nil
}

func (r *Repository) DeleteTreatmentLocation(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM treatment_locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("location: delete treatment location: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
