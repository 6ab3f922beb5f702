package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateIDNumber = errors.New("person: id number already registered")
	ErrLocationFull      = errors.New("person: treatment location at capacity")
	ErrNotFound          = errors.New("person: not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const personSelect = `
	SELECT p.id, p.user_id, p.full_name, p.id_number, p.birth_year, p.status,
	       p.province_id, pr.name, p.district_id, d.name, p.ward_id, w.name,
	       p.treatment_location_id, tl.name, p.related_person_id, rp.full_name,
	       p.created_at, p.updated_at
	FROM covid_people p
	LEFT JOIN provinces pr ON pr.id = p.province_id
	LEFT JOIN districts d ON d.id = p.district_id
	LEFT JOIN wards w ON w.id = p.ward_id
	LEFT JOIN treatment_locations tl ON tl.id = p.treatment_location_id
	LEFT JOIN covid_people rp ON rp.id = p.related_person_id`

func scanPerson(row interface{ Scan(...any) error }) (Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.IDNumber, &p.BirthYear, &p.Status,
		&p.ProvinceID, &p.ProvinceName, &p.DistrictID, &p.DistrictName, &p.WardID, &p.WardName,
		&p.TreatmentLocationID, &p.TreatmentLocation, &p.RelatedPersonID, &p.RelatedPersonName,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(` AND p.status = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (p.full_name ILIKE $%d OR p.id_number ILIKE $%d)`, len(args), len(args))
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM covid_people p`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("person: count: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	rows, err := r.db.QueryContext(ctx,
		personSelect+where+fmt.Sprintf(` ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("person: list: %w", err)
	}
	defer rows.Close()

	people := []Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("person: scan: %w", err)
		}
		people = append(people, p)
	}
	return people, total, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx, personSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64) (Person, error) {
	p, err := scanPerson(r.db.QueryRowContext(ctx, personSelect+` WHERE p.user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	return p, err
}

// Create inserts the person, reserves a treatment-location slot when one is
// assigned, and opens their zero-balance payment account, all in one
// transaction.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Person, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("person: begin tx: %w", err)
	}
	defer tx.Rollback()

	if in.TreatmentLocationID != nil {
		if err := reserveSlot(ctx, tx, *in.TreatmentLocationID); err != nil {
			return Person{}, err
		}
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO covid_people
			(user_id, full_name, id_number, birth_year, status,
			 province_id, district_id, ward_id, treatment_location_id, related_person_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		in.UserID, in.FullName, in.IDNumber, in.BirthYear, in.Status,
		in.ProvinceID, in.DistrictID, in.WardID, in.TreatmentLocationID, in.RelatedPersonID).
		Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return Person{}, ErrDuplicateIDNumber
		}
		return Person{}, fmt.Errorf("person: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_accounts (account_id, person_id, balance)
		VALUES ($1, $2, 0)`,
		paymentAccountID(id), id)
	if err != nil {
		return Person{}, fmt.Errorf("person: create payment account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("person: commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Update rewrites the person's record; when the treatment location changes
// both occupancy counters move inside the same transaction.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (Person, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("person: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT treatment_location_id FROM covid_people WHERE id = $1 FOR UPDATE`, id).
		Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("person: lock row: %w", err)
	}

	oldID := int64(0)
	if current.Valid {
		oldID = current.Int64
	}
	newID := int64(0)
	if in.TreatmentLocationID != nil {
		newID = *in.TreatmentLocationID
	}

	if oldID != newID {
		// Lock in ascending id order to avoid deadlocks between movers.
		if oldID != 0 && newID != 0 && newID < oldID {
			if err := reserveSlot(ctx, tx, newID); err != nil {
				return Person{}, err
			}
			if err := releaseSlot(ctx, tx, oldID); err != nil {
				return Person{}, err
			}
		} else {
			if oldID != 0 {
				if err := releaseSlot(ctx, tx, oldID); err != nil {
					return Person{}, err
				}
			}
			if newID != 0 {
				if err := reserveSlot(ctx, tx, newID); err != nil {
					return Person{}, err
				}
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE covid_people
		SET full_name = $2, birth_year = $3, status = $4,
		    province_id = $5, district_id = $6, ward_id = $7,
		    treatment_location_id = $8, related_person_id = $9,
		    updated_at = NOW()
		WHERE id = $1`,
		id, in.FullName, in.BirthYear, in.Status,
		in.ProvinceID, in.DistrictID, in.WardID,
		in.TreatmentLocationID, in.RelatedPersonID)
	if err != nil {
		return Person{}, fmt.Errorf("person: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("person: commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

func reserveSlot(ctx context.Context, tx *sql.Tx, locationID int64) error {
	var capacity, count int
	err := tx.QueryRowContext(ctx,
		`SELECT capacity, current_count FROM treatment_locations WHERE id = $1 FOR UPDATE`,
		locationID).Scan(&capacity, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("person: lock location: %w", err)
	}
	if count >= capacity {
		return ErrLocationFull
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE treatment_locations
		SET current_count = current_count + 1, updated_at = NOW()
		WHERE id = $1`, locationID)
	if err != nil {
		return fmt.Errorf("person: reserve slot: %w", err)
	}
	return nil
}

func releaseSlot(ctx context.Context, tx *sql.Tx, locationID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE treatment_locations
		SET current_count = GREATEST(current_count - 1, 0), updated_at = NOW()
		WHERE id = $1`, locationID)
	if err != nil {
		return fmt.Errorf("person: release slot: %w", err)
	}
	return nil
}

func paymentAccountID(personID int64) string {
	return fmt.Sprintf("USER_%03d", personID)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
