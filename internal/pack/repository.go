package pack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("pack: package not found")
	ErrOrdered  = errors.New("pack: package has orders")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const packageColumns = `id, name, limit_per_person, time_limit_type, time_limit_value, created_at, updated_at`

func scanPackage(row interface{ Scan(...any) error }) (Package, error) {
	var p Package
	err := row.Scan(&p.ID, &p.Name, &p.LimitPerPerson, &p.TimeLimitType, &p.TimeLimitValue,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) List(ctx context.Context) ([]Package, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+packageColumns+` FROM packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pack: list: %w", err)
	}
	defer rows.Close()

	packages := []Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("pack: scan: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range packages {
		lines, err := r.lines(ctx, packages[i].ID)
		if err != nil {
			return nil, err
		}
		packages[i].Products = lines
	}
	return packages, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Package, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx,
		`SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Package{}, ErrNotFound
	}
	if err != nil {
		return Package{}, err
	}

	p.Products, err = r.lines(ctx, id)
	return p, err
}

func (r *Repository) lines(ctx context.Context, packageID int64) ([]PackageLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pp.product_id, pr.name, pr.price, pr.unit, pp.max_quantity
		FROM package_products pp
		JOIN products pr ON pr.id = pp.product_id
		WHERE pp.package_id = $1
		ORDER BY pr.name`,
		packageID)
	if err != nil {
		return nil, fmt.Errorf("pack: list lines: %w", err)
	}
	defer rows.Close()

	lines := []PackageLine{}
	for rows.Next() {
		var l PackageLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Price, &l.Unit, &l.MaxQuantity); err != nil {
			return nil, fmt.Errorf("pack: scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Create inserts the package and its product lines in one transaction.
func (r *Repository) Create(ctx context.Context, in Input) (Package, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Package{}, fmt.Errorf("pack: begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO packages (name, limit_per_person, time_limit_type, time_limit_value)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		in.Name, in.LimitPerPerson, in.TimeLimitType, in.TimeLimitValue).Scan(&id)
	if err != nil {
		return Package{}, fmt.Errorf("pack: insert: %w", err)
	}

	if err := insertLines(ctx, tx, id, in.Products); err != nil {
		return Package{}, err
	}
	if err := tx.Commit(); err != nil {
		return Package{}, fmt.Errorf("pack: commit: %w", err)
	}
	return r.Get(ctx, id)
}

// Update rewrites the package row and replaces its lines in one transaction.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (Package, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Package{}, fmt.Errorf("pack: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE packages
		SET name = $2, limit_per_person = $3, time_limit_type = $4, time_limit_value = $5,
		    updated_at = NOW()
		WHERE id = $1`,
		id, in.Name, in.LimitPerPerson, in.TimeLimitType, in.TimeLimitValue)
	if err != nil {
		return Package{}, fmt.Errorf("pack: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Package{}, err
	}
	if affected == 0 {
		return Package{}, ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM package_products WHERE package_id = $1`, id)
	if err != nil {
		return Package{}, fmt.Errorf("pack: clear lines: %w", err)
	}
	if err := insertLines(ctx, tx, id, in.Products); err != nil {
		return Package{}, err
	}
	if err := tx.Commit(); err != nil {
		return Package{}, fmt.Errorf("pack: commit: %w", err)
	}
	return r.Get(ctx, id)
}

func insertLines(ctx context.Context, tx *sql.Tx, packageID int64, lines []LineInput) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO package_products (package_id, product_id, max_quantity)
			VALUES ($1, $2, $3)`,
			packageID, l.ProductID, l.MaxQuantity)
		if err != nil {
			return fmt.Errorf("pack: insert line: %w", err)
		}
	}
	return nil
}

// Delete refuses once any order references the package.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var orders int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE package_id = $1`, id).Scan(&orders)
	if err != nil {
		return fmt.Errorf("pack: count orders: %w", err)
	}
	if orders > 0 {
		return ErrOrdered
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pack: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOrdersSince counts a person's non-cancelled orders for the package
// since the window start. Used by order placement.
func (r *Repository) CountOrdersSince(ctx context.Context, packageID, personID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE package_id = $1 AND person_id = $2 AND status <> 'cancelled' AND created_at >= $3`,
		packageID, personID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pack: count orders since: %w", err)
	}
	return count, nil
}
