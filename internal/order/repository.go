package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("order: not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create writes the order and its items in one transaction and returns the
// new order id.
func (r *Repository) Create(ctx context.Context, personID, packageID int64, total int64, items []Item) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("order: begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (person_id, package_id, total_amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id`,
		personID, packageID, total).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("order: insert: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)`,
			id, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return 0, fmt.Errorf("order: insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("order: commit: %w", err)
	}
	return id, nil
}

func (r *Repository) ListByPerson(ctx context.Context, personID int64) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.person_id, o.package_id, p.name, o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN packages p ON p.id = o.package_id
		WHERE o.person_id = $1
		ORDER BY o.created_at DESC`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.PersonID, &o.PackageID, &o.PackageName,
			&o.TotalAmount, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("order: scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.person_id, o.package_id, p.name, o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN packages p ON p.id = o.package_id
		WHERE o.id = $1`,
		id).Scan(&o.ID, &o.PersonID, &o.PackageID, &o.PackageName,
		&o.TotalAmount, &o.Status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: get: %w", err)
	}

	o.Items, err = r.items(ctx, id)
	return o, err
}

func (r *Repository) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.product_id, pr.name, oi.quantity, oi.unit_price, oi.total_price
		FROM order_items oi
		JOIN products pr ON pr.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY pr.name`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("order: list items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, fmt.Errorf("order: scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
