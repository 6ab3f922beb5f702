// Package product manages the necessity catalog sold through packages.
package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound  = errors.New("product: not found")
	ErrInPackage = errors.New("product: referenced by a package")
)

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Unit      string    `json:"unit"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Input struct {
	Name   string
	Price  int64
	Unit   string
	Images []string
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, price, unit, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	var images []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Unit, &images, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return Product{}, fmt.Errorf("product: decode images: %w", err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("product: list: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("product: scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) Create(ctx context.Context, in Input) (Product, error) {
	images, err := encodeImages(in.Images)
	if err != nil {
		return Product{}, err
	}
	return scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, price, unit, images)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		in.Name, in.Price, in.Unit, images))
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (Product, error) {
	images, err := encodeImages(in.Images)
	if err != nil {
		return Product{}, err
	}
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, unit = $4, images = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, in.Name, in.Price, in.Unit, images))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Delete refuses to remove a product that any package still references.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var refs int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM package_products WHERE product_id = $1`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("product: count references: %w", err)
	}
	if refs > 0 {
		return ErrInPackage
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("product: delete: %w", err)
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

func encodeImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("product: encode images: %w", err)
	}
	return encoded, nil
}
