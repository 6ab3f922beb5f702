// Package analytics computes reporting figures over the case, order and
// ledger tables.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tvtrungg/covid-management-system/internal/payment"
)

var ErrInvalidRange = errors.New("analytics: invalid range")

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type PackageStat struct {
	PackageID   int64  `json:"package_id"`
	Name        string `json:"name"`
	OrderCount  int    `json:"order_count"`
	TotalAmount int64  `json:"total_amount"`
}

type ProductStat struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type Statistics struct {
	Range    string        `json:"range"`
	Since    time.Time     `json:"since"`
	Until    time.Time     `json:"until"`
	Statuses []StatusCount `json:"statuses"`
	Packages []PackageStat `json:"packages"`
	Products []ProductStat `json:"products"`
}

type StatusShare struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type OrderSummary struct {
	Count         int   `json:"count"`
	TotalAmount   int64 `json:"total_amount"`
	AverageAmount int64 `json:"average_amount"`
}

type LocationUtilization struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Capacity     int     `json:"capacity"`
	CurrentCount int     `json:"current_count"`
	Percent      float64 `json:"percent"`
}

type PaymentSummary struct {
	Deposits int64 `json:"deposits"`
	Payments int64 `json:"payments"`
}

type Dashboard struct {
	Since     time.Time             `json:"since"`
	Until     time.Time             `json:"until"`
	Statuses  []StatusShare         `json:"statuses"`
	Orders    OrderSummary          `json:"orders"`
	Locations []LocationUtilization `json:"locations"`
	Payments  PaymentSummary        `json:"payments"`
}

type Service struct {
	db       *sql.DB
	payments *payment.Repository
}

func NewService(db *sql.DB, payments *payment.Repository) *Service {
	return &Service{db: db, payments: payments}
}

// RangeBounds translates a named range into [since, until).
func RangeBounds(name string, now time.Time) (time.Time, time.Time, error) {
	switch name {
	case "week":
		return now.AddDate(0, 0, -7), now, nil
	case "month", "":
		return now.AddDate(0, -1, 0), now, nil
	case "quarter":
		return now.AddDate(0, -3, 0), now, nil
	case "year":
		return now.AddDate(-1, 0, 0), now, nil
	default:
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
}

func (s *Service) Statistics(ctx context.Context, rangeName string) (Statistics, error) {
	since, until, err := RangeBounds(rangeName, time.Now().UTC())
	if err != nil {
		return Statistics{}, err
	}
	if rangeName == "" {
		rangeName = "month"
	}

	stats := Statistics{Range: rangeName, Since: since, Until: until}

	stats.Statuses, err = s.statusCounts(ctx, since, until)
	if err != nil {
		return Statistics{}, err
	}
	stats.Packages, err = s.packageStats(ctx, since, until)
	if err != nil {
		return Statistics{}, err
	}
	stats.Products, err = s.productStats(ctx, since, until)
	if err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

func (s *Service) statusCounts(ctx context.Context, since, until time.Time) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM covid_people
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
		ORDER BY status`,
		since, until)
	if err != nil {
		return nil, fmt.Errorf("analytics: status counts: %w", err)
	}
	defer rows.Close()

	counts := []StatusCount{}
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("analytics: scan status: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *Service) packageStats(ctx context.Context, since, until time.Time) ([]PackageStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, COUNT(o.id), COALESCE(SUM(o.total_amount), 0)
		FROM packages p
		LEFT JOIN orders o ON o.package_id = p.id
			AND o.status <> 'cancelled'
			AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY p.id, p.name
		ORDER BY COUNT(o.id) DESC, p.name`,
		since, until)
	if err != nil {
		return nil, fmt.Errorf("analytics: package stats: %w", err)
	}
	defer rows.Close()

	stats := []PackageStat{}
	for rows.Next() {
		var st PackageStat
		if err := rows.Scan(&st.PackageID, &st.Name, &st.OrderCount, &st.TotalAmount); err != nil {
			return nil, fmt.Errorf("analytics: scan package stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Service) productStats(ctx context.Context, since, until time.Time) ([]ProductStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pr.id, pr.name, COALESCE(SUM(oi.quantity), 0), COALESCE(SUM(oi.total_price), 0)
		FROM products pr
		LEFT JOIN order_items oi ON oi.product_id = pr.id
		LEFT JOIN orders o ON o.id = oi.order_id
			AND o.status <> 'cancelled'
			AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY pr.id, pr.name
		ORDER BY COALESCE(SUM(oi.total_price), 0) DESC, pr.name`,
		since, until)
	if err != nil {
		return nil, fmt.Errorf("analytics: product stats: %w", err)
	}
	defer rows.Close()

	stats := []ProductStat{}
	for rows.Next() {
		var st ProductStat
		if err := rows.Scan(&st.ProductID, &st.Name, &st.Quantity, &st.Revenue); err != nil {
			return nil, fmt.Errorf("analytics: scan product stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Service) Dashboard(ctx context.Context, since, until time.Time) (Dashboard, error) {
	d := Dashboard{Since: since, Until: until}

	counts, err := s.statusCounts(ctx, since, until)
	if err != nil {
		return Dashboard{}, err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	for _, c := range counts {
		share := StatusShare{Status: c.Status, Count: c.Count}
		if total > 0 {
			share.Percent = float64(c.Count) * 100 / float64(total)
		}
		d.Statuses = append(d.Statuses, share)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2`,
		since, until).Scan(&d.Orders.Count, &d.Orders.TotalAmount)
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: order summary: %w", err)
	}
	if d.Orders.Count > 0 {
		d.Orders.AverageAmount = d.Orders.TotalAmount / int64(d.Orders.Count)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, capacity, current_count
		FROM treatment_locations
		ORDER BY name`)
	if err != nil {
		return Dashboard{}, fmt.Errorf("analytics: location utilization: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l LocationUtilization
		if err := rows.Scan(&l.ID, &l.Name, &l.Capacity, &l.CurrentCount); err != nil {
			return Dashboard{}, fmt.Errorf("analytics: scan location: %w", err)
		}
		if l.Capacity > 0 {
			l.Percent = float64(l.CurrentCount) * 100 / float64(l.Capacity)
		}
		d.Locations = append(d.Locations, l)
	}
	if err := rows.Err(); err != nil {
		return Dashboard{}, err
	}

	d.Payments.Deposits, d.Payments.Payments, err = s.payments.Totals(ctx, since, until)
	if err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
