// Package search implements the global keyword search across people,
// products, packages, orders and treatment locations.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const (
	TypePerson   = "person"
	TypeProduct  = "product"
	TypePackage  = "package"
	TypeOrder    = "order"
	TypeLocation = "location"
)

var validTypes = map[string]bool{
	TypePerson:   true,
	TypeProduct:  true,
	TypePackage:  true,
	TypeOrder:    true,
	TypeLocation: true,
}

type Result struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	Relevance int    `json:"relevance"`
}

type Query struct {
	Keyword string
	Type    string
	Page    int
	Limit   int
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Search collects ILIKE matches per entity, scores them in memory and
// returns one merged, paginated result set.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return []Result{}, 0, nil
	}

	types := []string{TypePerson, TypeProduct, TypePackage, TypeOrder, TypeLocation}
	if q.Type != "" {
		if !validTypes[q.Type] {
			return []Result{}, 0, nil
		}
		types = []string{q.Type}
	}

	results := []Result{}
	for _, t := range types {
		matched, err := s.searchType(ctx, t, keyword)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, matched...)
	}

	for i := range results {
		results[i].Relevance = Score(results[i].Title, keyword)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Title < results[j].Title
	})

	total := len(results)
	start := (q.Page - 1) * q.Limit
	if start >= total {
		return []Result{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return results[start:end], total, nil
}

func (s *Service) searchType(ctx context.Context, entityType, keyword string) ([]Result, error) {
	pattern := "%" + keyword + "%"

	var query string
	switch entityType {
	case TypePerson:
		query = `SELECT id, full_name, 'CMND/CCCD: ' || id_number FROM covid_people
		         WHERE full_name ILIKE $1 OR id_number ILIKE $1 LIMIT 50`
	case TypeProduct:
		query = `SELECT id, name, unit FROM products WHERE name ILIKE $1 LIMIT 50`
	case TypePackage:
		query = `SELECT id, name, '' FROM packages WHERE name ILIKE $1 LIMIT 50`
	case TypeOrder:
		query = `SELECT o.id, p.full_name, o.status FROM orders o
		         JOIN covid_people p ON p.id = o.person_id
		         WHERE p.full_name ILIKE $1 LIMIT 50`
	case TypeLocation:
		query = `SELECT id, name, '' FROM treatment_locations WHERE name ILIKE $1 LIMIT 50`
	}

	rows, err := s.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("search: query %s: %w", entityType, err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		r := Result{Type: entityType}
		if err := rows.Scan(&r.ID, &r.Title, &r.Subtitle); err != nil {
			return nil, fmt.Errorf("search: scan %s: %w", entityType, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Score ranks a match: exact beats prefix beats substring.
func Score(value, keyword string) int {
	v := strings.ToLower(value)
	k := strings.ToLower(keyword)
	switch {
	case v == k:
		return 3
	case strings.HasPrefix(v, k):
		return 2
	case strings.Contains(v, k):
		return 1
	default:
		return 0
	}
}
