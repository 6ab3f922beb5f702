// Package pack manages necessity packages: named bundles of products with a
// per-person purchase limit inside a rolling time window.
package pack

import "time"

const (
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
)

type Package struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	LimitPerPerson int           `json:"limit_per_person"`
	TimeLimitType  string        `json:"time_limit_type"`
	TimeLimitValue int           `json:"time_limit_value"`
	Products       []PackageLine `json:"products"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type PackageLine struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Unit        string `json:"unit"`
	MaxQuantity int    `json:"max_quantity"`
}

type LineInput struct {
	ProductID   int64
	MaxQuantity int
}

type Input struct {
	Name           string
	LimitPerPerson int
	TimeLimitType  string
	TimeLimitValue int
	Products       []LineInput
}

// WindowStart returns the beginning of the purchase window ending at now.
func (p Package) WindowStart(now time.Time) time.Time {
	value := p.TimeLimitValue
	if value < 1 {
		value = 1
	}
	switch p.TimeLimitType {
	case WindowDay:
		return now.AddDate(0, 0, -value)
	case WindowWeek:
		return now.AddDate(0, 0, -7*value)
	default:
		return now.AddDate(0, -value, 0)
	}
}
