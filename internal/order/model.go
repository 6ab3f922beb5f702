package order

import "time"

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID          int64     `json:"id"`
	PersonID    int64     `json:"person_id"`
	PackageID   int64     `json:"package_id"`
	PackageName string    `json:"package_name"`
	TotalAmount int64     `json:"total_amount"`
	Status      string    `json:"status"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
}

type Item struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalPrice  int64  `json:"total_price"`
}

type ItemInput struct {
	ProductID int64
	Quantity  int
}
