package product

import "time"

// Product uses PascalCase JSON field names; existing API clients bind to
// that casing.
type Product struct {
	ID            int64      `json:"Id"`
	Name          string     `json:"Name"`
	Description   string     `json:"Description"`
	Price         float64    `json:"Price"`
	StockQuantity int        `json:"StockQuantity"`
	Category      string     `json:"Category"`
	CreatedAt     time.Time  `json:"CreatedAt"`
	UpdatedAt     *time.Time `json:"UpdatedAt"`
	IsAvailable   bool       `json:"IsAvailable"`
	ImageURL      string     `json:"ImageUrl,omitempty"`
}

type ProductInput struct {
	ID            int64   `json:"Id"`
	Name          string  `json:"Name"`
	Description   string  `json:"Description"`
	Price         float64 `json:"Price"`
	StockQuantity int     `json:"StockQuantity"`
	Category      string  `json:"Category"`
	IsAvailable   *bool   `json:"IsAvailable"`
	ImageURL      string  `json:"ImageUrl"`
}

// Filter narrows List results; nil price bounds mean unbounded.
type Filter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
}
