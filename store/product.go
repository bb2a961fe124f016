package store

// Product is one catalog item. IDs are opaque strings assigned by the
// ingestion pipeline (e.g. "P001").
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Stock       int32   `json:"stock"`
	Rating      float64 `json:"rating"`
	ImageURL    string  `json:"image_url"`
	CreatedTs   int64   `json:"created_ts"`
	UpdatedTs   int64   `json:"updated_ts"`
}

// FindProduct narrows a product listing. Nil fields are not filtered on.
type FindProduct struct {
	ID          *string
	NameLike    *string // case-insensitive substring match on name
	Category    *string
	Brand       *string
	MaxPrice    *float64
	MinPrice    *float64
	MinRating   *float64
	InStockOnly bool
	Limit       *int
}
