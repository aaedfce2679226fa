package domain

import "time"

// Product categories recognised by the backend listing filter.
const (
	CategoryFavorite  = "Favorite Product"
	CategoryCoffee    = "Coffee"
	CategoryNonCoffee = "Non Coffee"
	CategoryFoods     = "Foods"
	CategoryAddOn     = "Add-On"
)

// Listing sort orders.
const (
	SortAlphabet = "alphabet"
	SortPrice    = "price"
	SortLatest   = "latest"
	SortOldest   = "oldest"
)

// Price bounds applied when the shopper leaves the range untouched.
const (
	DefaultMinPrice int64 = 0
	DefaultMaxPrice int64 = 100000
)

// Product is a catalog entry as served by the backend API. Prices are IDR.
type Product struct {
	ID          int        `json:"id"`
	UUID        string     `json:"uuid"`
	ProductName string     `json:"product_name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	Image       string     `json:"image"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// LineItem builds the candidate line item for p. The identity defaults to the
// product UUID.
func (p Product) LineItem(opts Options) LineItem {
	opts = opts.WithDefaults()
	return LineItem{
		UUID:        p.UUID,
		ProductID:   p.ID,
		ProductName: p.ProductName,
		Price:       p.Price,
		Image:       p.Image,
		Count:       1,
		Delivery:    opts.Delivery,
		Payment:     opts.Payment,
		Size:        opts.Size,
		Ice:         opts.Ice,
	}
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products  []Product `json:"products"`
	Page      int       `json:"page"`
	TotalPage int       `json:"total_page"`
}

// ListingFilter selects which products a listing shows.
type ListingFilter struct {
	ProductName string `json:"product_name,omitempty" query:"product_name" validate:"max=100"`
	Category    string `json:"category,omitempty" query:"category" validate:"omitempty,oneof='Favorite Product' Coffee 'Non Coffee' Foods Add-On"`
	SortBy      string `json:"sortBy,omitempty" query:"sortBy" validate:"omitempty,oneof=alphabet price latest oldest"`
	MinPrice    int64  `json:"min_price" query:"min_price" validate:"gte=0"`
	MaxPrice    int64  `json:"max_price" query:"max_price" validate:"gtefield=MinPrice"`
	Page        int    `json:"page" query:"page" validate:"min=1"`
}

// DefaultListingFilter returns the unfiltered first page.
func DefaultListingFilter() ListingFilter {
	return ListingFilter{
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
		Page:     1,
	}
}
