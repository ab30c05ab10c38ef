package domain

import (
	"strings"
	"time"
)

// Category is one of the fixed catalog categories
type Category string

const (
	CategoryLaptop     Category = "Laptop"
	CategoryMonitor    Category = "Monitor"
	CategoryPeripheral Category = "Peripheral"
	CategoryAccessory  Category = "Accessory"
)

// Categories lists every category in presentation order.
var Categories = []Category{
	CategoryLaptop,
	CategoryMonitor,
	CategoryPeripheral,
	CategoryAccessory,
}

// Valid reports whether c is part of the enumeration
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ChartKey is the key used for c in category charts
func (c Category) ChartKey() string {
	return strings.ToLower(string(c))
}

// Product represents an entry in the catalog
type Product struct {
	ID            string   `json:"id" db:"id" bson:"_id"`
	SKU           string   `json:"sku" db:"sku" bson:"sku"`
	Manufacturer  string   `json:"manufacturer" db:"manufacturer" bson:"manufacturer"`
	Model         string   `json:"model" db:"model" bson:"model"`
	Type          string   `json:"type" db:"type" bson:"type"`
	Category      Category `json:"category" db:"category" bson:"category"`
	Color         string   `json:"color" db:"color" bson:"color"`
	SerialNumber  string   `json:"serialNumber" db:"serial_number" bson:"serialNumber"`
	StockQuantity int      `json:"stockQuantity" db:"stock_quantity" bson:"stockQuantity"`
	ReleaseDate   string   `json:"releaseDate" db:"release_date" bson:"releaseDate"`
	Price         string   `json:"price" db:"price" bson:"price"`
	OwnerID       string   `json:"ownerId" db:"owner_id" bson:"ownerId"`
}

// ReleaseYear extracts the calendar year of the release date.
func (p *Product) ReleaseYear() (int, bool) {
	return ParseYear(p.ReleaseDate)
}

// ParseYear reads the year out of a YYYY-MM-DD date, tolerating full timestamps.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), true
		}
	}
	if len(date) >= 10 {
		if t, err := time.Parse(time.DateOnly, date[:10]); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// Listing returns the projection used by catalog pages
func (p *Product) Listing() ProductListing {
	return ProductListing{
		ID:            p.ID,
		SKU:           p.SKU,
		Manufacturer:  p.Manufacturer,
		Model:         p.Model,
		Type:          p.Type,
		Category:      p.Category,
		Color:         p.Color,
		StockQuantity: p.StockQuantity,
		ReleaseDate:   p.ReleaseDate,
		Price:         p.Price,
	}
}

// Clone returns an independent copy of the product
func (p *Product) Clone() *Product {
	c := *p
	return &c
}

// Apply merges the fields set on in into the product. Identity and ownership
// are not part of ProductInput and therefore never change here.
func (p *Product) Apply(in ProductInput) {
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Manufacturer != nil {
		p.Manufacturer = *in.Manufacturer
	}
	if in.Model != nil {
		p.Model = *in.Model
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Color != nil {
		p.Color = *in.Color
	}
	if in.SerialNumber != nil {
		p.SerialNumber = *in.SerialNumber
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.ReleaseDate != nil {
		p.ReleaseDate = *in.ReleaseDate
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
}

// ProductListing is a product without its serial number and owner
type ProductListing struct {
	ID            string   `json:"id"`
	SKU           string   `json:"sku"`
	Manufacturer  string   `json:"manufacturer"`
	Model         string   `json:"model"`
	Type          string   `json:"type"`
	Category      Category `json:"category"`
	Color         string   `json:"color"`
	StockQuantity int      `json:"stockQuantity"`
	ReleaseDate   string   `json:"releaseDate"`
	Price         string   `json:"price"`
}

// ProductInput carries the mutable product fields. A nil pointer means
// "not submitted".
type ProductInput struct {
	SKU           *string   `json:"sku"`
	Manufacturer  *string   `json:"manufacturer"`
	Model         *string   `json:"model"`
	Type          *string   `json:"type"`
	Category      *Category `json:"category" validate:"omitempty,category"`
	Color         *string   `json:"color"`
	SerialNumber  *string   `json:"serialNumber"`
	StockQuantity *int      `json:"stockQuantity" validate:"omitempty,min=0"`
	ReleaseDate   *string   `json:"releaseDate" validate:"omitempty,release_date"`
	Price         *string   `json:"price" validate:"omitempty,decimal"`
}

// ProductPage is one page of a filtered catalog listing
type ProductPage struct {
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	Items      []ProductListing `json:"items"`
}

// ChartPoint is a single bar of an aggregation
type ChartPoint struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// Summary holds catalog-wide totals
type Summary struct {
	Count int     `json:"count"`
	OEMs  int     `json:"oems"`
	Value float64 `json:"value"`
}
