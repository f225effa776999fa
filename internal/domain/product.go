package domain

import "time"

// Product is a catalog entry.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Stock       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductPatch carries a partial product update.
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	Stock       *int64
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil && p.PriceCents == nil && p.Stock == nil
}
