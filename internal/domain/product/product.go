package product

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxNameLength is the maximum product name length in bytes.
const MaxNameLength = 512

// Product is a read-only view of a catalog record (immutable value object).
// The ranking core never mutates catalog data; embeddings live on the
// catalog record and are loaded separately when discovery needs them.
type Product struct {
	id       string
	name     string
	category string
	ptype    string
	price    float64
}

// New validates and creates a Product.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Name: non-empty, max 512 bytes.
func New(id, name, category, ptype string, price float64) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product ID is required")
	}
	if len(id) > 256 {
		return Product{}, fmt.Errorf("product ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Product{}, fmt.Errorf("product ID must be alphanumeric with underscores and hyphens")
	}
	if name == "" {
		return Product{}, fmt.Errorf("product name is required")
	}
	if len(name) > MaxNameLength {
		return Product{}, fmt.Errorf("product name too long (max %d bytes)", MaxNameLength)
	}
	if price < 0 {
		return Product{}, fmt.Errorf("product price must not be negative")
	}

	return Product{id: id, name: name, category: category, ptype: ptype, price: price}, nil
}

// Reconstruct creates a Product without validation (storage hydration).
func Reconstruct(id, name, category, ptype string, price float64) Product {
	return Product{id: id, name: name, category: category, ptype: ptype, price: price}
}

// ID returns the product identifier.
func (p Product) ID() string { return p.id }

// Name returns the product display name.
func (p Product) Name() string { return p.name }

// Category returns the product category.
func (p Product) Category() string { return p.category }

// Type returns the product type within its category.
func (p Product) Type() string { return p.ptype }

// Price returns the product price.
func (p Product) Price() float64 { return p.price }
