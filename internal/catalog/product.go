// Package catalog stores food products with their carbohydrate and bread-unit values.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidProduct is returned for products that must not reach storage.
var ErrInvalidProduct = errors.New("catalog: invalid product")

// Product is one catalog row. Name is the identity; ID belongs to the storage.
type Product struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Carbs      float64 `db:"carbs" json:"carbs"`
	BreadUnits float64 `db:"bread_units" json:"bread_units"`
}

// Validate checks the stored-form invariants.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProduct)
	}
	if !validAmount(p.Carbs) {
		return fmt.Errorf("%w: carbs %v", ErrInvalidProduct, p.Carbs)
	}
	if !validAmount(p.BreadUnits) {
		return fmt.Errorf("%w: bread units %v", ErrInvalidProduct, p.BreadUnits)
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// NormalizeName is the canonical stored and compared form of a name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Store is the catalog port used by the conversation engine. Each call is atomic.
type Store interface {
	// Search returns products whose name contains query, case-insensitively,
	// in insertion order.
	Search(ctx context.Context, query string) ([]Product, error)
	// Insert stores p with its name normalized and returns it with ID set.
	Insert(ctx context.Context, p Product) (Product, error)
	// DeleteByName removes every product whose name equals name, case-insensitively.
	DeleteByName(ctx context.Context, name string) (int64, error)
}
