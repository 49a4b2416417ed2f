package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// ProductID is an opaque product identifier. Upstream payloads carry it either
// as a JSON string or a bare number, so decoding accepts both.
type ProductID string

// UnmarshalJSON decodes a product id from a JSON string or number.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number, got %s", string(data))
	}
	*id = ProductID(n.String())
	return nil
}

// Entry is a single purchasable product. The alerter treats the catalog as
// read-only input: entries are filtered and sorted, never mutated.
type Entry struct {
	ID          ProductID        `json:"product_id"`
	Name        string           `json:"product_name"`
	Brand       string           `json:"brand"`
	Category    string           `json:"category"`
	Price       decimal.Decimal  `json:"final_price"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReviewCount int              `json:"reviewCount,omitempty"`
	Badge       string           `json:"badge,omitempty"`
	ImageURL    string           `json:"main_image,omitempty"`
	Description string           `json:"description,omitempty"`
}

// Load reads the static product catalog from a JSON file. Order in the file is
// the catalog's canonical order.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return entries, nil
}
