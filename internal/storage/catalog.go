package storage

import "errors"

var ErrPartNotFound = errors.New("part not found")

type CatalogPart struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	UnitCost    *float64 `json:"unit_cost"`
	Unit        string   `json:"unit"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Available   bool     `json:"available"`
}
