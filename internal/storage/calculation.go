package storage

import (
	"errors"
	"time"
)

var ErrCalculationNotFound = errors.New("calculation not found")

// Calculation is a priced quote as persisted by the caller. It is written
// together with its items in a single transaction.
type Calculation struct {
	ID                string            `json:"id"`
	BusinessLine      string            `json:"business_line"`
	Specification     string            `json:"specification"`
	Dimensions        string            `json:"dimensions"`
	Pricing           string            `json:"pricing"`
	MaterialsCost     float64           `json:"materials_cost"`
	ProductionCost    float64           `json:"production_cost"`
	TotalProjectCost  float64           `json:"total_project_cost"`
	FinalPrice        float64           `json:"final_price"`
	NegotiatedPrice   *float64          `json:"negotiated_price"`
	DiscountPercent   float64           `json:"discount_percent"`
	DimensionsExplain string            `json:"dimensions_explanation"`
	PricingExplain    string            `json:"pricing_explanation"`
	Degraded          bool              `json:"degraded"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []CalculationItem `json:"items"`
}

type CalculationItem struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	Total       float64 `json:"total"`
	Explanation string  `json:"explanation"`
	Degraded    bool    `json:"degraded"`
}
