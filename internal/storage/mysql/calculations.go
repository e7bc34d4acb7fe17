package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"elevcalc/internal/storage"
)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func round4(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(4)
}

// itemTotal is the product of the stored quantity and unit cost, so a
// persisted row always satisfies total = quantity x unit_cost.
func itemTotal(it storage.CalculationItem) decimal.Decimal {
	return round4(it.Quantity).Mul(round4(it.UnitCost))
}

// SaveCalculation writes the calculation and its items in one transaction and
// returns the new id.
func (s *Storage) SaveCalculation(ctx context.Context, c storage.Calculation) (string, error) {
	const op = "storage.mysql.SaveCalculation"

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var negotiated decimal.NullDecimal
	if c.NegotiatedPrice != nil {
		negotiated = decimal.NewNullDecimal(money(*c.NegotiatedPrice))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO calculations (id, business_line, specification, dimensions, pricing,
			materials_cost, production_cost, total_project_cost, final_price, negotiated_price,
			discount_percent, dimensions_explanation, pricing_explanation, degraded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, c.BusinessLine, c.Specification, c.Dimensions, c.Pricing,
		money(c.MaterialsCost), money(c.ProductionCost), money(c.TotalProjectCost), money(c.FinalPrice), negotiated,
		round4(c.DiscountPercent), c.DimensionsExplain, c.PricingExplain, c.Degraded)
	if err != nil {
		return "", fmt.Errorf("%s: insert calculation: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calculation_items (calculation_id, position, category, subcategory, code, description,
			quantity, unit, unit_cost, total, explanation, degraded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("%s: prepare statement: %w", op, err)
	}
	defer stmt.Close()

	for i, it := range c.Items {
		_, err := stmt.ExecContext(ctx, id, i, it.Category, it.Subcategory, it.Code, it.Description,
			round4(it.Quantity), it.Unit, round4(it.UnitCost), itemTotal(it), it.Explanation, it.Degraded)
		if err != nil {
			return "", fmt.Errorf("%s: insert item %s: %w", op, it.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetCalculation(ctx context.Context, id string) (*storage.Calculation, error) {
	const op = "storage.mysql.GetCalculation"

	c := &storage.Calculation{}
	var negotiated decimal.NullDecimal
	var materials, production, project, final, discount decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_line, specification, dimensions, pricing,
			materials_cost, production_cost, total_project_cost, final_price, negotiated_price,
			discount_percent, dimensions_explanation, pricing_explanation, degraded, created_at
		FROM calculations
		WHERE id = ?
	`, id).Scan(
		&c.ID, &c.BusinessLine, &c.Specification, &c.Dimensions, &c.Pricing,
		&materials, &production, &project, &final, &negotiated,
		&discount, &c.DimensionsExplain, &c.PricingExplain, &c.Degraded, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: id=%s: %w", op, id, storage.ErrCalculationNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.MaterialsCost = materials.InexactFloat64()
	c.ProductionCost = production.InexactFloat64()
	c.TotalProjectCost = project.InexactFloat64()
	c.FinalPrice = final.InexactFloat64()
	c.DiscountPercent = discount.InexactFloat64()
	if negotiated.Valid {
		v := negotiated.Decimal.InexactFloat64()
		c.NegotiatedPrice = &v
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, subcategory, code, description, quantity, unit, unit_cost, total, explanation, degraded
		FROM calculation_items
		WHERE calculation_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: items: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it storage.CalculationItem
		var quantity, unitCost, total decimal.Decimal
		err := rows.Scan(&it.Category, &it.Subcategory, &it.Code, &it.Description,
			&quantity, &it.Unit, &unitCost, &total, &it.Explanation, &it.Degraded)
		if err != nil {
			return nil, fmt.Errorf("%s: scan item: %w", op, err)
		}
		it.Quantity = quantity.InexactFloat64()
		it.UnitCost = unitCost.InexactFloat64()
		it.Total = total.InexactFloat64()
		c.Items = append(c.Items, it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration failed: %w", op, err)
	}

	return c, nil
}
