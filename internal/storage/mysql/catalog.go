package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"elevcalc/internal/storage"
)

func (s *Storage) Lookup(ctx context.Context, code string) (*storage.CatalogPart, error) {
	const op = "storage.mysql.Lookup"

	query := `
		SELECT code, name, unit_cost, unit, category, subcategory, available
		FROM parts
		WHERE code = ?
	`

	part := &storage.CatalogPart{}
	var cost decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&part.Code,
		&part.Name,
		&cost,
		&part.Unit,
		&part.Category,
		&part.Subcategory,
		&part.Available,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: code='%s': %w", op, code, storage.ErrPartNotFound)
		}
		return nil, fmt.Errorf("%s: query failed: %w", op, err)
	}

	if cost.Valid {
		v := cost.Decimal.InexactFloat64()
		part.UnitCost = &v
	}

	return part, nil
}
