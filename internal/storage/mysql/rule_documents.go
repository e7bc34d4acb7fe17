package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elevcalc/internal/storage"
)

const ruleDocumentColumns = `id, category, name, version, format, content, is_active, is_validated, validation_error, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRuleDocument(row rowScanner) (*storage.RuleDocument, error) {
	doc := &storage.RuleDocument{}
	var validationError sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Category,
		&doc.Name,
		&doc.Version,
		&doc.Format,
		&doc.Content,
		&doc.IsActive,
		&doc.IsValidated,
		&validationError,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if validationError.Valid {
		doc.ValidationError = &validationError.String
	}
	return doc, nil
}

// LoadActive returns nil, nil when the category has no active document.
func (s *Storage) LoadActive(ctx context.Context, category string) (*storage.RuleDocument, error) {
	const op = "storage.mysql.LoadActive"

	query := `SELECT ` + ruleDocumentColumns + ` FROM rule_documents WHERE category = ? AND is_active = TRUE LIMIT 1`

	doc, err := scanRuleDocument(s.db.QueryRowContext(ctx, query, category))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

func (s *Storage) GetRuleDocument(ctx context.Context, id int64) (*storage.RuleDocument, error) {
	const op = "storage.mysql.GetRuleDocument"

	query := `SELECT ` + ruleDocumentColumns + ` FROM rule_documents WHERE id = ?`

	doc, err := scanRuleDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrRuleDocumentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc, nil
}

// ListRuleDocuments lists the documents of a category, or all of them when
// category is empty. Content is included.
func (s *Storage) ListRuleDocuments(ctx context.Context, category string) ([]*storage.RuleDocument, error) {
	const op = "storage.mysql.ListRuleDocuments"

	query := `SELECT ` + ruleDocumentColumns + ` FROM rule_documents`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	docs := []*storage.RuleDocument{}
	for rows.Next() {
		doc, err := scanRuleDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan failed: %w", op, err)
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration failed: %w", op, err)
	}

	return docs, nil
}

// SaveRuleDocument creates a document when ID is zero. Otherwise it edits the
// document; a content change bumps the version and clears the validated and
// active flags. The category of an existing document never changes.
func (s *Storage) SaveRuleDocument(ctx context.Context, in storage.RuleDocumentSave) (*storage.RuleDocument, error) {
	const op = "storage.mysql.SaveRuleDocument"

	if in.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO rule_documents (category, name, version, format, content, is_active, is_validated)
			VALUES (?, ?, 1, ?, ?, FALSE, FALSE)
		`, in.Category, in.Name, in.Format, in.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: insert failed: %w", op, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s.GetRuleDocument(ctx, id)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT content FROM rule_documents WHERE id = ? FOR UPDATE`, in.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: id=%d: %w", op, in.ID, storage.ErrRuleDocumentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if current == in.Content {
		_, err = tx.ExecContext(ctx, `UPDATE rule_documents SET name = ?, format = ? WHERE id = ?`, in.Name, in.Format, in.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE rule_documents
			SET name = ?, format = ?, content = ?, version = version + 1,
			    is_validated = FALSE, is_active = FALSE, validation_error = NULL
			WHERE id = ?
		`, in.Name, in.Format, in.Content, in.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: update failed: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetRuleDocument(ctx, in.ID)
}

// RecordValidation stores a validation outcome. A document that fails
// validation is also deactivated.
func (s *Storage) RecordValidation(ctx context.Context, id int64, validated bool, validationError *string) error {
	const op = "storage.mysql.RecordValidation"

	_, err := s.db.ExecContext(ctx, `
		UPDATE rule_documents
		SET is_validated = ?, validation_error = ?, is_active = is_active AND ?
		WHERE id = ?
	`, validated, validationError, validated, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ActivateRuleDocument makes the document the only active one of its
// category. Unvalidated documents are refused.
func (s *Storage) ActivateRuleDocument(ctx context.Context, id int64) error {
	const op = "storage.mysql.ActivateRuleDocument"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	var category string
	var validated bool
	err = tx.QueryRowContext(ctx, `SELECT category, is_validated FROM rule_documents WHERE id = ? FOR UPDATE`, id).
		Scan(&category, &validated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrRuleDocumentNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !validated {
		return fmt.Errorf("%s: id=%d: %w", op, id, storage.ErrRuleDocumentInvalid)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE rule_documents SET is_active = FALSE WHERE category = ? AND id <> ?`, category, id); err != nil {
		return fmt.Errorf("%s: deactivate others: %w", op, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE rule_documents SET is_active = TRUE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%s: activate: %w", op, err)
	}

	return tx.Commit()
}

func (s *Storage) DeactivateRuleDocument(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeactivateRuleDocument"

	if _, err := s.db.ExecContext(ctx, `UPDATE rule_documents SET is_active = FALSE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
