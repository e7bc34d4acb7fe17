package storage

import (
	"errors"
	"time"
)

var (
	ErrRuleDocumentNotFound = errors.New("rule document not found")
	ErrRuleDocumentInvalid  = errors.New("rule document is not validated")
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// RuleDocument is a versioned set of part-selection rules for one category.
// At most one document per category is active at a time.
type RuleDocument struct {
	ID              int64     `json:"id"`
	Category        string    `json:"category"`
	Name            string    `json:"name"`
	Version         int       `json:"version"`
	Format          string    `json:"format"`
	Content         string    `json:"content"`
	IsActive        bool      `json:"is_active"`
	IsValidated     bool      `json:"is_validated"`
	ValidationError *string   `json:"validation_error"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type RuleDocumentSave struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Format   string `json:"format"`
	Content  string `json:"content"`
}
