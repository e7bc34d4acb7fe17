package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevcalc/internal/storage"
)

var docColumns = []string{"id", "category", "name", "version", "format", "content", "is_active", "is_validated", "validation_error", "updated_at"}

var updatedAt = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func docRow(id int64, version int64, active, validated bool, validationError driver.Value) []driver.Value {
	return []driver.Value{id, "cabin", "cabin rules", version, "yaml", "category: cabin", active, validated, validationError, updatedAt}
}

func TestLoadActive(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE category = ? AND is_active = TRUE")).
		WithArgs("cabin").
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(docRow(4, 2, true, true, nil)...))

	doc, err := s.LoadActive(context.Background(), "cabin")
	require.NoError(t, err)

	assert.Equal(t, int64(4), doc.ID)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, doc.IsActive)
	assert.Nil(t, doc.ValidationError)
	assert.Equal(t, updatedAt, doc.UpdatedAt)
}

func TestLoadActive_None(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE category = ?")).
		WithArgs("traction").
		WillReturnRows(sqlmock.NewRows(docColumns))

	doc, err := s.LoadActive(context.Background(), "traction")
	assert.NoError(t, err)
	assert.Nil(t, doc)
}

func TestGetRuleDocument(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(docRow(4, 1, false, false, "missing codes: X")...))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(docColumns))

	doc, err := s.GetRuleDocument(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, doc.ValidationError)
	assert.Equal(t, "missing codes: X", *doc.ValidationError)

	_, err = s.GetRuleDocument(context.Background(), 5)
	assert.ErrorIs(t, err, storage.ErrRuleDocumentNotFound)
}

func TestListRuleDocuments(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE category = ? ORDER BY category, id")).
		WithArgs("cabin").
		WillReturnRows(sqlmock.NewRows(docColumns).
			AddRow(docRow(1, 1, false, true, nil)...).
			AddRow(docRow(2, 3, true, true, nil)...))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents ORDER BY category, id")).
		WillReturnRows(sqlmock.NewRows(docColumns))

	docs, err := s.ListRuleDocuments(context.Background(), "cabin")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(2), docs[1].ID)

	docs, err = s.ListRuleDocuments(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestSaveRuleDocument_Insert(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rule_documents")).
		WithArgs("cabin", "cabin rules", "yaml", "category: cabin").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(docRow(9, 1, false, false, nil)...))

	doc, err := s.SaveRuleDocument(context.Background(), storage.RuleDocumentSave{
		Category: "cabin", Name: "cabin rules", Format: "yaml", Content: "category: cabin",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), doc.ID)
	assert.Equal(t, 1, doc.Version)
}

func TestSaveRuleDocument_ContentChangeBumpsVersion(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT content FROM rule_documents WHERE id = ? FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow("category: cabin\nlines: []"))
	mock.ExpectExec(regexp.QuoteMeta("version = version + 1")).
		WithArgs("cabin rules", "yaml", "category: cabin", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(docRow(4, 3, false, false, nil)...))

	doc, err := s.SaveRuleDocument(context.Background(), storage.RuleDocumentSave{
		ID: 4, Name: "cabin rules", Format: "yaml", Content: "category: cabin",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Version)
	assert.False(t, doc.IsActive)
}

func TestSaveRuleDocument_SameContentKeepsVersion(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT content FROM rule_documents")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"content"}).AddRow("category: cabin"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rule_documents SET name = ?, format = ? WHERE id = ?")).
		WithArgs("renamed", "yaml", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rule_documents WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(docColumns).AddRow(docRow(4, 2, true, true, nil)...))

	doc, err := s.SaveRuleDocument(context.Background(), storage.RuleDocumentSave{
		ID: 4, Name: "renamed", Format: "yaml", Content: "category: cabin",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
}

func TestSaveRuleDocument_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT content FROM rule_documents")).
		WithArgs(int64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"content"}))
	mock.ExpectRollback()

	_, err := s.SaveRuleDocument(context.Background(), storage.RuleDocumentSave{ID: 40, Content: "x"})
	assert.ErrorIs(t, err, storage.ErrRuleDocumentNotFound)
}

func TestRecordValidation(t *testing.T) {
	s, mock := newMock(t)

	msg := "missing or unavailable codes: X"
	mock.ExpectExec(regexp.QuoteMeta("is_active = is_active AND ?")).
		WithArgs(false, msg, false, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("is_active = is_active AND ?")).
		WithArgs(true, nil, true, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.RecordValidation(context.Background(), 4, false, &msg))
	require.NoError(t, s.RecordValidation(context.Background(), 4, true, nil))
}

func TestActivateRuleDocument(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, is_validated FROM rule_documents WHERE id = ? FOR UPDATE")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "is_validated"}).AddRow("cabin", true))
	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE WHERE category = ? AND id <> ?")).
		WithArgs("cabin", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET is_active = TRUE WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.ActivateRuleDocument(context.Background(), 4))
}

func TestActivateRuleDocument_Refused(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want error
	}{
		{
			name: "not validated",
			rows: sqlmock.NewRows([]string{"category", "is_validated"}).AddRow("cabin", false),
			want: storage.ErrRuleDocumentInvalid,
		},
		{
			name: "not found",
			rows: sqlmock.NewRows([]string{"category", "is_validated"}),
			want: storage.ErrRuleDocumentNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT category, is_validated")).
				WithArgs(int64(4)).
				WillReturnRows(tt.rows)
			mock.ExpectRollback()

			assert.ErrorIs(t, s.ActivateRuleDocument(context.Background(), 4), tt.want)
		})
	}
}

func TestActivateRuleDocument_RollsBackOnError(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, is_validated")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "is_validated"}).AddRow("cabin", true))
	mock.ExpectExec(regexp.QuoteMeta("SET is_active = FALSE WHERE category = ?")).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	assert.Error(t, s.ActivateRuleDocument(context.Background(), 4))
}

func TestDeactivateRuleDocument(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rule_documents SET is_active = FALSE WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, s.DeactivateRuleDocument(context.Background(), 4))
}
