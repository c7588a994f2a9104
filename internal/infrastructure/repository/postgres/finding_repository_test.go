package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/medreport/companion/internal/core/domain"
)

func newFindingRepoWithMock(t *testing.T) (*FindingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &FindingRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestReplaceForDocumentDeletesThenInserts(t *testing.T) {
	repo, mock, done := newFindingRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	findings := []domain.Finding{
		{ID: "f-1", DocumentID: "doc-1", Type: domain.FindingLabValue, Name: "hemoglobin", Value: "13.5", Unit: "g/dl", CreatedAt: now},
		{ID: "f-2", DocumentID: "doc-1", Type: domain.FindingRadiology, Name: "menisci", Descriptor: "normal", CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM findings").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO findings").
		WithArgs("f-1", "doc-1", "lab_value", "hemoglobin", "13.5", "g/dl", "", "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO findings").
		WithArgs("f-2", "doc-1", "radiology_finding", "menisci", "", "", "normal", "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceForDocument(context.Background(), "doc-1", findings); err != nil {
		t.Fatalf("ReplaceForDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceForDocumentRollsBackOnInsertError(t *testing.T) {
	repo, mock, done := newFindingRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM findings").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO findings").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceForDocument(context.Background(), "doc-1", []domain.Finding{
		{ID: "f-1", Type: domain.FindingLabValue, Name: "hemoglobin"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListByDocument(t *testing.T) {
	repo, mock, done := newFindingRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, document_id, type").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "document_id", "type", "name", "value", "unit", "descriptor", "snippet", "explanation", "created_at",
		}).AddRow(
			"f-1", "doc-1", "lab_value", "hba1c", "6.2", "%", "", "hba1c 6.2 %", "Your HbA1c is slightly elevated.", now,
		))

	got, err := repo.ListByDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Type != domain.FindingLabValue || got[0].Explanation == "" {
		t.Fatalf("finding = %+v", got[0])
	}
}
