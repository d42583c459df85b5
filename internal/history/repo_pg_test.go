package history

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoInsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs("sub-1", "sess_1", "moda", "complete", "processing", "", nil, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), Submission{
		ID:           "sub-1",
		SessionID:    "sess_1",
		Segmento:     "moda",
		AnalysisType: "complete",
		Status:       "processing",
		CreatedAt:    created,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinish(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WithArgs("sub-1", "completed", "", []byte(`{"insights":2}`), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "sub-1", "completed", "", []byte(`{"insights":2}`), at); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoFinishNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finish(context.Background(), "missing", "failed", "boom", nil, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListBySession(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := created.Add(3 * time.Minute)

	rows := sqlmock.NewRows([]string{
		"id", "session_id", "segmento", "analysis_type", "status", "error", "summary", "created_at", "completed_at",
	}).AddRow(
		"sub-2", "sess_1", "moda", "complete", "completed", "", []byte(`{"insights":1}`), created.Add(time.Minute), completed,
	).AddRow(
		"sub-1", "sess_1", "moda", "forensic_cpl", "failed", "Erro na análise", nil, created, nil,
	)

	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions")).
		WithArgs("sess_1", 20, 0).
		WillReturnRows(rows)

	out, err := repo.ListBySession(context.Background(), "sess_1", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].ID != "sub-2" || out[0].CompletedAt == nil {
		t.Fatalf("unexpected first row %+v", out[0])
	}
	if string(out[0].Summary) != `{"insights":1}` {
		t.Fatalf("unexpected summary %s", out[0].Summary)
	}
	if out[1].Error != "Erro na análise" || out[1].CompletedAt != nil || out[1].Summary != nil {
		t.Fatalf("unexpected second row %+v", out[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestServiceListClampsPaging(t *testing.T) {
	r := NewMemoryRepo()
	svc := NewService(r)
	seedMemoryRepo(t, r, "sess_1", 3)

	out, err := svc.List(context.Background(), "sess_1", -5, -2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows with clamped paging, got %d", len(out))
	}
}
