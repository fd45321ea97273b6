package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
)

func newMockRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	return &DocumentRepository{DB: db}, mock
}

func TestDocumentRepositoryGetByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, ok, err := repo.GetByID("sheet1_0_0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("missing record reported present")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDocumentRepositoryPutInsertsWhenAbsent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Put("sheet1_0_0", "cGRm"); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDocumentRepositoryPutUpdatesWhenPresent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sheet1_0_0"))
	mock.ExpectExec("UPDATE documents SET payload").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Put("sheet1_0_0", "cGRm"); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDocumentRepositoryListIDsExcludesParamsRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id FROM documents WHERE id <>").WithArgs(paramsRecordID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("sheet1_0_0").AddRow("sheet1_2_1"))

	ids, err := repo.ListIDs()
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "sheet1_0_0" || ids[1] != "sheet1_2_1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDocumentRepositoryParamsRoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id FROM documents").WithArgs(paramsRecordID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sess := models.Session{ClientCode: "abc", SpreadsheetID: "sheet1", Language: "he"}
	if err := repo.PutParams(sess); err != nil {
		t.Fatalf("put params error: %v", err)
	}

	mock.ExpectQuery("SELECT payload FROM documents").WithArgs(paramsRecordID).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow(`{"client":"abc","shid":"sheet1","lang":"he"}`))

	got, ok := repo.GetParams()
	if !ok {
		t.Fatalf("params record not found")
	}
	if got.ClientCode != "abc" || got.SpreadsheetID != "sheet1" || got.Language != "he" {
		t.Fatalf("wrong session: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
