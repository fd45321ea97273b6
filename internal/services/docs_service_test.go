package services

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jarcoal/httpmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
)

func newDocsService(t *testing.T, client *http.Client, repo *repositories.DocumentRepository) DocsService {
	t.Helper()
	return DocsService{
		APIURL:    testAPIURL,
		Client:    client,
		Docs:      repo,
		KV:        store.OpenKV(t.TempDir()),
		Index:     NewDocIndex(),
		JWTSecret: []byte("test-secret"),
		RequestID: "req-1",
	}
}

func newDocsRepo(t *testing.T) (*repositories.DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").
		WillReturnResult(sqlmock.NewResult(0, 0))
	return &repositories.DocumentRepository{DB: db}, mock
}

func TestOpenCachedDocumentSkipsVerification(t *testing.T) {
	// no responders registered: any upstream call fails the test
	client, _ := mockClient(t)
	repo, mock := newDocsRepo(t)

	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow("cGRm"))

	svc := newDocsService(t, client, repo)
	result, err := svc.Open(testSession(), 0, 0, "", "")
	if err != nil {
		t.Fatalf("cached open error: %v", err)
	}
	if !result.FromCache || result.Payload != "cGRm" {
		t.Fatalf("cached document not served directly: %+v", result)
	}
	if result.Token != "" {
		t.Fatalf("cached open must not mint a token")
	}
}

func TestOpenWithoutYearOrToken(t *testing.T) {
	client, _ := mockClient(t)
	repo, mock := newDocsRepo(t)

	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	svc := newDocsService(t, client, repo)
	if _, err := svc.Open(testSession(), 0, 0, "", ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpenVerifiesCachesAndMintsToken(t *testing.T) {
	client, transport := mockClient(t)
	transport.RegisterResponder("GET", `=~^https://api\.example/exec`,
		httpmock.NewStringResponder(200, `{"success":true,"data":"cGRm"}`))

	repo, mock := newDocsRepo(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := newDocsService(t, client, repo)
	result, err := svc.Open(testSession(), 0, 0, "1990", "")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if result.FromCache {
		t.Fatalf("fresh verification reported as cached")
	}
	if result.Payload != "cGRm" {
		t.Fatalf("payload lost: %+v", result)
	}
	if result.Token == "" {
		t.Fatalf("successful verification must mint a token")
	}
	if !svc.Index.Has("sheet1_0_0") {
		t.Fatalf("cached document not added to index")
	}

	var marker string
	if !svc.KV.Get(store.KeyVerifiedYear, &marker) || marker == "" {
		t.Fatalf("verified-year marker not stored")
	}
	if bcrypt.CompareHashAndPassword([]byte(marker), []byte("1990")) != nil {
		t.Fatalf("marker does not match the verified year")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenTokenSubstitutesForYear(t *testing.T) {
	client, transport := mockClient(t)
	transport.RegisterResponder("GET", `=~^https://api\.example/exec`,
		httpmock.NewStringResponder(200, `{"success":true,"data":"cGRm"}`))

	repo, mock := newDocsRepo(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := newDocsService(t, client, repo)
	token, err := svc.issueToken(testSession(), "1990")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := svc.Open(testSession(), 0, 1, "", token); err != nil {
		t.Fatalf("token-based open error: %v", err)
	}
}

func TestOpenRecognizedCodeMapping(t *testing.T) {
	client, transport := mockClient(t)
	transport.RegisterResponder("GET", `=~^https://api\.example/exec`,
		httpmock.NewStringResponder(200, `{"success":false,"error":"INVALID_YEAR"}`))

	repo, mock := newDocsRepo(t)
	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	svc := newDocsService(t, client, repo)
	_, err := svc.Open(testSession(), 0, 0, "1985", "")

	verr, ok := domain.IsVerification(err)
	if !ok {
		t.Fatalf("expected verification error, got %v", err)
	}
	if verr.Code != domain.CodeInvalidYear || !verr.Recognized() {
		t.Fatalf("code not recognized: %+v", verr)
	}
	if verr.MessageKey() != "errInvalidYear" {
		t.Fatalf("wrong message key %q", verr.MessageKey())
	}
}

func TestDownloadAllAbortsOnInvalidYear(t *testing.T) {
	calls := 0
	client, transport := mockClient(t)
	transport.RegisterResponder("GET", `=~^https://api\.example/exec`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(200, `{"success":true,"data":"cGRm"}`), nil
			}
			return httpmock.NewStringResponse(200, `{"success":false,"error":"INVALID_YEAR"}`), nil
		})

	repo, mock := newDocsRepo(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := newDocsService(t, client, repo)
	rows := []models.Row{{Index: 0, Documents: "Ticket, Voucher, Insurance"}}

	report, err := svc.DownloadAll(testSession(), rows, "1990", nil)
	if err != nil {
		t.Fatalf("bulk error: %v", err)
	}
	if report.Total != 3 || report.Succeeded != 1 || report.Failed != 1 || !report.Aborted {
		t.Fatalf("unexpected report: %+v", report)
	}
	if calls != 2 {
		t.Fatalf("remaining documents must not be attempted after abort, calls=%d", calls)
	}
}

func TestDownloadAllTransientFailureContinues(t *testing.T) {
	calls := 0
	client, transport := mockClient(t)
	transport.RegisterResponder("GET", `=~^https://api\.example/exec`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(500, "boom"), nil
			}
			return httpmock.NewStringResponse(200, `{"success":true,"data":"cGRm"}`), nil
		})

	repo, mock := newDocsRepo(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT id FROM documents").WithArgs("sheet1_0_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := newDocsService(t, client, repo)
	rows := []models.Row{{Index: 0, Documents: "Ticket, Voucher"}}

	report, err := svc.DownloadAll(testSession(), rows, "1990", nil)
	if err != nil {
		t.Fatalf("bulk error: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 || report.Aborted {
		t.Fatalf("transient failure must not abort: %+v", report)
	}
}

func TestDownloadAllSkipsAlreadyCached(t *testing.T) {
	client, _ := mockClient(t)
	repo, _ := newDocsRepo(t)

	svc := newDocsService(t, client, repo)
	svc.Index.Add("sheet1_0_0")

	rows := []models.Row{{Index: 0, Documents: "Ticket"}}
	report, err := svc.DownloadAll(testSession(), rows, "1990", nil)
	if err != nil {
		t.Fatalf("bulk error: %v", err)
	}
	if report.Total != 0 {
		t.Fatalf("cached documents must not be pending: %+v", report)
	}
}

func TestBulkProgressSingleFlight(t *testing.T) {
	progress := &BulkProgress{}

	if !progress.TryStart() {
		t.Fatalf("idle slot must be claimable")
	}
	if progress.TryStart() {
		t.Fatalf("second claim must fail while a run is active")
	}

	progress.Release()
	if !progress.TryStart() {
		t.Fatalf("released slot must be claimable again")
	}
}

func TestBulkProgressConcurrentClaims(t *testing.T) {
	progress := &BulkProgress{}

	const attempts = 16
	var wg sync.WaitGroup
	var claimed int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if progress.TryStart() {
				atomic.AddInt32(&claimed, 1)
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Fatalf("exactly one concurrent claim must win, got %d", claimed)
	}
}

func TestDownloadAllFinishReleasesSlot(t *testing.T) {
	client, _ := mockClient(t)
	repo, _ := newDocsRepo(t)

	svc := newDocsService(t, client, repo)
	svc.Index.Add("sheet1_0_0")

	progress := &BulkProgress{}
	if !progress.TryStart() {
		t.Fatalf("claim failed")
	}

	rows := []models.Row{{Index: 0, Documents: "Ticket"}}
	if _, err := svc.DownloadAll(testSession(), rows, "1990", progress); err != nil {
		t.Fatalf("bulk error: %v", err)
	}

	if running, _, _, _ := progress.Status(); running {
		t.Fatalf("completed run must release the slot")
	}
	if !progress.TryStart() {
		t.Fatalf("slot must be claimable after the run finished")
	}
}

func TestDownloadAllPrecheckRejectsMismatchedYear(t *testing.T) {
	client, _ := mockClient(t)
	repo, _ := newDocsRepo(t)

	svc := newDocsService(t, client, repo)
	hash, err := bcrypt.GenerateFromPassword([]byte("1990"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := svc.KV.Put(store.KeyVerifiedYear, string(hash)); err != nil {
		t.Fatalf("seed marker: %v", err)
	}

	rows := []models.Row{{Index: 0, Documents: "Ticket"}}
	_, err = svc.DownloadAll(testSession(), rows, "1985", nil)
	verr, ok := domain.IsVerification(err)
	if !ok || verr.Code != domain.CodeInvalidYear {
		t.Fatalf("marker mismatch must fail before any upstream call, got %v", err)
	}
}
