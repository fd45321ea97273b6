package services

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phpdave11/gofpdf"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
)

func fixturePDF(t *testing.T, pages int) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, "Booking confirmation")
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func viewerWithPayload(t *testing.T, key, payload string, reads int) ViewerService {
	t.Helper()
	repo, mock := newDocsRepo(t)
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < reads; i++ {
		mock.ExpectQuery("SELECT payload FROM documents").WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))
	}
	return ViewerService{Docs: repo, RequestID: "req-1"}
}

func TestViewerInfoReportsPageCount(t *testing.T) {
	payload := fixturePDF(t, 2)
	svc := viewerWithPayload(t, "sheet1_0_0", payload, 1)

	info, err := svc.Info("sheet1_0_0")
	if err != nil {
		t.Fatalf("info error: %v", err)
	}
	if info.PageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", info.PageCount)
	}
	if info.Bytes == 0 {
		t.Fatalf("decoded size missing")
	}
}

func TestViewerPageOutOfRange(t *testing.T) {
	payload := fixturePDF(t, 1)
	svc := viewerWithPayload(t, "sheet1_0_0", payload, 2)

	if _, err := svc.Page("sheet1_0_0", 0); !domain.IsValidation(err) {
		t.Fatalf("page 0 must be out of range, got %v", err)
	}
	if _, err := svc.Page("sheet1_0_0", 2); !domain.IsValidation(err) {
		t.Fatalf("page past the end must be out of range, got %v", err)
	}
}

func TestViewerPageInRange(t *testing.T) {
	payload := fixturePDF(t, 2)
	svc := viewerWithPayload(t, "sheet1_0_0", payload, 1)

	view, err := svc.Page("sheet1_0_0", 2)
	if err != nil {
		t.Fatalf("page error: %v", err)
	}
	if view.Page != 2 || view.PageCount != 2 {
		t.Fatalf("unexpected page view: %+v", view)
	}
}

func TestViewerMissingDocument(t *testing.T) {
	repo, mock := newDocsRepo(t)
	mock.ExpectQuery("SELECT payload FROM documents").WithArgs("sheet1_9_9").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	svc := ViewerService{Docs: repo, RequestID: "req-1"}
	if _, err := svc.Info("sheet1_9_9"); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestViewerRejectsBadBase64(t *testing.T) {
	svc := viewerWithPayload(t, "sheet1_0_0", "%%%not-base64%%%", 1)
	if _, err := svc.Info("sheet1_0_0"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestViewerBytesRoundTrip(t *testing.T) {
	payload := fixturePDF(t, 1)
	svc := viewerWithPayload(t, "sheet1_0_0", payload, 1)

	raw, err := svc.Bytes("sheet1_0_0")
	if err != nil {
		t.Fatalf("bytes error: %v", err)
	}
	decoded, _ := base64.StdEncoding.DecodeString(payload)
	if !bytes.Equal(raw, decoded) {
		t.Fatalf("decoded bytes differ from stored payload")
	}
}
