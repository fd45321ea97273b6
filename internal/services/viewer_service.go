package services

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// ViewerService paginates a cached document. One page per call: renders
// are sequenced by construction, never overlapped.
type ViewerService struct {
	Docs      *repositories.DocumentRepository
	RequestID string
}

// DocumentInfo describes a cached document for the viewer chrome.
type DocumentInfo struct {
	Key       string `json:"key"`
	PageCount int    `json:"pageCount"`
	Bytes     int    `json:"bytes"`
}

// PageView is one extracted page.
type PageView struct {
	Page      int    `json:"page"`
	PageCount int    `json:"pageCount"`
	Text      string `json:"text"`
}

// Info opens the cached payload and reports its page count.
func (s ViewerService) Info(key string) (DocumentInfo, error) {
	raw, reader, err := s.open(key)
	if err != nil {
		return DocumentInfo{}, err
	}
	return DocumentInfo{Key: key, PageCount: reader.NumPage(), Bytes: len(raw)}, nil
}

// Page extracts one page. Out-of-range pages are a validation error, so
// the viewer can clamp navigation without tearing down.
func (s ViewerService) Page(key string, page int) (PageView, error) {
	_, reader, err := s.open(key)
	if err != nil {
		return PageView{}, err
	}

	count := reader.NumPage()
	if page < 1 || page > count {
		return PageView{}, domain.ValidationError{Field: "page", Msg: "page out of range"}
	}

	p := reader.Page(page)
	if p.V.IsNull() {
		return PageView{Page: page, PageCount: count}, nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		utils.LogEvent(s.RequestID, "viewer", "extract", err.Error())
		return PageView{Page: page, PageCount: count}, nil
	}

	return PageView{Page: page, PageCount: count, Text: strings.TrimSpace(text)}, nil
}

// Bytes returns the decoded document for direct download.
func (s ViewerService) Bytes(key string) ([]byte, error) {
	raw, _, err := s.open(key)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// open loads and decodes one cached payload. Decode or parse failure is a
// single user-visible error; the caller tears the viewer down.
func (s ViewerService) open(key string) ([]byte, *pdf.Reader, error) {
	payload, ok, err := s.Docs.GetByID(key)
	if err != nil {
		return nil, nil, domain.UnavailableError{Msg: "document store unavailable", Err: err}
	}
	if !ok {
		return nil, nil, domain.NotFoundError{Resource: "document"}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, nil, domain.ValidationError{Field: "payload", Msg: "document payload is not valid base64", Err: err}
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, nil, domain.ValidationError{Field: "payload", Msg: "document is not a readable PDF", Err: err}
	}
	return raw, reader, nil
}
