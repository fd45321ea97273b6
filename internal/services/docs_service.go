package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/render"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// DocsService is the document access gate: it exchanges a birth-year value
// for a base64 payload through the upstream verification endpoint and
// caches successful results for offline, unauthenticated reuse.
type DocsService struct {
	APIURL    string
	Client    *http.Client
	Docs      *repositories.DocumentRepository
	KV        *store.KV
	Index     *DocIndex
	JWTSecret []byte
	BulkDelay time.Duration
	RequestID string
}

// OpenResult carries the payload plus an access token minted after a fresh
// verification, so later requests in the session skip the prompt.
type OpenResult struct {
	Key       string `json:"key"`
	Payload   string `json:"payload"`
	FromCache bool   `json:"fromCache"`
	Token     string `json:"token,omitempty"`
}

// Open returns one document. A cached document opens directly and never
// re-prompts; otherwise the year (given directly or recovered from a
// token) is verified upstream.
func (s DocsService) Open(sess models.Session, rowIndex, docIndex int, year, token string) (OpenResult, error) {
	key := models.CompositeKey(sess.SpreadsheetID, rowIndex, docIndex)

	if payload, ok, err := s.Docs.GetByID(key); err == nil && ok {
		return OpenResult{Key: key, Payload: payload, FromCache: true}, nil
	} else if err != nil {
		utils.LogEvent(s.RequestID, "docs", "cache_read", "store degraded: "+err.Error())
	}

	year = utils.TrimOrEmpty(year)
	if year == "" && token != "" {
		if recovered, err := s.yearFromToken(token); err == nil {
			year = recovered
		}
	}
	if year == "" {
		return OpenResult{}, domain.ValidationError{Field: "year", Msg: "birth year required"}
	}

	payload, err := s.requestDocument(sess, rowIndex, docIndex, year)
	if err != nil {
		return OpenResult{}, err
	}

	s.cachePayload(key, payload)
	s.rememberYear(year)

	minted, err := s.issueToken(sess, year)
	if err != nil {
		utils.LogEvent(s.RequestID, "docs", "token", "mint failed: "+err.Error())
		minted = ""
	}

	return OpenResult{Key: key, Payload: payload, Token: minted}, nil
}

// BulkReport summarizes one download-all run.
type BulkReport struct {
	Total     int  `json:"total"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Aborted   bool `json:"aborted"`
}

// BulkProgress is the observable per-item counter for a running loop.
type BulkProgress struct {
	mu      sync.Mutex
	running bool
	done    int
	total   int
	report  BulkReport
}

// TryStart atomically claims the single bulk slot; false means a run is
// already active.
func (p *BulkProgress) TryStart() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	p.done = 0
	p.total = 0
	p.report = BulkReport{}
	return true
}

// Release frees a claimed slot when the run never reached the loop.
func (p *BulkProgress) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *BulkProgress) start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.done = 0
	p.total = total
	p.report = BulkReport{}
}

func (p *BulkProgress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
}

func (p *BulkProgress) finish(report BulkReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.report = report
}

// Status returns {running, processed, total, last report}.
func (p *BulkProgress) Status() (bool, int, int, BulkReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running, p.done, p.total, p.report
}

// DownloadAll fetches every uncached document sequentially, reusing one
// verified year, with a small delay between calls to avoid hammering the
// backend. An INVALID_YEAR result aborts the remaining loop; transient
// failures only count against the item that hit them.
func (s DocsService) DownloadAll(sess models.Session, rows []models.Row, year string, progress *BulkProgress) (BulkReport, error) {
	year = utils.TrimOrEmpty(year)
	if year == "" {
		return BulkReport{}, domain.ValidationError{Field: "year", Msg: "birth year required"}
	}
	if !s.yearMatchesMarker(year) {
		return BulkReport{}, domain.VerificationError{Code: domain.CodeInvalidYear}
	}

	var pending []models.DocumentRef
	for _, ref := range render.AllDocumentRefs(rows) {
		if s.Index != nil && s.Index.Has(ref.CompositeKey(sess.SpreadsheetID)) {
			continue
		}
		pending = append(pending, ref)
	}

	report := BulkReport{Total: len(pending)}
	if progress != nil {
		progress.start(len(pending))
		defer func() { progress.finish(report) }()
	}

	for i, ref := range pending {
		if i > 0 && s.BulkDelay > 0 {
			time.Sleep(s.BulkDelay)
		}

		payload, err := s.requestDocument(sess, ref.RowIndex, ref.DocIndex, year)
		if progress != nil {
			progress.step()
		}
		if err != nil {
			report.Failed++
			if verr, ok := domain.IsVerification(err); ok && verr.Code == domain.CodeInvalidYear {
				report.Aborted = true
				utils.LogEvent(s.RequestID, "docs", "bulk_abort",
					fmt.Sprintf("invalid year after %d successes", report.Succeeded))
				break
			}
			utils.LogEvent(s.RequestID, "docs", "bulk_item",
				fmt.Sprintf("row=%d doc=%d failed: %v", ref.RowIndex, ref.DocIndex, err))
			continue
		}

		s.cachePayload(ref.CompositeKey(sess.SpreadsheetID), payload)
		report.Succeeded++
	}

	if report.Succeeded > 0 {
		s.rememberYear(year)
	}
	return report, nil
}

// requestDocument calls the verification+retrieval endpoint once.
func (s DocsService) requestDocument(sess models.Session, rowIndex, docIndex int, year string) (string, error) {
	q := url.Values{}
	q.Set("action", "getSecurePdf")
	q.Set("spreadsheetId", sess.SpreadsheetID)
	q.Set("rowIndex", strconv.Itoa(rowIndex))
	q.Set("docIndex", strconv.Itoa(docIndex))
	q.Set("inputYear", year)
	q.Set("clientCode", sess.ClientCode)
	q.Set("format", "json")

	resp, err := s.Client.Get(s.APIURL + "?" + q.Encode())
	if err != nil {
		return "", domain.VerificationError{Code: "NETWORK_ERROR", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.VerificationError{Code: "NETWORK_ERROR", Err: err}
	}

	var result models.SecureDocResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", domain.VerificationError{Code: "NETWORK_ERROR", Err: err}
	}
	if !result.Success {
		code := utils.TrimOrEmpty(result.Error)
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return "", domain.VerificationError{Code: code}
	}
	if result.Data == "" {
		return "", domain.VerificationError{Code: domain.CodeNotFound}
	}
	return result.Data, nil
}

func (s DocsService) cachePayload(key, payload string) {
	if err := s.Docs.Put(key, payload); err != nil {
		utils.LogEvent(s.RequestID, "docs", "cache_write", key+": "+err.Error())
		return
	}
	if s.Index != nil {
		s.Index.Add(key)
	}
}

// rememberYear stores a bcrypt hash of the successfully verified year; the
// plaintext never lands on disk.
func (s DocsService) rememberYear(year string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(year), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	if err := s.KV.Put(store.KeyVerifiedYear, string(hash)); err != nil {
		utils.LogEvent(s.RequestID, "docs", "marker_write", err.Error())
	}
}

// yearMatchesMarker pre-checks a year against the stored marker so a bulk
// run with a wrong year fails before its first upstream call. No marker
// means no opinion.
func (s DocsService) yearMatchesMarker(year string) bool {
	var hash string
	if !s.KV.Get(store.KeyVerifiedYear, &hash) || hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(year)) == nil
}

func (s DocsService) issueToken(sess models.Session, year string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"shid": sess.SpreadsheetID,
		"year": year,
		"exp":  time.Now().Add(12 * time.Hour).Unix(),
	})
	return token.SignedString(s.JWTSecret)
}

func (s DocsService) yearFromToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid access token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	year, _ := claims["year"].(string)
	if year == "" {
		return "", fmt.Errorf("token carries no year")
	}
	return year, nil
}
