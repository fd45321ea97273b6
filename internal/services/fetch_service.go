package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	"github.com/thaistayandfly/travel-itinerary/internal/domain"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/render"
	"github.com/thaistayandfly/travel-itinerary/internal/repositories"
	"github.com/thaistayandfly/travel-itinerary/internal/store"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// FetchService populates {rows, translations, cityMap} for a session,
// preferring fresh upstream data and falling back to the snapshot.
type FetchService struct {
	APIURL    string
	Client    *http.Client
	KV        *store.KV
	Docs      *repositories.DocumentRepository
	Index     *DocIndex
	RequestID string
}

// FetchResult is the loaded itinerary plus its provenance.
type FetchResult struct {
	Rows         []models.Row
	Translations map[string]string
	CityMap      map[string]map[string]string
	Offline      bool
}

// Load runs the online path unless the caller declared the device offline.
// Any online failure falls back to the latest snapshot; only true data
// unavailability escapes as an error.
func (s FetchService) Load(sess models.Session, declaredOffline bool) (FetchResult, error) {
	if declaredOffline {
		result, ok := s.loadSnapshot()
		if !ok {
			return FetchResult{}, domain.UnavailableError{
				Msg: "no cached data available, connect to the internet",
			}
		}
		s.reconcileDocuments(sess, result.Rows)
		return result, nil
	}

	payload, err := s.fetchUpstream(sess)
	if err != nil {
		utils.LogEvent(s.RequestID, "fetch", "upstream", "falling back to snapshot: "+err.Error())
		result, ok := s.loadSnapshot()
		if !ok {
			return FetchResult{}, domain.UnavailableError{Msg: "itinerary unavailable", Err: err}
		}
		s.reconcileDocuments(sess, result.Rows)
		return result, nil
	}

	snapshot := models.Snapshot{
		Timestamp:    utils.NowUTC(),
		Rows:         payload.Data,
		Translations: payload.Translations,
		CityMap:      payload.CityMap,
		Version:      intconfig.SnapshotVersion,
	}
	if err := s.KV.Put(store.KeySnapshot, snapshot); err != nil {
		utils.LogEvent(s.RequestID, "fetch", "snapshot_write", err.Error())
	}

	s.reconcileDocuments(sess, payload.Data)

	return FetchResult{
		Rows:         payload.Data,
		Translations: payload.Translations,
		CityMap:      payload.CityMap,
	}, nil
}

// fetchUpstream issues one cache-busted request. A non-2xx status and an
// application-level error field fail the attempt the same way.
func (s FetchService) fetchUpstream(sess models.Session) (models.ItineraryPayload, error) {
	var payload models.ItineraryPayload

	q := url.Values{}
	q.Set("client", sess.ClientCode)
	q.Set("shid", sess.SpreadsheetID)
	q.Set("lang", sess.Language)
	q.Set("format", "json")
	q.Set("nocache", uuid.NewString())

	resp, err := s.Client.Get(s.APIURL + "?" + q.Encode())
	if err != nil {
		return payload, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return payload, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, fmt.Errorf("upstream body: %w", err)
	}
	if payload.Error != "" {
		return payload, fmt.Errorf("upstream error: %s", payload.Error)
	}
	return payload, nil
}

// loadSnapshot reads the offline copy. A version-tag mismatch is treated
// exactly like no snapshot: discarded, never migrated.
func (s FetchService) loadSnapshot() (FetchResult, bool) {
	var snapshot models.Snapshot
	if !s.KV.Get(store.KeySnapshot, &snapshot) {
		return FetchResult{}, false
	}
	if snapshot.Version != intconfig.SnapshotVersion {
		utils.LogEvent(s.RequestID, "fetch", "snapshot_version",
			"discarding snapshot version "+snapshot.Version)
		if err := s.KV.Delete(store.KeySnapshot); err != nil {
			utils.LogEvent(s.RequestID, "fetch", "snapshot_delete", err.Error())
		}
		return FetchResult{}, false
	}
	return FetchResult{
		Rows:         snapshot.Rows,
		Translations: snapshot.Translations,
		CityMap:      snapshot.CityMap,
		Offline:      true,
	}, true
}

// reconcileDocuments deletes cached documents whose composite key no
// longer appears in the row set. Storage failures here are soft.
func (s FetchService) reconcileDocuments(sess models.Session, rows []models.Row) {
	if s.Docs == nil {
		return
	}

	live := map[string]bool{}
	for _, ref := range render.AllDocumentRefs(rows) {
		live[ref.CompositeKey(sess.SpreadsheetID)] = true
	}

	ids, err := s.Docs.ListIDs()
	if err != nil {
		utils.LogEvent(s.RequestID, "fetch", "orphan_list", "document store degraded: "+err.Error())
		return
	}

	kept := ids[:0]
	for _, id := range ids {
		if live[id] {
			kept = append(kept, id)
			continue
		}
		if err := s.Docs.Delete(id); err != nil {
			utils.LogEvent(s.RequestID, "fetch", "orphan_delete", id+": "+err.Error())
			kept = append(kept, id)
			continue
		}
		utils.LogEvent(s.RequestID, "fetch", "orphan_delete", id)
	}

	if s.Index != nil {
		s.Index.Replace(kept)
	}
}
