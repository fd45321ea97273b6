// Package repositories wraps the structured document store. Every row is
// one cached document payload keyed by its composite id, plus one reserved
// record for the session parameter backup.
package repositories

import (
	"database/sql"
	"encoding/json"
	"sync"

	intconfig "github.com/thaistayandfly/travel-itinerary/internal/config"
	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// paramsRecordID is reserved; it never corresponds to a document reference
// and is excluded from orphan cleanup.
const paramsRecordID = "session_params:v1"

type DocumentRepository struct {
	DB *sql.DB

	openOnce sync.Once
	openErr  error
}

func (r *DocumentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// EnsureSchema creates the documents table. The result is memoized for the
// process lifetime; a failure leaves document caching unavailable for the
// session but never aborts the app.
func (r *DocumentRepository) EnsureSchema() error {
	r.openOnce.Do(func() {
		db := r.db()
		if db == nil {
			r.openErr = sql.ErrConnDone
			return
		}
		_, r.openErr = db.Exec(`
			CREATE TABLE IF NOT EXISTS documents (
				id         VARCHAR(191) PRIMARY KEY,
				payload    TEXT NOT NULL,
				created_at VARCHAR(32) NOT NULL
			)`)
	})
	return r.openErr
}

// GetByID returns the stored payload for one composite key.
func (r *DocumentRepository) GetByID(id string) (string, bool, error) {
	if err := r.EnsureSchema(); err != nil {
		return "", false, err
	}
	var payload string
	err := r.db().QueryRow(`SELECT payload FROM documents WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

// Put stores or replaces one payload under its composite key.
func (r *DocumentRepository) Put(id, payload string) error {
	if err := r.EnsureSchema(); err != nil {
		return err
	}
	db := r.db()

	var existing string
	err := db.QueryRow(`SELECT id FROM documents WHERE id = ?`, id).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec(`INSERT INTO documents (id, payload, created_at) VALUES (?, ?, ?)`,
			id, payload, utils.FormatDateTime(utils.NowUTC()))
		return err
	case err != nil:
		return err
	default:
		_, err = db.Exec(`UPDATE documents SET payload = ?, created_at = ? WHERE id = ?`,
			payload, utils.FormatDateTime(utils.NowUTC()), id)
		return err
	}
}

// Delete removes one record; deleting a missing record is not an error.
func (r *DocumentRepository) Delete(id string) error {
	if err := r.EnsureSchema(); err != nil {
		return err
	}
	_, err := r.db().Exec(`DELETE FROM documents WHERE id = ?`, id)
	return err
}

// ListIDs returns every cached composite key, params backup excluded.
func (r *DocumentRepository) ListIDs() ([]string, error) {
	if err := r.EnsureSchema(); err != nil {
		return nil, err
	}
	rows, err := r.db().Query(`SELECT id FROM documents WHERE id <> ?`, paramsRecordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear wipes every record including the parameter backup.
func (r *DocumentRepository) Clear() error {
	if err := r.EnsureSchema(); err != nil {
		return err
	}
	_, err := r.db().Exec(`DELETE FROM documents`)
	return err
}

// Name makes the repository usable as a parameter backend.
func (r *DocumentRepository) Name() string { return "documents" }

// GetParams reads the reserved parameter backup record.
func (r *DocumentRepository) GetParams() (models.Session, bool) {
	payload, ok, err := r.GetByID(paramsRecordID)
	if err != nil || !ok {
		return models.Session{}, false
	}
	var s models.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return models.Session{}, false
	}
	return s, true
}

// PutParams writes the reserved parameter backup record.
func (r *DocumentRepository) PutParams(s models.Session) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Put(paramsRecordID, string(blob))
}
