package store

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParamsBucket survives shell-version cleanup; it is the durability backup
// for the session identity, not part of any app version.
const ParamsBucket = "param-backup"

// Entry is one cached response addressed by a synthetic request path.
type Entry struct {
	Status      int               `json:"status"`
	Header      map[string]string `json:"header,omitempty"`
	Body        []byte            `json:"body"`
	StoredAt    time.Time         `json:"storedAt"`
	SourceURL   string            `json:"sourceUrl,omitempty"`
	ContentType string            `json:"contentType,omitempty"`
}

// ResponseCache is the response-cache tier: named buckets of entries on
// disk, one file per entry.
type ResponseCache struct {
	root string
}

func OpenResponseCache(dataDir string) *ResponseCache {
	return &ResponseCache{root: filepath.Join(dataDir, "respcache")}
}

// Get loads the entry stored under (bucket, path).
func (rc *ResponseCache) Get(bucket, path string) (Entry, bool) {
	blob, err := os.ReadFile(rc.entryFile(bucket, path))
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(blob, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

// Put overwrites the entry under (bucket, path).
func (rc *ResponseCache) Put(bucket, path string, e Entry) error {
	if e.StoredAt.IsZero() {
		e.StoredAt = time.Now().UTC()
	}
	blob, err := json.Marshal(e)
	if err != nil {
		return err
	}
	file := rc.entryFile(bucket, path)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, blob, 0o644)
}

// Delete removes one entry; missing entries are not an error.
func (rc *ResponseCache) Delete(bucket, path string) error {
	if err := os.Remove(rc.entryFile(bucket, path)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Buckets lists the bucket names present on disk.
func (rc *ResponseCache) Buckets() []string {
	dirs, err := os.ReadDir(rc.root)
	if err != nil {
		return nil
	}
	var names []string
	for _, d := range dirs {
		if d.IsDir() {
			names = append(names, d.Name())
		}
	}
	return names
}

// DeleteBucket removes a bucket and everything in it.
func (rc *ResponseCache) DeleteBucket(bucket string) error {
	return os.RemoveAll(filepath.Join(rc.root, sanitizeBucket(bucket)))
}

// Activate deletes every bucket except the current shell bucket and the
// parameter backup, mirroring a service worker's activation sweep.
func (rc *ResponseCache) Activate(currentShell string) {
	for _, name := range rc.Buckets() {
		if name == sanitizeBucket(currentShell) || name == ParamsBucket {
			continue
		}
		_ = rc.DeleteBucket(name)
	}
}

// Clear wipes all buckets, the parameter backup included. Used only by the
// explicit cache-clear operation.
func (rc *ResponseCache) Clear() error {
	return os.RemoveAll(rc.root)
}

func (rc *ResponseCache) entryFile(bucket, path string) string {
	sum := sha1.Sum([]byte(path))
	return filepath.Join(rc.root, sanitizeBucket(bucket), hex.EncodeToString(sum[:])+".json")
}

func sanitizeBucket(name string) string {
	name = strings.TrimSpace(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
