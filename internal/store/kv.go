// Package store holds the local persistence tiers: a key-value store for
// JSON blobs, a response cache for shell assets, and the ranked parameter
// backends that back up the session identity.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Logical keys of the key-value tier.
const (
	KeySnapshot         = "itinerary_cache"
	KeyParams           = "session_params"
	KeyVerifiedYear     = "verified_year"
	KeyInstallDismissed = "install_dismissed"
)

// KV is the key-value tier: one JSON blob per logical key, overwrite
// semantics, persisted to a single file after every write.
type KV struct {
	path string
	c    *gocache.Cache
	mu   sync.Mutex
}

// OpenKV loads the persisted key-value file when present. A corrupt or
// missing file starts the tier empty; the failure is soft.
func OpenKV(dataDir string) *KV {
	kv := &KV{
		path: filepath.Join(dataDir, "kv.gob"),
		c:    gocache.New(gocache.NoExpiration, 0),
	}
	if err := kv.c.LoadFile(kv.path); err != nil && !os.IsNotExist(err) {
		// start empty, the file is rewritten on the next Put
		kv.c.Flush()
	}
	return kv
}

// Get unmarshals the blob stored under key into dst.
func (k *KV) Get(key string, dst any) bool {
	v, ok := k.c.Get(key)
	if !ok {
		return false
	}
	blob, ok := v.([]byte)
	if !ok {
		return false
	}
	return json.Unmarshal(blob, dst) == nil
}

// Put overwrites the blob under key and persists the tier.
func (k *KV) Put(key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	k.c.Set(key, blob, gocache.NoExpiration)
	return k.persist()
}

// Delete removes one key and persists the tier.
func (k *KV) Delete(key string) error {
	k.c.Delete(key)
	return k.persist()
}

// Clear wipes every key and removes the backing file.
func (k *KV) Clear() error {
	k.c.Flush()
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (k *KV) persist() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(k.path), 0o755); err != nil {
		return err
	}
	return k.c.SaveFile(k.path)
}
