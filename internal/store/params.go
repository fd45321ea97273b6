package store

import (
	"encoding/json"
	"sync"

	"github.com/thaistayandfly/travel-itinerary/internal/domain/models"
	"github.com/thaistayandfly/travel-itinerary/internal/utils"
)

// paramsEntryPath is the synthetic request path of the response-cache copy.
const paramsEntryPath = "/internal/session-params"

// ParamBackend is one durability home for the session identity. All copies
// are equivalent; whichever backend answers first is authoritative.
type ParamBackend interface {
	Name() string
	GetParams() (models.Session, bool)
	PutParams(models.Session) error
}

// Params iterates backends in a fixed precedence order: first found wins on
// read, and writes fan out to every backend best-effort.
type Params struct {
	Backends []ParamBackend
}

// Recover returns the first persisted session found, and the backend that
// held it.
func (p Params) Recover() (models.Session, string, bool) {
	for _, b := range p.Backends {
		if s, ok := b.GetParams(); ok && s.Complete() {
			return s, b.Name(), true
		}
	}
	return models.Session{}, "", false
}

// FanOut writes the session to every backend. Individual failures are
// logged and swallowed; params durability is best-effort by design.
func (p Params) FanOut(requestID string, s models.Session) {
	for _, b := range p.Backends {
		if err := b.PutParams(s); err != nil {
			utils.LogEvent(requestID, "params", "fanout", b.Name()+" write failed: "+err.Error())
		}
	}
}

// --- response-cache backend ---

type respCacheParams struct {
	rc *ResponseCache
}

// RespCacheParams stores the identity as a synthetic cached response in the
// preserved parameter bucket.
func RespCacheParams(rc *ResponseCache) ParamBackend {
	return &respCacheParams{rc: rc}
}

func (b *respCacheParams) Name() string { return "respcache" }

func (b *respCacheParams) GetParams() (models.Session, bool) {
	e, ok := b.rc.Get(ParamsBucket, paramsEntryPath)
	if !ok {
		return models.Session{}, false
	}
	var s models.Session
	if err := json.Unmarshal(e.Body, &s); err != nil {
		return models.Session{}, false
	}
	return s, true
}

func (b *respCacheParams) PutParams(s models.Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return b.rc.Put(ParamsBucket, paramsEntryPath, Entry{
		Status:      200,
		Body:        body,
		ContentType: "application/json",
	})
}

// --- key-value backend ---

type kvParams struct {
	kv *KV
}

func KVParams(kv *KV) ParamBackend {
	return &kvParams{kv: kv}
}

func (b *kvParams) Name() string { return "kv" }

func (b *kvParams) GetParams() (models.Session, bool) {
	var s models.Session
	if !b.kv.Get(KeyParams, &s) {
		return models.Session{}, false
	}
	return s, true
}

func (b *kvParams) PutParams(s models.Session) error {
	return b.kv.Put(KeyParams, s)
}

// --- in-process backend (session-scoped store analog) ---

type memoryParams struct {
	mu sync.RWMutex
	s  models.Session
	ok bool
}

// MemoryParams lives for the process only, the last-resort tier.
func MemoryParams() ParamBackend {
	return &memoryParams{}
}

func (b *memoryParams) Name() string { return "memory" }

func (b *memoryParams) GetParams() (models.Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.s, b.ok
}

func (b *memoryParams) PutParams(s models.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.s, b.ok = s, true
	return nil
}
