package services

import "sync"

// DocIndex mirrors the composite keys present in the document store so the
// renderer can badge cached documents without a storage round trip. Every
// mutation of the store goes through here.
type DocIndex struct {
	mu  sync.RWMutex
	ids map[string]bool
}

func NewDocIndex() *DocIndex {
	return &DocIndex{ids: map[string]bool{}}
}

// Replace resets the index from a full listing.
func (d *DocIndex) Replace(ids []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = make(map[string]bool, len(ids))
	for _, id := range ids {
		d.ids[id] = true
	}
}

func (d *DocIndex) Add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids[id] = true
}

func (d *DocIndex) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.ids, id)
}

func (d *DocIndex) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ids[id]
}

// Snapshot copies the current key set for one render pass.
func (d *DocIndex) Snapshot() map[string]bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]bool, len(d.ids))
	for id := range d.ids {
		out[id] = true
	}
	return out
}

// Keys lists the cached composite keys.
func (d *DocIndex) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.ids))
	for id := range d.ids {
		out = append(out, id)
	}
	return out
}
