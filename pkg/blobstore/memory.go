package blobstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

// CopyRecord is one StartCopy seen by a MemoryStore.
type CopyRecord struct {
	Src string
	Dst string
}

type memCopy struct {
	data    []byte
	pending int
	state   CopyState
}

// MemoryStore is an in-process Store for tests and dry runs.
type MemoryStore struct {
	// PendingPolls is how many CopyStatus calls report pending before a
	// copy lands.
	PendingPolls int
	// CopyOutcome, when set, is the terminal state copies settle in.
	CopyOutcome CopyState

	mu      sync.Mutex
	objects map[string]memObject
	copies  map[string]*memCopy
	log     []CopyRecord
	deleted []string
}

type memObject struct {
	data     []byte
	modified time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memObject{}, copies: map[string]*memCopy{}}
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(o.data)), Modified: o.modified})
		}
	}
	return sortInfos(out), nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, notFound("memory", "get", key)
	}
	return append([]byte(nil), o.data...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: append([]byte(nil), data...), modified: time.Now()}
	return nil
}

func (m *MemoryStore) StartCopy(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[src]
	if !ok {
		return notFound("memory", "copy", src)
	}
	m.log = append(m.log, CopyRecord{Src: src, Dst: dst})
	c := &memCopy{data: append([]byte(nil), o.data...), pending: m.PendingPolls, state: CopyPending}
	m.copies[dst] = c
	m.settle(dst, c)
	return nil
}

// settle lands a copy once it has no pending polls left.
func (m *MemoryStore) settle(dst string, c *memCopy) {
	if c.state != CopyPending || c.pending > 0 {
		return
	}
	c.state = CopySuccess
	if m.CopyOutcome != "" {
		c.state = m.CopyOutcome
	}
	if c.state == CopySuccess {
		m.objects[dst] = memObject{data: c.data, modified: time.Now()}
	}
}

func (m *MemoryStore) CopyStatus(ctx context.Context, key string) (CopyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.copies[key]
	if !ok {
		if _, exists := m.objects[key]; exists {
			return CopySuccess, nil
		}
		return "", notFound("memory", "copy-status", key)
	}
	if c.state == CopyPending {
		c.pending--
		m.settle(key, c)
		if c.state == CopyPending {
			return CopyPending, nil
		}
	}
	return c.state, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return notFound("memory", "delete", key)
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Copies returns every StartCopy call in order.
func (m *MemoryStore) Copies() []CopyRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CopyRecord(nil), m.log...)
}

// Deleted returns every deleted key in order.
func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Keys returns every stored key under prefix, sorted.
func (m *MemoryStore) Keys(prefix string) []string {
	infos, _ := m.List(context.Background(), prefix)
	out := make([]string, len(infos))
	for i, o := range infos {
		out[i] = o.Key
	}
	return out
}
