package repository

import (
	"context"
	"sync"
)

// Collection names one persisted document.
type Collection string

// The four documents that make up the school records.
const (
	CollectionTeachers   Collection = "teachers"
	CollectionStudents   Collection = "students"
	CollectionClasses    Collection = "classes"
	CollectionActivities Collection = "activities"
)

// CollectionSequences holds the highest id ever handed out per collection,
// so ids deleted before a restart are not reissued.
const CollectionSequences Collection = "sequences"

// Collections lists every record document in persist order.
var Collections = []Collection{CollectionTeachers, CollectionStudents, CollectionClasses, CollectionActivities}

// Sink stores whole-collection JSON documents. Load returns (nil, nil) when
// the document does not exist yet.
type Sink interface {
	Load(ctx context.Context, collection Collection) ([]byte, error)
	Save(ctx context.Context, collection Collection, payload []byte) error
}

// MemorySink keeps documents in process memory.
type MemorySink struct {
	mu   sync.Mutex
	docs map[Collection][]byte
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{docs: make(map[Collection][]byte)}
}

// Load returns a copy of the stored document.
func (m *MemorySink) Load(ctx context.Context, collection Collection) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), doc...), nil
}

// Save replaces the stored document.
func (m *MemorySink) Save(ctx context.Context, collection Collection, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append([]byte(nil), payload...)
	return nil
}
