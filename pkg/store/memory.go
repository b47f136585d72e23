package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 256

// Memory is an in-process Store for tests and single-node development
type Memory struct {
	mu   sync.Mutex
	docs map[string]*Document
	subs map[*memorySubscriber]bool
}

type memorySubscriber struct {
	prefix string
	events chan Event
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]*Document),
		subs: make(map[*memorySubscriber]bool),
	}
}

// Get returns the document at key, or ErrNotFound
func (m *Memory) Get(ctx context.Context, key string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}

	return copyDocument(doc), nil
}

// Put writes value at key with compare-and-swap semantics on version
func (m *Memory) Put(ctx context.Context, key string, value json.RawMessage, version int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.docs[key]
	if version == 0 {
		if ok {
			return 0, ErrVersionConflict
		}
	} else {
		if !ok {
			return 0, ErrNotFound
		}

		if existing.Version != version {
			return 0, ErrVersionConflict
		}
	}

	doc := &Document{
		Key:     key,
		Value:   append(json.RawMessage(nil), value...),
		Version: version + 1,
	}
	m.docs[key] = doc

	for sub := range m.subs {
		if !strings.HasPrefix(key, sub.prefix) {
			continue
		}

		select {
		case sub.events <- Event{Key: doc.Key, Value: doc.Value, Version: doc.Version}:
		default:
			logrus.WithField("key", key).Warn("dropping event for slow subscriber")
		}
	}

	return doc.Version, nil
}

// List returns all documents under prefix, ordered by key
func (m *Memory) List(ctx context.Context, prefix string) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]*Document, 0)
	for key, doc := range m.docs {
		if strings.HasPrefix(key, prefix) {
			docs = append(docs, copyDocument(doc))
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Key < docs[j].Key
	})

	return docs, nil
}

// Subscribe streams change events under prefix until ctx is canceled
func (m *Memory) Subscribe(ctx context.Context, prefix string) (<-chan Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &memorySubscriber{
		prefix: prefix,
		events: make(chan Event, subscriberBuffer),
	}

	m.mu.Lock()
	m.subs[sub] = true
	m.mu.Unlock()

	go func() {
		<-ctx.Done()

		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()

		close(sub.events)
	}()

	return sub.events, nil
}

func copyDocument(doc *Document) *Document {
	return &Document{
		Key:     doc.Key,
		Value:   append(json.RawMessage(nil), doc.Value...),
		Version: doc.Version,
	}
}
