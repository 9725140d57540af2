package facts

import (
	"cmp"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Well-known collections read by the scoring context.
const (
	JobGroupInfoCollection   = "job_group_info"
	LocalDiagnosisCollection = "local_diagnosis"
	CityStatsCollection      = "city_stats"
	TranslationsCollection   = "translations"
)

// Document is a single record of a collection, as decoded from the dataset.
type Document map[string]any

// Query selects documents whose fields are equal to every value of the query.
// An empty query matches every document.
type Query map[string]any

// Match reports whether the document satisfies the query.
// Values are compared by their printed form so that an int in the query matches
// the same number decoded from YAML.
func (q Query) Match(d Document) bool {
	for field, want := range q {
		got, found := d[field]
		if !found || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Store is the read-only access to externally supplied collections.
// The engine never issues paginated or transactional queries: for the duration of one
// request the store is considered a consistent snapshot.
type Store interface {
	// GetDocument returns the document stored under key, and whether it exists.
	GetDocument(collection, key string) (Document, bool, error)
	// Find lazily yields every document of the collection matching the query.
	Find(collection string, q Query) iter.Seq2[Document, error]
	// FindSorted is Find ordered by sortKey; a "-" prefix sorts descending.
	FindSorted(collection string, q Query, sortKey string) iter.Seq2[Document, error]
}

// MemoryStore is a Store backed by in-memory collections.
// It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	// order keeps insertion order per collection so Find is deterministic.
	order map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		order:       make(map[string][]string),
	}
}

// Put inserts or replaces a document.
func (s *MemoryStore) Put(collection, key string, doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, found := s.collections[collection]
	if !found {
		docs = make(map[string]Document)
		s.collections[collection] = docs
	}
	if _, exists := docs[key]; !exists {
		s.order[collection] = append(s.order[collection], key)
	}
	docs[key] = doc
}

// GetDocument implements Store.
func (s *MemoryStore) GetDocument(collection, key string) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, found := s.collections[collection][key]
	return doc, found, nil
}

// Find implements Store. The collection is walked once, under a read lock taken per
// document so a slow consumer never blocks writers for the whole iteration.
func (s *MemoryStore) Find(collection string, q Query) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		s.mu.RLock()
		keys := slices.Clone(s.order[collection])
		s.mu.RUnlock()

		for _, key := range keys {
			s.mu.RLock()
			doc, found := s.collections[collection][key]
			s.mu.RUnlock()
			if !found || !q.Match(doc) {
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// FindSorted implements Store. Sorting needs the full match set, so the matches
// (and only them) are collected before being yielded.
func (s *MemoryStore) FindSorted(collection string, q Query, sortKey string) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		field, descending := strings.CutPrefix(sortKey, "-")

		var matches []Document
		for doc, err := range s.Find(collection, q) {
			if err != nil {
				yield(nil, err)
				return
			}
			matches = append(matches, doc)
		}

		slices.SortStableFunc(matches, func(a, b Document) int {
			c := compareValues(a[field], b[field])
			if descending {
				return -c
			}
			return c
		})

		for _, doc := range matches {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// compareValues orders numbers numerically and anything else by its printed form.
// Missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return cmp.Compare(fa, fb)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// LoadMemoryStore reads a YAML dataset into a new MemoryStore.
//
// Each top-level key is a collection. A collection is either a mapping of document keys
// to documents, or a sequence of documents identified by their "_id" field. Documents
// without an "_id" get their key as one:
//
//	job_group_info:
//	  M1607:
//	    name: Secrétariat
//	job_boards:
//	  - _id: indeed
//	    filters: [for-departement(75)]
func LoadMemoryStore(content []byte) (*MemoryStore, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}

	store := NewMemoryStore()
	collections := make([]string, 0, len(raw))
	for name := range raw {
		collections = append(collections, name)
	}
	slices.Sort(collections)

	for _, name := range collections {
		switch docs := raw[name].(type) {
		case map[string]any:
			keys := make([]string, 0, len(docs))
			for key := range docs {
				keys = append(keys, key)
			}
			slices.Sort(keys)
			for _, key := range keys {
				doc, ok := docs[key].(map[string]any)
				if !ok {
					return nil, fmt.Errorf("collection %s: document %s is not a mapping", name, key)
				}
				if _, found := doc["_id"]; !found {
					doc["_id"] = key
				}
				store.Put(name, key, Document(doc))
			}
		case []any:
			for i, item := range docs {
				doc, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("collection %s: item %d is not a mapping", name, i)
				}
				key := fmt.Sprint(doc["_id"])
				if doc["_id"] == nil {
					key = fmt.Sprintf("%s-%d", name, i)
					doc["_id"] = key
				}
				store.Put(name, key, Document(doc))
			}
		case nil:
		default:
			return nil, fmt.Errorf("collection %s: unsupported layout %T", name, docs)
		}
	}

	return store, nil
}

// LoadMemoryStoreFromFile is LoadMemoryStore on the content of a file.
func LoadMemoryStoreFromFile(path string) (*MemoryStore, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadMemoryStore(content)
}
