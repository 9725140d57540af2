package facts

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

// cachedDocument remembers absent documents as well, so a missing job group is looked up
// once per process instead of once per request.
type cachedDocument struct {
	doc   Document
	found bool
}

// CachedStore decorates a Store with a bounded process-wide cache of GetDocument results.
// Find and FindSorted are passed through untouched: they stream whole collections and
// caching them would defeat the single-pass contract.
type CachedStore struct {
	Store
	documents *lru.Cache[string, cachedDocument]
}

// NewCachedStore wraps store with an LRU of the given size (a default size when size <= 0).
func NewCachedStore(store Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	documents, err := lru.New[string, cachedDocument](size)
	if err != nil {
		return nil, fmt.Errorf("creating document cache: %w", err)
	}
	return &CachedStore{Store: store, documents: documents}, nil
}

// GetDocument implements Store. Errors are not cached.
func (s *CachedStore) GetDocument(collection, key string) (Document, bool, error) {
	cacheKey := collection + "\x00" + key
	if cached, found := s.documents.Get(cacheKey); found {
		return cached.doc, cached.found, nil
	}

	doc, found, err := s.Store.GetDocument(collection, key)
	if err != nil {
		return nil, false, err
	}
	s.documents.Add(cacheKey, cachedDocument{doc: doc, found: found})
	return doc, found, nil
}

// Len returns the number of cached lookups.
func (s *CachedStore) Len() int {
	return s.documents.Len()
}
