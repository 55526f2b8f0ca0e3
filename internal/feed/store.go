// Package feed maintains the latest top-of-book snapshot per venue and
// pair, merging streaming and polled sources into a single read surface
// for the scanner.
package feed

import (
	"sync"

	"arbscan/internal/model"
)

type bookKey struct {
	venue model.Venue
	pair  model.CanonicalPair
}

// BookStore is a concurrency-safe latest-value store for top-of-book
// snapshots. Writers overwrite unconditionally; the store keeps no
// history.
type BookStore struct {
	mu    sync.RWMutex
	books map[bookKey]model.TopOfBook
}

// NewBookStore creates an empty store.
func NewBookStore() *BookStore {
	return &BookStore{
		books: make(map[bookKey]model.TopOfBook),
	}
}

// Put stores the snapshot as the latest book for its venue and pair.
func (s *BookStore) Put(tob model.TopOfBook) {
	key := bookKey{venue: tob.Venue, pair: tob.Pair}
	s.mu.Lock()
	s.books[key] = tob
	s.mu.Unlock()
}

// PutAll stores each snapshot in the map under its venue.
func (s *BookStore) PutAll(tobs map[model.CanonicalPair]model.TopOfBook) {
	s.mu.Lock()
	for _, tob := range tobs {
		s.books[bookKey{venue: tob.Venue, pair: tob.Pair}] = tob
	}
	s.mu.Unlock()
}

// Snapshot returns the latest book per venue for one pair. The returned
// map is freshly allocated and safe for the caller to mutate.
func (s *BookStore) Snapshot(pair model.CanonicalPair) map[model.Venue]model.TopOfBook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.Venue]model.TopOfBook)
	for key, tob := range s.books {
		if key.pair == pair {
			out[key.venue] = tob
		}
	}
	return out
}

// Len reports the number of distinct venue and pair combinations stored.
func (s *BookStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}
