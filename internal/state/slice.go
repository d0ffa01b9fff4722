// Package state implements the client-side mirror of server state: one
// container per resource family with a uniform data/loading/error shape.
//
// Containers never hold speculative data. Mutating flows refetch on success
// and commit only confirmed server responses.
package state

import "sync"

// Token identifies one in-flight request against a slice. A commit is
// accepted only while its token is still the latest one issued, so a
// response that arrives after the user navigated away (and a new fetch
// superseded it) is discarded instead of corrupting the new view.
type Token uint64

// Slice is a typed state container with the data/loading/error contract:
// data holds the last successful payload, loading is true only while a
// fetch is in flight, and error holds the last failure until the next fetch
// starts or the user dismisses it.
type Slice[T any] struct {
	mu      sync.Mutex
	data    T
	hasData bool
	loading bool
	err     string
	gen     Token
}

// NewSlice creates an empty slice in the idle state.
func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{}
}

// Begin marks a fetch as in flight, clears any prior error, and returns the
// token the fetch must present to commit its result. Starting a new fetch
// invalidates the tokens of all earlier ones.
func (s *Slice[T]) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = true
	s.err = ""
	return s.gen
}

// Resolve commits a successful payload if the token is still current.
// Returns false when the result was discarded as stale.
func (s *Slice[T]) Resolve(tok Token, data T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.gen {
		return false
	}
	s.data = data
	s.hasData = true
	s.loading = false
	s.err = ""
	return true
}

// Fail records a failure if the token is still current. The previous data
// is kept; only the error changes. Returns false when discarded as stale.
func (s *Slice[T]) Fail(tok Token, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.gen {
		return false
	}
	s.loading = false
	s.err = message
	return true
}

// Snapshot returns the current data, whether any successful payload has
// been committed yet, the loading flag and the error message.
func (s *Slice[T]) Snapshot() (data T, ok bool, loading bool, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.hasData, s.loading, s.err
}

// Data returns the last successful payload and whether one exists.
func (s *Slice[T]) Data() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.hasData
}

// Loading reports whether a fetch is in flight.
func (s *Slice[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last failure message, empty when none.
func (s *Slice[T]) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DismissError clears the error without touching data or loading.
func (s *Slice[T]) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Reset returns the slice to the idle state and invalidates all outstanding
// tokens. Called when the user navigates away from the view the slice backs.
func (s *Slice[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.gen++
	s.data = zero
	s.hasData = false
	s.loading = false
	s.err = ""
}
