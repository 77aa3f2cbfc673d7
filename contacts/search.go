package contacts

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Daskott/kontakt/auth"
	"github.com/Daskott/kontakt/colors"
	"go.uber.org/zap"
)

// MinQueryLength is the shortest query worth sending while the user is typing
const MinQueryLength = 2

// ShouldSearch is the caller side policy for search-as-you-type
func ShouldSearch(query string) bool {
	return utf8.RuneCountInString(query) >= MinQueryLength
}

// SearchIndex runs remote field scoped searches and keeps its own result set,
// separate from the Repository's directory.
//
// Every dispatch takes a new generation and cancels the request before it;
// a response whose generation is no longer the latest is dropped.
type SearchIndex struct {
	api      API
	auth     auth.Provider
	logg     *zap.SugaredLogger
	debounce time.Duration

	mu         sync.Mutex
	results    []Contact
	loading    bool
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
}

func NewSearchIndex(api API, provider auth.Provider, logg *zap.SugaredLogger, debounce time.Duration) *SearchIndex {
	return &SearchIndex{
		api:      api,
		auth:     provider,
		logg:     logg,
		debounce: debounce,
		results:  []Contact{},
	}
}

// Search dispatches query as given. An empty query clears the results without
// a request (leaves search mode). Failures clear the results and are logged;
// only auth errors are returned.
func (s *SearchIndex) Search(ctx context.Context, query string, field Field) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if query == "" {
		s.results = []Contact{}
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()

	defer cancel()

	creds, err := s.auth.Credentials(reqCtx)
	if err != nil {
		s.finish(generation, nil)
		return err
	}

	results, err := s.api.Search(reqCtx, creds, field, query)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logError("error searching contacts by %v=%q: %v", field, query, err)
		}
		results = nil
	}

	if !s.finish(generation, results) {
		s.logInfof("discarding stale results for %v=%q", field, query)
	}

	return nil
}

// Input feeds keystrokes. The search is debounced; queries shorter than
// MinQueryLength are ignored and an empty query clears the results right away.
func (s *SearchIndex) Input(ctx context.Context, query string, field Field) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if query != "" && !ShouldSearch(query) {
		s.mu.Unlock()
		return
	}

	if query == "" {
		s.mu.Unlock()
		s.Search(ctx, "", field)
		return
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Search(ctx, query, field); err != nil {
			s.logError("search aborted: %v", err)
		}
	})
	s.mu.Unlock()
}

// Results returns a copy of the latest result set
func (s *SearchIndex) Results() []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyContacts(s.results)
}

func (s *SearchIndex) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading
}

// finish applies results if generation is still the latest one
func (s *SearchIndex) finish(generation uint64, results []Contact) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}

	if results == nil {
		results = []Contact{}
	}

	s.results = copyContacts(results)
	s.loading = false
	s.cancel = nil

	return true
}

func (s *SearchIndex) logInfof(template string, args ...interface{}) {
	s.logg.Infof(colors.Yellow("[search] ")+template, args...)
}

func (s *SearchIndex) logError(template string, args ...interface{}) {
	s.logg.Errorf(colors.Red("[search] ")+template, args...)
}
