package contacts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Daskott/kontakt/auth"
	"github.com/Daskott/kontakt/colors"
	"go.uber.org/zap"
)

// Cache persists the directory between sessions
type Cache interface {
	SaveDirectory(contacts []Contact) error
	LoadDirectory() ([]Contact, error)
}

type RepositoryOptions struct {
	API      API
	Auth     auth.Provider
	Notifier Notifier
	Logger   *zap.SugaredLogger

	// Optional
	Cache Cache

	// RefreshOnResume makes Resume reload the directory
	RefreshOnResume bool
}

// Repository owns the directory for one session. All mutation goes through it.
//
// Mutating calls are not queued against each other: each one applies only the
// record it names, under the lock, when its response arrives. Every failure is
// logged (and notified where the user needs to know) before it is returned, and
// leaves the directory untouched. Errors wrapping auth.ErrUnauthenticated are
// the exception: nothing was attempted and the caller has to handle them.
type Repository struct {
	api             API
	auth            auth.Provider
	notifier        Notifier
	cache           Cache
	logg            *zap.SugaredLogger
	refreshOnResume bool

	mu       sync.RWMutex
	contacts []Contact
	// (name, phone) keys of adds waiting on the server
	pending map[contactKey]bool

	loadGeneration uint64
	inFlightGets   int32
}

func NewRepository(opts RepositoryOptions) *Repository {
	return &Repository{
		api:             opts.API,
		auth:            opts.Auth,
		notifier:        opts.Notifier,
		cache:           opts.Cache,
		logg:            opts.Logger,
		refreshOnResume: opts.RefreshOnResume,
		contacts:        []Contact{},
		pending:         map[contactKey]bool{},
	}
}

// List returns a copy of the directory
func (r *Repository) List() []Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyContacts(r.contacts)
}

// Contact looks up a contact in the local directory
func (r *Repository) Contact(id int) (Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, contact := range r.contacts {
		if contact.ID == id {
			return contact, true
		}
	}
	return Contact{}, false
}

// Loading is true while a GetByID call is outstanding
func (r *Repository) Loading() bool {
	return atomic.LoadInt32(&r.inFlightGets) > 0
}

// Load replaces the directory with the server's snapshot. On failure the
// previous directory is kept and nothing is notified.
func (r *Repository) Load(ctx context.Context) error {
	creds, err := r.auth.Credentials(ctx)
	if err != nil {
		return err
	}

	generation := atomic.AddUint64(&r.loadGeneration, 1)

	snapshot, err := r.api.List(ctx, creds)
	if err != nil {
		r.logError("error loading contacts from backend: %v", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A newer Load was issued while this one was in flight
	if generation != atomic.LoadUint64(&r.loadGeneration) {
		r.logInfof("discarding stale contacts snapshot (generation %v)", generation)
		return nil
	}

	r.contacts = copyContacts(snapshot)
	r.persistLocked()
	r.logInfof("loaded %v contact(s)", len(snapshot))

	return nil
}

// GetByID fetches a single contact from the server. The contact is nil on any error.
func (r *Repository) GetByID(ctx context.Context, id int) (*Contact, error) {
	atomic.AddInt32(&r.inFlightGets, 1)
	defer atomic.AddInt32(&r.inFlightGets, -1)

	creds, err := r.auth.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	contact, err := r.api.Get(ctx, creds, id)
	if err != nil {
		r.logError("error fetching contact by id=%v: %v", id, err)
		return nil, err
	}

	return contact, nil
}

// Add creates draft on the server and appends the server's record to the directory.
// Drafts that are invalid or duplicate an existing (name, phone) never reach the network.
func (r *Repository) Add(ctx context.Context, draft Contact, imageURI string) (*Contact, error) {
	if err := Validate(draft); err != nil {
		r.logInfof("rejected contact draft: %v", err)
		return nil, err
	}

	if !r.reserve(draft) {
		r.logInfof("%v: name=%q phone=%q", ErrDuplicateContact, draft.Name, draft.Phone)
		return nil, ErrDuplicateContact
	}
	defer r.release(draft)

	creds, err := r.auth.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	created, err := r.api.Create(ctx, creds, draft, imageURI)
	if err != nil {
		r.logError("error adding contact to backend: %v", err)
		r.notifier.Notify(Notification{
			Level:   LevelDanger,
			Title:   "Error",
			Message: "There was an issue adding the contact.",
		})
		return nil, err
	}

	r.mu.Lock()
	r.contacts = append(r.contacts, copyContact(*created))
	r.persistLocked()
	r.mu.Unlock()

	return created, nil
}

// Update sends a partial update for contact.ID and replaces the local entry with
// whatever the server returns, so server side normalization is kept.
func (r *Repository) Update(ctx context.Context, contact Contact, imageURI string) (*Contact, error) {
	if contact.IsDraft() {
		return nil, fmt.Errorf("%w: update requires a server assigned id, got %v", ErrInvalidContact, contact.ID)
	}

	if err := Validate(contact); err != nil {
		r.logInfof("rejected contact update: %v", err)
		return nil, err
	}

	creds, err := r.auth.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := r.api.Update(ctx, creds, contact, imageURI)
	if err != nil {
		r.logError("error updating contact id=%v: %v", contact.ID, err)
		r.notifier.Notify(failureNotification(err, "Failed to update contact."))
		return nil, err
	}

	r.mu.Lock()
	for i := range r.contacts {
		if r.contacts[i].ID == contact.ID {
			r.contacts[i] = copyContact(*updated)
		}
	}
	r.persistLocked()
	r.mu.Unlock()

	r.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Contact Updated",
		Message: "The contact was updated successfully.",
	})

	return updated, nil
}

// Delete removes the contact on the server, then locally. Failures are logged
// and the entry stays; there is no retry.
func (r *Repository) Delete(ctx context.Context, id int) error {
	creds, err := r.auth.Credentials(ctx)
	if err != nil {
		return err
	}

	if err := r.api.Delete(ctx, creds, id); err != nil {
		r.logError("error deleting contact id=%v: %v", id, err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := make([]Contact, 0, len(r.contacts))
	for _, contact := range r.contacts {
		if contact.ID != id {
			remaining = append(remaining, contact)
		}
	}
	r.contacts = remaining
	r.persistLocked()

	return nil
}

// Resume is the refresh-on-resume hook, called when the consumer regains focus
func (r *Repository) Resume(ctx context.Context) error {
	if !r.refreshOnResume {
		return nil
	}
	return r.Load(ctx)
}

// Restore seeds the directory from the cache at session start
func (r *Repository) Restore() error {
	if r.cache == nil {
		return nil
	}

	cached, err := r.cache.LoadDirectory()
	if err != nil {
		r.logError("error restoring contacts from cache: %v", err)
		return err
	}

	r.mu.Lock()
	r.contacts = copyContacts(cached)
	r.mu.Unlock()

	return nil
}

// Close tears the session down. The repository is empty afterwards.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contacts = []Contact{}
	atomic.AddUint64(&r.loadGeneration, 1)
}

// reserve claims draft's (name, phone) for an add. It fails when the key is
// already in the directory or another add holds it.
func (r *Repository) reserve(draft Contact) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(draft)
	if r.pending[key] {
		return false
	}

	for _, contact := range r.contacts {
		if contact.sameKey(draft) {
			return false
		}
	}

	r.pending[key] = true
	return true
}

func (r *Repository) release(draft Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, keyOf(draft))
}

// persistLocked must be called with r.mu held
func (r *Repository) persistLocked() {
	if r.cache == nil {
		return
	}

	if err := r.cache.SaveDirectory(copyContacts(r.contacts)); err != nil {
		r.logError("error saving contacts to cache: %v", err)
	}
}

func (r *Repository) logInfof(template string, args ...interface{}) {
	r.logg.Infof(colors.Yellow("[repository] ")+template, args...)
}

func (r *Repository) logError(template string, args ...interface{}) {
	r.logg.Errorf(colors.Red("[repository] ")+template, args...)
}

// IsAuthError reports whether err is an auth precondition failure
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrUnauthenticated)
}

func copyContacts(contacts []Contact) []Contact {
	result := make([]Contact, len(contacts))
	for i, contact := range contacts {
		result[i] = copyContact(contact)
	}
	return result
}

func copyContact(contact Contact) Contact {
	if contact.Location != nil {
		location := *contact.Location
		contact.Location = &location
	}
	return contact
}
