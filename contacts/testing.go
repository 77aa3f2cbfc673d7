package contacts

import (
	"context"
	"sync"

	"github.com/Daskott/kontakt/auth"
)

// APIStub is an in-memory API for tests. Set the result fields for fixed
// answers or the *Func hooks for anything that depends on the request.
type APIStub struct {
	mu    sync.Mutex
	Calls []string

	ListResult []Contact
	ListErr    error
	ListFunc   func(ctx context.Context) ([]Contact, error)

	GetResult *Contact
	GetErr    error

	SearchFunc func(ctx context.Context, field Field, query string) ([]Contact, error)
	CreateFunc func(ctx context.Context, draft Contact, imageURI string) (*Contact, error)
	UpdateFunc func(ctx context.Context, contact Contact, imageURI string) (*Contact, error)
	DeleteErr  error
}

func (a *APIStub) record(call string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls = append(a.Calls, call)
}

// CallCount returns how many times method was called, or every call for ""
func (a *APIStub) CallCount(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, call := range a.Calls {
		if method == "" || call == method {
			count++
		}
	}
	return count
}

func (a *APIStub) List(ctx context.Context, creds auth.Credentials) ([]Contact, error) {
	a.record("List")
	if a.ListFunc != nil {
		return a.ListFunc(ctx)
	}
	return copyContacts(a.ListResult), a.ListErr
}

func (a *APIStub) Get(ctx context.Context, creds auth.Credentials, id int) (*Contact, error) {
	a.record("Get")
	if a.GetErr != nil {
		return nil, a.GetErr
	}
	return a.GetResult, nil
}

func (a *APIStub) Search(ctx context.Context, creds auth.Credentials, field Field, query string) ([]Contact, error) {
	a.record("Search")
	if a.SearchFunc != nil {
		return a.SearchFunc(ctx, field, query)
	}
	return []Contact{}, nil
}

func (a *APIStub) Create(ctx context.Context, creds auth.Credentials, draft Contact, imageURI string) (*Contact, error) {
	a.record("Create")
	if a.CreateFunc != nil {
		return a.CreateFunc(ctx, draft, imageURI)
	}
	created := draft
	return &created, nil
}

func (a *APIStub) Update(ctx context.Context, creds auth.Credentials, contact Contact, imageURI string) (*Contact, error) {
	a.record("Update")
	if a.UpdateFunc != nil {
		return a.UpdateFunc(ctx, contact, imageURI)
	}
	updated := contact
	return &updated, nil
}

func (a *APIStub) Delete(ctx context.Context, creds auth.Credentials, id int) error {
	a.record("Delete")
	return a.DeleteErr
}

// RecordingNotifier keeps every notification it receives
type RecordingNotifier struct {
	mu            sync.Mutex
	Notifications []Notification
}

func (n *RecordingNotifier) Notify(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notifications = append(n.Notifications, notification)
}

func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification{}, n.Notifications...)
}
