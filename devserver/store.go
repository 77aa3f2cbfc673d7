package devserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	errRecordNotFound = errors.New("record not found")
	errEmailTaken     = errors.New("an account with this email already exists")
)

type user struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string
}

// contact is the backend's record. The role is stored as contactType only.
type contact struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          *string  `json:"email"`
	ContactType    string   `json:"contactType"`
	ProfilePicture *string  `json:"profilePicture"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

// memoryStore keeps users and their contacts. Contact ids are global.
type memoryStore struct {
	mu            sync.RWMutex
	users         map[int]*user
	usersByEmail  map[string]*user
	contacts      map[int]map[int]contact
	uploads       map[string][]byte
	nextUserID    int
	nextContactID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:         map[int]*user{},
		usersByEmail:  map[string]*user{},
		contacts:      map[int]map[int]contact{},
		uploads:       map[string][]byte{},
		nextUserID:    1,
		nextContactID: 1,
	}
}

func (m *memoryStore) createUser(name, email, passwordHash string) (*user, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := m.usersByEmail[key]; ok {
		return nil, errEmailTaken
	}

	u := &user{ID: m.nextUserID, Name: name, Email: email, PasswordHash: passwordHash}
	m.nextUserID++

	m.users[u.ID] = u
	m.usersByEmail[key] = u
	m.contacts[u.ID] = map[int]contact{}

	return u, nil
}

func (m *memoryStore) findUserByEmail(email string) (*user, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, errRecordNotFound
	}
	return u, nil
}

func (m *memoryStore) userExists(userID int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[userID]
	return ok
}

// listContacts returns the user's contacts in creation order
func (m *memoryStore) listContacts(userID int) []contact {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []contact{}
	for _, c := range m.contacts[userID] {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

func (m *memoryStore) findContact(userID, id int) (contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[userID][id]
	if !ok {
		return contact{}, errRecordNotFound
	}
	return c, nil
}

// upload is an image saved with a contact. url builds the public link from
// the stored file name.
type upload struct {
	data []byte
	url  func(name string) string
}

// attachLocked stores the image and points the contact at it. m.mu must be held.
func (m *memoryStore) attachLocked(c *contact, image *upload) {
	if image == nil {
		return
	}

	name := fmt.Sprintf("%d-%d.jpg", c.ID, time.Now().UnixNano())
	m.uploads[name] = image.data

	link := image.url(name)
	c.ProfilePicture = &link
}

// createContact assigns the id and saves image (if any) under it
func (m *memoryStore) createContact(userID int, c contact, image *upload) contact {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.nextContactID
	m.nextContactID++

	m.attachLocked(&c, image)
	m.contacts[userID][c.ID] = c

	return c
}

func (m *memoryStore) updateContact(userID, id int, apply func(c *contact), image *upload) (contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.contacts[userID][id]
	if !ok {
		return contact{}, errRecordNotFound
	}

	apply(&c)
	c.ID = id
	m.attachLocked(&c, image)
	m.contacts[userID][id] = c

	return c, nil
}

func (m *memoryStore) deleteContact(userID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contacts[userID][id]; !ok {
		return errRecordNotFound
	}

	delete(m.contacts[userID], id)
	return nil
}

func (m *memoryStore) findUpload(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.uploads[name]
	return data, ok
}
