package contacts

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRefresher(t *testing.T) {
	api := &APIStub{ListResult: []Contact{{ID: 1, Name: "Jo", Phone: "123"}}}
	repo, _ := newTestRepository(api, testCreds)

	refresher, err := NewRefresher(repo, "1s", "America/Toronto", zap.NewNop().Sugar())
	require.Nil(t, err)

	var mu sync.Mutex
	refreshed := 0
	refresher.OnRefresh = func(contacts []Contact) {
		mu.Lock()
		defer mu.Unlock()
		refreshed++
	}

	refresher.Start()
	defer refresher.Stop()

	assert.Eventually(t, func() bool {
		return len(repo.List()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return refreshed > 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestNewRefresherInvalidInterval(t *testing.T) {
	repo, _ := newTestRepository(&APIStub{}, testCreds)

	_, err := NewRefresher(repo, "every now and then", "UTC", zap.NewNop().Sugar())
	assert.NotNil(t, err)
}

func TestNewRefresherUnknownTimeZone(t *testing.T) {
	repo, _ := newTestRepository(&APIStub{}, testCreds)

	refresher, err := NewRefresher(repo, "5m", "Mars/Olympus", zap.NewNop().Sugar())
	require.Nil(t, err)
	assert.Equal(t, time.UTC, refresher.cronScheduler.Location())
}
