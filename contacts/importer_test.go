package contacts

import (
	"context"
	"errors"
	"testing"

	"github.com/Daskott/kontakt/apierror"
	"github.com/Daskott/kontakt/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDraftFromRecord(t *testing.T) {
	draft := DraftFromRecord(device.Record{
		RecordID:       "abc",
		DisplayName:    "Jo Smith",
		PhoneNumbers:   []string{"123", "456"},
		EmailAddresses: []string{"jo@example.com"},
		ThumbnailPath:  "file:///tmp/jo.jpg",
	})

	assert.Equal(t, "Jo Smith", draft.Name, "Should fall back to display name")
	assert.Equal(t, "123", draft.Phone)
	assert.Equal(t, "jo@example.com", draft.Email)
	assert.Equal(t, "file:///tmp/jo.jpg", draft.Image)
	assert.False(t, draft.IsEmployee)
	assert.Nil(t, draft.Location)
	assert.True(t, draft.IsDraft())

	draft = DraftFromRecord(device.Record{RecordID: "abc", GivenName: "Jo", DisplayName: "Jo Smith"})
	assert.Equal(t, "Jo", draft.Name)
	assert.Equal(t, "", draft.Phone)
}

func TestProvisionalID(t *testing.T) {
	for _, recordID := range []string{"", "0", "1", "device-1", "A5C2-11F0"} {
		id := ProvisionalID(recordID)
		assert.Less(t, id, 0, "record %q", recordID)
		assert.Equal(t, id, ProvisionalID(recordID))
	}
	assert.NotEqual(t, ProvisionalID("1"), ProvisionalID("2"))
}

func TestImporterSkipsExistingContacts(t *testing.T) {
	repo, api, notifier := loadedRepository(t, []Contact{{ID: 1, Name: "Jo", Phone: "123"}})
	nextID := 10
	api.CreateFunc = func(ctx context.Context, draft Contact, imageURI string) (*Contact, error) {
		created := draft
		created.ID = nextID
		nextID++
		return &created, nil
	}

	book := &device.MemoryBook{Records: []device.Record{
		{RecordID: "1", GivenName: "Jo", PhoneNumbers: []string{"123"}},
		{RecordID: "2", GivenName: "Ana", PhoneNumbers: []string{"456"}},
		{RecordID: "3", GivenName: "NoPhone"},
	}}

	report, err := NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(context.Background())
	require.Nil(t, err)

	assert.Equal(t, ImportReport{Scanned: 3, Created: 1, Duplicates: 1, Invalid: 1}, report)
	assert.Equal(t, 1, api.CallCount("Create"))
	assert.Len(t, repo.List(), 2)
	assert.Empty(t, notifier.All())

	// a second run creates nothing new
	report, err = NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(context.Background())
	require.Nil(t, err)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 0, report.Created)
}

func TestImporterCountsFailures(t *testing.T) {
	repo, api, notifier := loadedRepository(t, nil)
	api.CreateFunc = func(ctx context.Context, draft Contact, imageURI string) (*Contact, error) {
		if draft.Name == "Ana" {
			return nil, &apierror.ServerError{StatusCode: 500}
		}
		created := draft
		created.ID = 5
		return &created, nil
	}

	book := &device.MemoryBook{Records: []device.Record{
		{RecordID: "1", GivenName: "Ana", PhoneNumbers: []string{"456"}},
		{RecordID: "2", GivenName: "Jo", PhoneNumbers: []string{"123"}},
	}}

	report, err := NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(context.Background())
	require.Nil(t, err)

	assert.Equal(t, ImportReport{Scanned: 2, Created: 1, Failed: 1}, report)
	assert.Len(t, notifier.All(), 1, "Each failed add notifies on its own")
}

func TestImporterPermission(t *testing.T) {
	t.Run("Denied is a silent no-op", func(t *testing.T) {
		repo, api, notifier := loadedRepository(t, nil)
		book := &device.MemoryBook{
			Permission: device.PermissionDenied,
			Records:    []device.Record{{RecordID: "1", GivenName: "Jo", PhoneNumbers: []string{"123"}}},
		}

		report, err := NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, ImportReport{}, report)
		assert.Equal(t, 0, api.CallCount("Create"))
		assert.Empty(t, notifier.All())
	})

	t.Run("Permission API failure notifies", func(t *testing.T) {
		repo, api, notifier := loadedRepository(t, nil)
		book := &device.MemoryBook{PermissionErr: errors.New("unavailable")}

		_, err := NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(context.Background())
		assert.NotNil(t, err)
		assert.Equal(t, 0, api.CallCount("Create"))
		assert.Equal(t, []Notification{
			{Level: LevelDanger, Title: "Sync Failed", Message: "Error syncing contacts"},
		}, notifier.All())
	})
}

func TestImporterStopsOnCancel(t *testing.T) {
	repo, api, notifier := loadedRepository(t, nil)
	book := &device.MemoryBook{Records: []device.Record{{RecordID: "1", GivenName: "Jo", PhoneNumbers: []string{"123"}}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(book, repo, notifier, zap.NewNop().Sugar()).Import(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, api.CallCount("Create"))
}
