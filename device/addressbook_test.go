package device

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVCards = "BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"UID:device-1\r\n" +
	"FN:Jo Smith\r\n" +
	"N:Smith;Jo;;;\r\n" +
	"TEL;TYPE=CELL:123\r\n" +
	"TEL;TYPE=HOME:456\r\n" +
	"EMAIL:jo@example.com\r\n" +
	"PHOTO;VALUE=uri:file:///tmp/jo.jpg\r\n" +
	"END:VCARD\r\n" +
	"BEGIN:VCARD\r\n" +
	"VERSION:3.0\r\n" +
	"FN:Ana\r\n" +
	"END:VCARD\r\n"

func TestDecodeVCards(t *testing.T) {
	records, err := DecodeVCards(context.Background(), strings.NewReader(testVCards))
	require.Nil(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		RecordID:       "device-1",
		GivenName:      "Jo",
		FamilyName:     "Smith",
		DisplayName:    "Jo Smith",
		PhoneNumbers:   []string{"123", "456"},
		EmailAddresses: []string{"jo@example.com"},
		ThumbnailPath:  "file:///tmp/jo.jpg",
	}, records[0])

	assert.Equal(t, "1", records[1].RecordID, "Cards without UID should use their index")
	assert.Equal(t, "Ana", records[1].DisplayName)
	assert.Empty(t, records[1].PhoneNumbers)
}

func TestVCardBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	require.Nil(t, os.WriteFile(path, []byte(testVCards), 0600))

	book := NewVCardBook(path)

	permission, err := book.RequestPermission(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, PermissionAuthorized, permission)

	records, err := book.All(context.Background())
	assert.Nil(t, err)
	assert.Len(t, records, 2)

	_, err = NewVCardBook(filepath.Join(t.TempDir(), "missing.vcf")).RequestPermission(context.Background())
	assert.NotNil(t, err, "A missing address book is an error, not a denial")
}

func TestMemoryBookDefaultsToAuthorized(t *testing.T) {
	permission, err := (&MemoryBook{}).RequestPermission(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, PermissionAuthorized, permission)
}
