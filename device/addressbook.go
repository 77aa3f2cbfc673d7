// Package device reads the platform address book
package device

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/pkg/errors"
)

type Permission string

const (
	PermissionAuthorized Permission = "authorized"
	PermissionDenied     Permission = "denied"
)

// Record is an address book entry as the device describes it
type Record struct {
	RecordID       string
	GivenName      string
	FamilyName     string
	DisplayName    string
	PhoneNumbers   []string
	EmailAddresses []string
	ThumbnailPath  string
}

type AddressBook interface {
	RequestPermission(ctx context.Context) (Permission, error)
	All(ctx context.Context) ([]Record, error)
}

// MemoryBook is an AddressBook backed by a slice
type MemoryBook struct {
	Records    []Record
	Permission Permission

	// PermissionErr simulates a failing permission API
	PermissionErr error
}

func (m *MemoryBook) RequestPermission(ctx context.Context) (Permission, error) {
	if m.PermissionErr != nil {
		return "", m.PermissionErr
	}
	if m.Permission == "" {
		return PermissionAuthorized, nil
	}
	return m.Permission, nil
}

func (m *MemoryBook) All(ctx context.Context) ([]Record, error) {
	return append([]Record{}, m.Records...), nil
}

// VCardBook reads an exported .vcf address book. Access is granted when the
// file can be opened for reading.
type VCardBook struct {
	path string
}

func NewVCardBook(path string) *VCardBook {
	return &VCardBook{path: path}
}

func (b *VCardBook) RequestPermission(ctx context.Context) (Permission, error) {
	f, err := os.Open(b.path)
	if os.IsPermission(err) {
		return PermissionDenied, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "opening address book")
	}
	f.Close()

	return PermissionAuthorized, nil
}

func (b *VCardBook) All(ctx context.Context) ([]Record, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return nil, errors.Wrap(err, "opening address book")
	}
	defer f.Close()

	return DecodeVCards(ctx, f)
}

// DecodeVCards maps every card in r to a Record. Cards without a UID get
// their position in the file as record id.
func DecodeVCards(ctx context.Context, r io.Reader) ([]Record, error) {
	records := []Record{}
	decoder := vcard.NewDecoder(r)

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decoding vcard #%d", index)
		}

		records = append(records, recordFromCard(card, index))
	}

	return records, nil
}

func recordFromCard(card vcard.Card, index int) Record {
	record := Record{
		RecordID:       card.Value(vcard.FieldUID),
		DisplayName:    card.Value(vcard.FieldFormattedName),
		PhoneNumbers:   nonEmpty(card.Values(vcard.FieldTelephone)),
		EmailAddresses: nonEmpty(card.Values(vcard.FieldEmail)),
	}

	if record.RecordID == "" {
		record.RecordID = strconv.Itoa(index)
	}

	if name := card.Name(); name != nil {
		record.GivenName = name.GivenName
		record.FamilyName = name.FamilyName
	}

	// Embedded base64 photos have no path to upload from
	if photo := card.Get(vcard.FieldPhoto); photo != nil {
		if strings.Contains(photo.Value, "://") || strings.HasPrefix(photo.Value, "/") {
			record.ThumbnailPath = photo.Value
		}
	}

	return record
}

func nonEmpty(values []string) []string {
	result := []string{}
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			result = append(result, strings.TrimSpace(value))
		}
	}
	return result
}
