package contacts

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/Daskott/kontakt/colors"
	"github.com/Daskott/kontakt/device"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

type ImportReport struct {
	Scanned    int
	Created    int
	Duplicates int
	Invalid    int
	Failed     int
}

// Importer pushes device address book entries through Repository.Add one at a time,
// so the repository's duplicate check decides what actually gets created.
type Importer struct {
	book     device.AddressBook
	repo     *Repository
	notifier Notifier
	logg     *zap.SugaredLogger
}

func NewImporter(book device.AddressBook, repo *Repository, notifier Notifier, logg *zap.SugaredLogger) *Importer {
	return &Importer{book: book, repo: repo, notifier: notifier, logg: logg}
}

// Import asks for permission once and submits every record. A denied permission
// is a silent no-op. A single record failing does not stop the batch; only
// permission/enumeration failures, auth errors and cancellation do.
func (i *Importer) Import(ctx context.Context) (ImportReport, error) {
	report := ImportReport{}

	permission, err := i.book.RequestPermission(ctx)
	if err != nil {
		return report, i.syncFailed(pkgerrors.Wrap(err, "requesting address book permission"))
	}

	if permission != device.PermissionAuthorized {
		i.logInfof("permission denied, nothing to import")
		return report, nil
	}

	records, err := i.book.All(ctx)
	if err != nil {
		return report, i.syncFailed(pkgerrors.Wrap(err, "reading address book"))
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Scanned++
		draft := DraftFromRecord(record)

		_, err := i.repo.Add(ctx, draft, draft.Image)
		switch {
		case err == nil:
			report.Created++
		case errors.Is(err, ErrDuplicateContact):
			report.Duplicates++
		case errors.Is(err, ErrInvalidContact):
			report.Invalid++
		case IsAuthError(err):
			return report, err
		default:
			report.Failed++
		}
	}

	i.logInfof("scanned=%v created=%v duplicates=%v invalid=%v failed=%v",
		report.Scanned, report.Created, report.Duplicates, report.Invalid, report.Failed)

	return report, nil
}

func (i *Importer) syncFailed(err error) error {
	i.logg.Errorf(colors.Red("[importer] ")+"error syncing contacts: %v", err)
	i.notifier.Notify(Notification{
		Level:   LevelDanger,
		Title:   "Sync Failed",
		Message: "Error syncing contacts",
	})
	return err
}

func (i *Importer) logInfof(template string, args ...interface{}) {
	i.logg.Infof(colors.Yellow("[importer] ")+template, args...)
}

// DraftFromRecord maps a device record into a Contact draft. The device has
// no role or location, so the draft is a Client with no location.
func DraftFromRecord(record device.Record) Contact {
	name := record.GivenName
	if strings.TrimSpace(name) == "" {
		name = record.DisplayName
	}

	draft := Contact{
		ID:    ProvisionalID(record.RecordID),
		Name:  name,
		Image: record.ThumbnailPath,
	}

	if len(record.PhoneNumbers) > 0 {
		draft.Phone = record.PhoneNumbers[0]
	}

	if len(record.EmailAddresses) > 0 {
		draft.Email = record.EmailAddresses[0]
	}

	return draft
}

// ProvisionalID derives a negative id from the device record id, so it can never
// collide with a server assigned one.
func ProvisionalID(recordID string) int {
	h := fnv.New32a()
	h.Write([]byte(recordID))

	return -int(h.Sum32()>>1) - 1
}
