package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/Daskott/kontakt/colors"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

const refreshJobTag = "refresh_contacts"

// Refresher reloads the repository on a schedule. It replaces reload-on-focus
// for consumers that have no focus events, e.g. 'kontakt watch'.
type Refresher struct {
	cronScheduler *gocron.Scheduler
	repo          *Repository
	every         string
	logg          *zap.SugaredLogger

	// OnRefresh, if set, is called after every successful reload
	OnRefresh func(contacts []Contact)
}

// NewRefresher schedules repo.Load every 'every' (e.g. "5m", "30s").
// Unknown time zones fall back to UTC.
func NewRefresher(repo *Repository, every string, timeZone string, logg *zap.SugaredLogger) (*Refresher, error) {
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		location = time.UTC
	}

	refresher := &Refresher{
		cronScheduler: gocron.NewScheduler(location),
		repo:          repo,
		every:         every,
		logg:          logg,
	}
	refresher.cronScheduler.TagsUnique()

	_, err = refresher.cronScheduler.Every(every).Tag(refreshJobTag).Do(refresher.refresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %v", every, err)
	}

	return refresher, nil
}

// Start runs the first refresh right away, then on schedule
func (r *Refresher) Start() {
	r.logg.Infof(colors.Yellow("[refresher] ")+"refreshing contacts every %v", r.every)
	r.cronScheduler.StartAsync()
}

func (r *Refresher) Stop() {
	r.cronScheduler.Stop()
	r.logg.Infof(colors.Yellow("[refresher] ") + "stopped")
}

func (r *Refresher) refresh() {
	err := r.repo.Load(context.Background())
	if err != nil {
		r.logg.Errorf(colors.Red("[refresher] ")+"refresh failed: %v", err)
		return
	}

	if r.OnRefresh != nil {
		r.OnRefresh(r.repo.List())
	}
}
