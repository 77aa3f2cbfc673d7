package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Daskott/kontakt/auth"
	"github.com/Daskott/kontakt/contacts"
	"github.com/Daskott/kontakt/logger"
	"github.com/Daskott/kontakt/shared"
	"github.com/Daskott/kontakt/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is everything a command needs for one session
type app struct {
	config   *shared.ClientConfig
	logg     *zap.SugaredLogger
	store    *store.Store
	provider *auth.SessionProvider
	api      *contacts.HTTPClient
	repo     *contacts.Repository
	notifier contacts.Notifier
}

func newApp(cmd *cobra.Command) (*app, error) {
	clientConfig, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logg := newLogger()

	dir, err := cacheDir(clientConfig)
	if err != nil {
		return nil, err
	}

	localStore, err := store.Open(clientConfig.Cache.PassPhrase, dir)
	if err != nil {
		return nil, formattedError("unable to open local cache in %s: %v", dir, err)
	}

	notifier := &cliNotifier{out: cmd.OutOrStdout()}
	provider := auth.NewSessionProvider(localStore)
	api := contacts.NewHTTPClient(clientConfig.API.BaseURL, requestTimeout(clientConfig))

	repo := contacts.NewRepository(contacts.RepositoryOptions{
		API:             api,
		Auth:            provider,
		Notifier:        notifier,
		Logger:          logg,
		Cache:           localStore,
		RefreshOnResume: clientConfig.Sync.RefreshOnResume,
	})

	return &app{
		config:   clientConfig,
		logg:     logg,
		store:    localStore,
		provider: provider,
		api:      api,
		repo:     repo,
		notifier: notifier,
	}, nil
}

func (a *app) Close() {
	a.repo.Close()
	if err := a.store.Close(); err != nil {
		a.logg.Errorf("unable to close local cache: %v", err)
	}
}

func (a *app) authClient() *auth.Client {
	return auth.NewClient(a.config.API.BaseURL, &http.Client{Timeout: requestTimeout(a.config)})
}

func (a *app) searchIndex() *contacts.SearchIndex {
	debounce := time.Duration(a.config.Sync.SearchDebounceMillis) * time.Millisecond
	return contacts.NewSearchIndex(a.api, a.provider, a.logg, debounce)
}

// load restores the cached directory, then refreshes it from the backend.
// When the backend can't be reached the cached copy is used.
func (a *app) load(ctx context.Context, cmd *cobra.Command) error {
	if err := a.repo.Restore(); err != nil {
		a.logg.Debugf("no usable cache: %v", err)
	}

	err := a.repo.Load(ctx)
	if contacts.IsAuthError(err) {
		return loginRequired(err)
	}
	if err != nil {
		cmd.Printf("%s unable to refresh contacts, showing the last known list: %v\n", warningLabel, err)
	}

	return nil
}

func loginRequired(err error) error {
	return formattedError("%v, run 'kontakt login' first", err)
}

func requestTimeout(clientConfig *shared.ClientConfig) time.Duration {
	return time.Duration(clientConfig.API.TimeoutSeconds) * time.Second
}

func newLogger() *zap.SugaredLogger {
	if verbose {
		return logger.NewLogger()
	}
	return logger.NewQuietLogger()
}

// cliNotifier prints notifications to the command's output
type cliNotifier struct {
	out io.Writer
}

func (n *cliNotifier) Notify(notification contacts.Notification) {
	title := green(notification.Title)
	switch notification.Level {
	case contacts.LevelDanger:
		title = red(notification.Title)
	case contacts.LevelWarning:
		title = yellow(notification.Title)
	}

	fmt.Fprintf(n.out, "%s: %s\n", title, notification.Message)
}
