package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Daskott/kontakt/contacts"
	"github.com/Daskott/kontakt/device"
	"github.com/spf13/cobra"
)

var vcfFileArg string

func createSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import contacts from a device address book export",
		Long: `Imports every contact in a vCard (.vcf) export of your device's address book.
Contacts that already exist (same name and phone number) are skipped, so running
sync more than once does not create duplicates`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.load(cmd.Context(), cmd); err != nil {
				return err
			}

			importer := contacts.NewImporter(device.NewVCardBook(vcfFileArg), a.repo, a.notifier, a.logg)

			report, err := importer.Import(cmd.Context())
			if contacts.IsAuthError(err) {
				return loginRequired(err)
			}
			if err != nil {
				return formattedError("sync failed: %v", err)
			}

			cmd.Printf("Scanned %v contact(s): %s created, %v already existed, %v invalid, %v failed\n",
				report.Scanned, green(report.Created), report.Duplicates, report.Invalid, report.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&vcfFileArg, "vcf", "", "path to the .vcf address book export")
	cmd.MarkFlagRequired("vcf")

	return cmd
}

func createWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the local contacts cache fresh until interrupted",
		Long: `Reloads contacts from the backend every 'sync.refreshEvery' (default 5m)
and prints the grouped directory after every refresh. Send SIGHUP to refresh
right away (when 'sync.refreshOnResume' is set). Stop with Ctrl+C`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.provider.Credentials(cmd.Context()); err != nil {
				return loginRequired(err)
			}

			if err := a.repo.Restore(); err == nil && len(a.repo.List()) > 0 {
				cmd.Println(yellow("Cached contacts:"))
				printSections(cmd, contacts.Group(a.repo.List()))
			}

			every := a.config.Sync.RefreshEvery
			if every == "" {
				every = "5m"
			}

			refresher, err := contacts.NewRefresher(a.repo, every, a.config.Sync.TimeZone, a.logg)
			if err != nil {
				return formattedError("%v", err)
			}

			refresher.OnRefresh = func(directory []contacts.Contact) {
				cmd.Printf("%s %v contact(s)\n", green("Refreshed:"), len(directory))
				printSections(cmd, contacts.Group(directory))
			}

			refresher.Start()
			defer refresher.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)

			// SIGHUP is treated like the app regaining focus
			resume := make(chan os.Signal, 1)
			signal.Notify(resume, syscall.SIGHUP)
			defer signal.Stop(resume)

			for {
				select {
				case <-resume:
					if err := a.repo.Resume(cmd.Context()); err == nil && a.config.Sync.RefreshOnResume {
						refresher.OnRefresh(a.repo.List())
					}
				case <-stop:
					return nil
				case <-cmd.Context().Done():
					return nil
				}
			}
		},
	}
}
