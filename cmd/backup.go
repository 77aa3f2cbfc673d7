package cmd

import (
	"github.com/Daskott/kontakt/gstorage"
	"github.com/Daskott/kontakt/store"
	"github.com/Daskott/kontakt/utils"
	"github.com/spf13/cobra"
)

func createBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the encrypted local cache to Google Cloud Storage",
		Long: `Copies the encrypted local cache to (push) or from (pull) the bucket set in
'google.storage.bucket'. Credentials are read from 'google.applicationCredentials'
or the GOOGLE_APPLICATION_CREDENTIALS env var`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Upload the local cache",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackup(cmd, true)
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Replace the local cache with the uploaded one",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackup(cmd, false)
			},
		},
	)

	return cmd
}

func runBackup(cmd *cobra.Command, push bool) error {
	clientConfig, _, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := cacheDir(clientConfig)
	if err != nil {
		return err
	}
	dbFilePath := store.DbFilePath(dir)

	storage, err := gstorage.NewGStorage(
		cmd.Context(),
		clientConfig.Google.ApplicationCredentials,
		clientConfig.Google.Storage.Bucket,
		clientConfig.Google.Storage.Prefix,
	)
	if err != nil {
		return formattedError("%v", err)
	}
	defer storage.Close()

	if !push {
		object, err := storage.DownloadFile(cmd.Context(), dbFilePath)
		if err == gstorage.ErrObjectNotExist {
			return formattedError("no backup found at gs://%s/%s", clientConfig.Google.Storage.Bucket, object)
		}
		if err != nil {
			return formattedError("backup pull failed: %v", err)
		}

		cmd.Printf("Restored local cache from gs://%s/%s\n", clientConfig.Google.Storage.Bucket, object)
		return nil
	}

	exists, err := utils.FileExist(dbFilePath)
	if err != nil {
		return err
	}
	if !exists {
		return formattedError("nothing to back up, %s does not exist", dbFilePath)
	}

	// Opening and closing the store checkpoints the WAL into the db file
	localStore, err := store.Open(clientConfig.Cache.PassPhrase, dir)
	if err != nil {
		return formattedError("unable to open local cache: %v", err)
	}
	localStore.Close()

	object, err := storage.UploadFile(cmd.Context(), dbFilePath)
	if err != nil {
		return formattedError("backup push failed: %v", err)
	}

	cmd.Printf("Backed up local cache to gs://%s/%s\n", clientConfig.Google.Storage.Bucket, object)
	return nil
}
