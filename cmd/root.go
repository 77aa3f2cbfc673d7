/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	devConfig "github.com/Daskott/kontakt/dev/config"
	"github.com/Daskott/kontakt/shared"
	"github.com/Daskott/kontakt/utils"
	"github.com/Daskott/kontakt/version"
	"github.com/fatih/color"
	"github.com/go-playground/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultCacheDir = "~/.kontakt"

var (
	cfgFile  string
	isDevEnv bool
	verbose  bool

	yellow       = color.New(color.FgYellow).SprintFunc()
	red          = color.New(color.FgRed).SprintFunc()
	green        = color.New(color.FgGreen).SprintFunc()
	warningLabel = yellow("Warning:")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "kontakt",
		Short: `kontakt is a CLI for your contact directory.

It keeps a local, encrypted copy of the contacts stored on your backend,
lets you add, edit, search and delete them, and imports contacts from a
device address book export (.vcf)`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kontakt.yaml)")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode, against 'kontakt devserver'")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(
		createLoginCmd(),
		createRegisterCmd(),
		createLogoutCmd(),
		createContactsCmd(),
		createSyncCmd(),
		createWatchCmd(),
		createDevServerCmd(),
		createBackupCmd(),
	)

	return cmd
}

// loadConfig reads in the config file and ENV variables if set.
func loadConfig() (*shared.ClientConfig, *viper.Viper, error) {
	config := viper.New()

	configFilePath, err := configFilePath()
	if err != nil {
		return nil, nil, err
	}

	// If config file is not found, create one using the default content
	if cfgFile == "" {
		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			if err := utils.CreateDirIfNotExist(filepath.Dir(configFilePath)); err != nil {
				return nil, nil, err
			}

			err = ioutil.WriteFile(configFilePath, []byte(defaultConfigValue()), 0600)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	config.SetConfigFile(configFilePath)
	config.SetConfigType("yaml")

	// BIND google.applicationCredentials to GOOGLE_APPLICATION_CREDENTIALS env, so the value doesn't need to be
	// stored in the config, but can be read from the system ENV var.
	// FYI: The env var overrides whatever is in the config file
	config.BindEnv("google.applicationCredentials", "GOOGLE_APPLICATION_CREDENTIALS")

	// e.g. KONTAKT_API_BASEURL overrides api.baseUrl
	config.SetEnvPrefix("kontakt")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		return nil, nil, formattedError("unable to read config file %s: %v", configFilePath, err)
	}

	clientConfig := &shared.ClientConfig{}
	if err := config.Unmarshal(clientConfig); err != nil {
		return nil, nil, formattedError("invalid config file %s: %v", config.ConfigFileUsed(), err)
	}

	if err := validateConfig(clientConfig, config.ConfigFileUsed()); err != nil {
		return nil, nil, err
	}

	return clientConfig, config, nil
}

func validateConfig(clientConfig *shared.ClientConfig, configFile string) error {
	err := validator.New().Struct(clientConfig)
	if err != nil {
		msgs := []string{}
		for _, fieldErr := range err.(validator.ValidationErrors) {
			msgs = append(msgs, fmt.Sprintf("'%s' failed on '%s'", fieldErr.Namespace(), fieldErr.Tag()))
		}
		return formattedError("invalid config in %s: %s", configFile, strings.Join(msgs, ", "))
	}

	if strings.HasPrefix(clientConfig.Cache.PassPhrase, "<") {
		return formattedError("must set 'cache.passPhrase' in %s", configFile)
	}

	return nil
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}

	if isDevEnv {
		configDir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(configDir, "dev", "config", "client.yml"), nil
	}

	// Use home directory for production
	configDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ".kontakt.yaml"), nil
}

// defaultConfigValue returns the default content for the config file
func defaultConfigValue() string {
	if isDevEnv {
		return devConfig.DEV_CLIENT_YML
	}
	return devConfig.DEFAULT_CLIENT_YML
}

func cacheDir(clientConfig *shared.ClientConfig) (string, error) {
	dir := clientConfig.Cache.Dir
	if strings.TrimSpace(dir) == "" {
		dir = defaultCacheDir
	}

	return utils.ExpandHome(dir)
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(red(format), a...)
}
