package cmd

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Daskott/kontakt/devserver"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type TestDataProvider []struct {
	description string
	args        []string
	expectedOut string
}

const testVCards = "BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Ana\r\nTEL:456\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Jo\r\nTEL:123\r\nEMAIL:jo@example.com\r\nEND:VCARD\r\n" +
	"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:NoPhone\r\nEND:VCARD\r\n"

// useTestConfig points the CLI at a fresh dev server and cache dir
func useTestConfig(t *testing.T) string {
	server := devserver.New("test-secret", zap.NewNop().Sugar())
	server.PasswordCost = bcrypt.MinCost

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	config := fmt.Sprintf(`api:
  baseUrl: "%s"
cache:
  passPhrase: test-passphrase
  dir: "%s"
sync:
  refreshEvery: "5m"
  timeZone: "UTC"
`, ts.URL, filepath.Join(dir, "cache"))
	require.Nil(t, os.WriteFile(configPath, []byte(config), 0600))

	// Save cfgFile before stubbing it out
	// And revert to prev cfgFile after test is done
	savedCfgFile := cfgFile
	t.Cleanup(func() {
		cfgFile = savedCfgFile
	})
	cfgFile = configPath

	return dir
}

func runCases(t *testing.T, cases TestDataProvider) {
	var (
		cmd       *cobra.Command
		buff      = new(bytes.Buffer)
		actualOut string
		// createRootCmd resets cfgFile when it registers --config
		configFile = cfgFile
	)

	for _, c := range cases {
		t.Run(c.description, func(t *testing.T) {
			cmd = createRootCmd()

			// Clear output buffer before the next test
			buff.Reset()

			cmd.SetOut(buff)
			cmd.SetErr(buff)
			cmd.SetArgs(append(c.args, "--config", configFile))

			cmd.Execute()

			actualOut = buff.String()
			if !strings.Contains(actualOut, c.expectedOut) {
				t.Errorf("Expected: \n\"%s\" \nTo contain: \n\"%s\"", actualOut, c.expectedOut)
			}
		})
	}
}

func TestContactsWorkflow(t *testing.T) {
	dir := useTestConfig(t)

	vcfPath := filepath.Join(dir, "contacts.vcf")
	require.Nil(t, os.WriteFile(vcfPath, []byte(testVCards), 0600))

	runCases(t, TestDataProvider{
		{
			description: "Should require login before listing contacts",
			args:        []string{"contacts", "list"},
			expectedOut: "run 'kontakt login' first",
		},
		{
			description: "Should register a new account",
			args:        []string{"register", "--name", "Tony", "--email", "tony@example.com", "--password", "secret1"},
			expectedOut: "Account created for tony@example.com",
		},
		{
			description: "Should NOT login with a wrong password",
			args:        []string{"login", "--email", "tony@example.com", "--password", "wrong"},
			expectedOut: "email/password is invalid",
		},
		{
			description: "Should login",
			args:        []string{"login", "--email", "tony@example.com", "--password", "secret1"},
			expectedOut: "Logged in as Tony",
		},
		{
			description: "Should list no contacts for a new account",
			args:        []string{"contacts", "list"},
			expectedOut: "No contacts yet",
		},
		{
			description: "Should add a contact",
			args:        []string{"contacts", "add", "--name", "Ana", "--phone", "456", "--employee", "--lat", "43.6", "--lng", "-79.3"},
			expectedOut: "Contact 'Ana' added with id 1",
		},
		{
			description: "Should NOT add a duplicate contact",
			args:        []string{"contacts", "add", "--name", "Ana", "--phone", "456"},
			expectedOut: "contact with the same name and phone number already exists",
		},
		{
			description: "Should NOT add a contact without phone flag",
			args:        []string{"contacts", "add", "--name", "Bob"},
			expectedOut: "\"phone\" not set",
		},
		{
			description: "Should import address book and skip existing contacts",
			args:        []string{"sync", "--vcf", vcfPath},
			expectedOut: "Scanned 3 contact(s): 1 created, 1 already existed, 1 invalid, 0 failed",
		},
		{
			description: "Should list contacts grouped by first letter",
			args:        []string{"contacts", "list", "--grouped"},
			expectedOut: "Ana  456 (Employee)",
		},
		{
			description: "Should search contacts by name",
			args:        []string{"contacts", "search", "jo"},
			expectedOut: "jo@example.com",
		},
		{
			description: "Should search contacts by phone",
			args:        []string{"contacts", "search", "45", "--by", "phone"},
			expectedOut: "Ana",
		},
		{
			description: "Should NOT search an unknown field",
			args:        []string{"contacts", "search", "x", "--by", "address"},
			expectedOut: "invalid search field",
		},
		{
			description: "Should report empty search results",
			args:        []string{"contacts", "search", "zz"},
			expectedOut: "No contacts found with name matching 'zz'",
		},
		{
			description: "Should edit a contact",
			args:        []string{"contacts", "edit", "1", "--phone", "789"},
			expectedOut: "Contact Updated: The contact was updated successfully.",
		},
		{
			description: "Should show the updated contact",
			args:        []string{"contacts", "show", "1"},
			expectedOut: "Phone:    789",
		},
		{
			description: "Should keep fields that were not edited",
			args:        []string{"contacts", "show", "1"},
			expectedOut: "Location: 43.6, -79.3",
		},
		{
			description: "Should NOT show a contact that does not exist",
			args:        []string{"contacts", "show", "99"},
			expectedOut: "unable to fetch contact 99",
		},
		{
			description: "Should NOT edit with an invalid id",
			args:        []string{"contacts", "edit", "abc"},
			expectedOut: "invalid contact id",
		},
		{
			description: "Should delete a contact",
			args:        []string{"contacts", "delete", "2"},
			expectedOut: "Contact 2 deleted",
		},
		{
			description: "Should logout",
			args:        []string{"logout"},
			expectedOut: "Logged out",
		},
		{
			description: "Should require login again after logout",
			args:        []string{"contacts", "list"},
			expectedOut: "run 'kontakt login' first",
		},
	})
}

func TestConfigValidation(t *testing.T) {
	dir := t.TempDir()

	savedCfgFile := cfgFile
	defer func() {
		cfgFile = savedCfgFile
	}()

	cases := []struct {
		description string
		config      string
		expectedErr string
	}{
		{
			description: "Should fail when passPhrase was not set",
			config:      "api:\n  baseUrl: \"http://localhost:3000\"\ncache:\n  passPhrase: <A pass phrase>\n",
			expectedErr: "must set 'cache.passPhrase'",
		},
		{
			description: "Should fail when baseUrl is not a url",
			config:      "api:\n  baseUrl: \"not a url\"\ncache:\n  passPhrase: secret\n",
			expectedErr: "'ClientConfig.API.BaseURL' failed on 'url'",
		},
		{
			description: "Should fail when passPhrase is missing",
			config:      "api:\n  baseUrl: \"http://localhost:3000\"\n",
			expectedErr: "'ClientConfig.Cache.PassPhrase' failed on 'required'",
		},
	}

	for i, c := range cases {
		cfgFile = filepath.Join(dir, fmt.Sprintf("config-%d.yml", i))
		require.Nil(t, os.WriteFile(cfgFile, []byte(c.config), 0600))

		_, _, err := loadConfig()
		require.NotNil(t, err, c.description)
		if !strings.Contains(err.Error(), c.expectedErr) {
			t.Errorf("%s: expected \"%s\" to contain \"%s\"", c.description, err.Error(), c.expectedErr)
		}
	}
}

func TestContactFlagsAreNotShared(t *testing.T) {
	addCmd, editCmd := createAddCmd(), createEditCmd()

	require.Nil(t, editCmd.ParseFlags([]string{"--employee", "--email", "jo@example.com", "--lat", "1"}))

	employee, err := addCmd.Flags().GetBool("employee")
	require.Nil(t, err)
	if employee {
		t.Errorf("Expected: add --employee to stay false after edit set it")
	}

	email, err := addCmd.Flags().GetString("email")
	require.Nil(t, err)
	if email != "" {
		t.Errorf("Expected: add --email to be empty, got \"%s\"", email)
	}
}
