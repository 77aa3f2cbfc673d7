package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Daskott/kontakt/auth"
	"github.com/spf13/cobra"
)

var (
	emailArg    string
	passwordArg string
	nameArg     string
)

func createLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the contacts backend",
		Long: `Exchanges your email and password for an access token.
The token is stored in the encrypted local cache until you run 'kontakt logout'.
If --password is not provided it is read from stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd)
		},
	}

	cmd.Flags().StringVarP(&emailArg, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&passwordArg, "password", "p", "", "account password")
	cmd.MarkFlagRequired("email")

	return cmd
}

func createRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the contacts backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd)
		},
	}

	cmd.Flags().StringVarP(&nameArg, "name", "n", "", "your name")
	cmd.Flags().StringVarP(&emailArg, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&passwordArg, "password", "p", "", "account password")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func createLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token and cached contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ClearSession(); err != nil {
				return formattedError("unable to log out: %v", err)
			}

			cmd.Println("Logged out")
			return nil
		},
	}
}

func runLogin(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	session, err := a.authClient().Login(cmd.Context(), auth.LoginRequest{Email: emailArg, Password: password})
	if err != nil {
		return formattedError("login failed: %v", err)
	}

	if err := a.store.SaveSession(session); err != nil {
		return formattedError("unable to save session: %v", err)
	}

	cmd.Printf("Logged in as %s\n", session.Username)
	return nil
}

func runRegister(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	err = a.authClient().Register(cmd.Context(), auth.RegisterRequest{Name: nameArg, Email: emailArg, Password: password})
	if err != nil {
		return formattedError("registration failed: %v", err)
	}

	cmd.Printf("Account created for %s, run 'kontakt login --email %s' to log in\n", emailArg, emailArg)
	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	if passwordArg != "" {
		return passwordArg, nil
	}

	cmd.Print("Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("no password provided")
	}

	return strings.TrimSpace(line), nil
}
