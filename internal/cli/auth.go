package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/binge/internal/sync"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your sync account",
	Long: `Create an account on the sync server, log in and out.

Examples:
  binge auth register -u alice -e alice@example.com
  binge auth login -u alice
  binge auth logout`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the sync server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the session token",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE:  runRegister,
}

var (
	authUser  string
	authEmail string
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authUser, "user", "u", "", "Username (prompted when empty)")
	}
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Email address (prompted when empty)")
}

// ask returns value, or prompts for it on stdin when empty
func ask(r *bufio.Reader, value, prompt string) string {
	if value != "" {
		return value
	}
	fmt.Print(prompt)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	return string(b), err
}

func validateCredentials(username, password string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	username := ask(bufio.NewReader(os.Stdin), authUser, "Username: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if username == "" {
		return errors.New("username is required")
	}

	if err := client.Login(context.Background(), username, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	server, _, _ := client.GetStatus()
	fmt.Printf("✅ Logged in to %s as %s\n", server, username)
	if client.KeyFingerprint() == "" {
		fmt.Println("Tip: run 'binge sync key' to encrypt your data before the first sync.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}
	if !client.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	if err := client.Logout(context.Background()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("✅ Logged out. Local projects are kept.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username := ask(reader, authUser, "Username: ")
	email := ask(reader, authEmail, "Email: ")
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address %q", email)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	again, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != again {
		return errors.New("passwords do not match")
	}

	if err := client.Register(context.Background(), username, email, password); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Println("✅ Account created and logged in!")
	return nil
}
