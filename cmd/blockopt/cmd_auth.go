package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"blockopt/internal/auth"
)

var loginPassword string

// loginCmd establishes a session against the optimization service
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the optimization service",
	Long: `Authenticate against the optimization service and persist the
session locally.

The password is taken from --password, the BLOCKOPT_PASSWORD environment
variable, or prompted for on stdin, in that order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd tears the session down
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the persisted session",
	RunE:  runLogout,
}

// statusCmd shows the current session state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	RunE:  runStatus,
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prefer BLOCKOPT_PASSWORD or the prompt)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) == 1 {
		username = args[0]
	} else if username = os.Getenv("BLOCKOPT_USERNAME"); username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return errors.New("username is required")
	}

	password := loginPassword
	if password == "" {
		password = os.Getenv("BLOCKOPT_PASSWORD")
	}
	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := auth.Login(cmd.Context(), httpClient, cfg.BaseURL, username, password, store); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return errors.New("login rejected: check username and password")
		}
		return err
	}

	fmt.Printf("Logged in as %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !store.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	creds := store.Current()
	if creds == nil {
		fmt.Println("Session: anonymous")
		fmt.Printf("Service: %s\n", cfg.BaseURL)
		return nil
	}
	fmt.Printf("Session: authenticated as %s (%s)\n", creds.Username, creds.Initial)
	fmt.Printf("Service: %s\n", cfg.BaseURL)
	return nil
}
