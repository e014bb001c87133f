package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUserFlag     string
	loginPasswordFlag string
)

// muestras login
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := open(ctx)
		if err != nil {
			return err
		}

		user := loginUserFlag
		if user == "" {
			fmt.Fprint(os.Stderr, "Username: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			user = strings.TrimSpace(line)
		}
		password := loginPasswordFlag
		if password == "" {
			if password, err = readPassword(); err != nil {
				return err
			}
		}

		if err := t.sess.Login(ctx, user, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Signed in as %s (%s)\n", t.sess.User().Username, t.sess.User().Role)
		return nil
	},
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// muestras logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := open(cmd.Context())
		if err != nil {
			return err
		}
		if err := t.sess.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

// muestras whoami
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := open(cmd.Context())
		if err != nil {
			return err
		}
		u := t.sess.User()
		if u == nil {
			return errNotSignedIn
		}
		fmt.Printf("%s\t%s\t%s\n", u.Username, u.FullName, u.Role)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUserFlag, "username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginPasswordFlag, "password", "p", "", "password (prompted when empty)")
}
