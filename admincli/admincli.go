// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package admincli

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/cliparse"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/store"
)

// readPassword is a test seam for term.ReadPassword
var readPassword = term.ReadPassword

// stdinFd is the descriptor prompts read from
var stdinFd = func() int { return int(os.Stdin.Fd()) }

var (
	ErrUsage            = errors.New("usage: passwd [-admin] [-reset] <username>")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", auth.MaxPasswordLen)
)

// Passwd sets the password of username directly in the credential file,
// creating the account when it does not exist. -admin grants administrator
// rights; -reset moves an unreadable credential file aside and starts a new
// one. The server does not need to be running.
func Passwd(args []string, cfg cliparse.Config, out io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(out)
	admin := fs.Bool("admin", false, "Grant administrator rights")
	reset := fs.Bool("reset", false, "Move an unreadable credential file aside and start over")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}
	username := fs.Arg(0)
	if username == "" || strings.TrimSpace(username) != username {
		return fmt.Errorf("invalid username %q", username)
	}

	users, err := store.OpenCredentialStore(cfg.UsersFile,
		store.SeedOptions{AdminPassword: cfg.AdminPassword, BcryptCost: cfg.BcryptCost}, logger)
	if err != nil {
		return err
	}

	records, err := users.Load()
	if errors.Is(err, store.ErrStoreCorrupt) && *reset {
		suffix, idErr := auth.GenerateID(3)
		if idErr != nil {
			return idErr
		}
		aside := fmt.Sprintf("%s.corrupt-%s-%s", users.Path(), time.Now().Format("20060102-150405"), suffix)
		if err := os.Rename(users.Path(), aside); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("move %s aside: %w", users.Path(), err)
		}
		fmt.Fprintf(out, "Unreadable credential file moved to %s\n", aside)
		records, err = map[string]models.UserRecord{}, nil
	}
	if err != nil {
		return fmt.Errorf("%w (rerun with -reset to start a new credential file)", err)
	}

	password, err := promptNewPassword(out, username)
	if err != nil {
		return err
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}

	rec, exists := records[username]
	rec.Password = hash
	// The first account of a new file must be able to administer it
	if *admin || len(records) == 0 {
		rec.IsAdmin = true
	}
	records[username] = rec

	if err := users.Save(records); err != nil {
		return err
	}

	switch {
	case !exists:
		fmt.Fprintf(out, "Created user %s (admin: %v)\n", username, rec.IsAdmin)
	default:
		fmt.Fprintf(out, "Password updated for %s (admin: %v)\n", username, rec.IsAdmin)
	}
	logger.Info("password set from command line", "username", username, "created", !exists, "is_admin", rec.IsAdmin)
	return nil
}

func promptNewPassword(out io.Writer, username string) (string, error) {
	fmt.Fprintf(out, "New password for %s: ", username)
	first, err := readPassword(stdinFd())
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	fmt.Fprint(out, "Retype password: ")
	second, err := readPassword(stdinFd())
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}

	if len(first) == 0 {
		return "", ErrEmptyPassword
	}
	if len(first) > auth.MaxPasswordLen {
		return "", ErrPasswordTooLong
	}
	if !bytes.Equal(first, second) {
		return "", ErrPasswordMismatch
	}
	return string(first), nil
}
