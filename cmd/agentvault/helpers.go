package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/executiveusa/agentvault"
)

func successPrefix() string { return color.GreenString("✓") }
func errorPrefix() string   { return color.RedString("✗") }
func warnPrefix() string    { return color.YellowString("!") }

// newClient builds a client for the configured vault directory. CLI logging
// stays quiet; errors surface through command results.
func newClient() *agentvault.Client {
	opts := agentvault.DefaultOptions()
	opts.PlatformKeyWrap = platformKeyWrap
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	return agentvault.NewWithOptions(vaultDir, opts)
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptNewPassword asks twice and insists the answers match.
func promptNewPassword(label string) (string, error) {
	pw, err := promptPassword(label + ": ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	confirm, err := promptPassword(label + " (again): ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

// promptLine reads one visible line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func startSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s
}

// unlockVault prompts for the master password and unlocks. The key
// derivation is deliberately slow, hence the spinner.
func unlockVault(c *agentvault.Client) error {
	password, err := promptPassword("Master password: ")
	if err != nil {
		return err
	}

	s := startSpinner("unlocking vault...")
	ok, err := c.Unlock(password)
	s.Stop()

	if err != nil {
		return err
	}
	if !ok {
		return errors.New("unlock failed: wrong password or corrupted vault")
	}
	return nil
}

// withUnlockedVault runs fn against an unlocked vault and locks again on
// every exit path.
func withUnlockedVault(fn func(c *agentvault.Client) error) error {
	c := newClient()
	defer c.Close()

	if !c.Exists() {
		return fmt.Errorf("no vault at %s, run: agentvault init", vaultDir)
	}
	if err := unlockVault(c); err != nil {
		return err
	}
	return fn(c)
}
