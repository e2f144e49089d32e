// Command agentvault is the CLI for the encrypted local credential vault.
//
// Every invocation follows the scoped-acquisition discipline: prompt for the
// master password, unlock, perform one operation, and lock again on every
// exit path. Nothing stays unlocked between invocations.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	vaultDir        string
	platformKeyWrap bool

	rootCmd = &cobra.Command{
		Use:     "agentvault",
		Short:   "Encrypted local credential vault",
		Long:    "agentvault stores API keys, tokens, and passwords in a password-protected,\nAEAD-encrypted vault directory with rotation history, encrypted backups,\nand an append-only audit trail.",
		Version: version,
	}
)

func defaultVaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentvault"
	}
	return filepath.Join(home, ".agentvault")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault-dir", defaultVaultDir(), "vault directory")
	rootCmd.PersistentFlags().BoolVar(&platformKeyWrap, "key-wrap", false, "wrap vault files with a key from the OS credential store")

	rootCmd.AddCommand(
		initCmd,
		statusCmd,
		setCmd,
		getCmd,
		listCmd,
		deleteCmd,
		rotateCmd,
		searchCmd,
		backupCmd,
		restoreCmd,
		exportCmd,
		importCmd,
		wipeCmd,
		healthCmd,
		auditCmd,
		changePasswordCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorPrefix(), err)
		os.Exit(1)
	}
}
