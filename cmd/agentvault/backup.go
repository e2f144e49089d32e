package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var backupDir string

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "destination directory (default: <vault-dir>/backups)")
	backupCmd.AddCommand(backupListCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write an encrypted snapshot protected by its own password",
	Long: `Creates a full encrypted backup of all secrets and metadata. The backup
is protected by an independent password, never the vault's own, so it can
be stored and restored separately.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedVault(func(c *agentvault.Client) error {
			backupPassword, err := promptNewPassword("Backup password")
			if err != nil {
				return err
			}

			s := startSpinner("writing backup...")
			path, err := c.BackupVault(backupPassword, backupDir)
			s.Stop()
			if err != nil {
				return err
			}

			fmt.Printf("%s Backup written to %s\n", successPrefix(), path)
			return nil
		})
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups in the vault's backups directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		backups, err := c.Manager().ListBackups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("no backups")
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%s  %8d bytes  %s\n", b.Created.Format("2006-01-02 15:04:05"), b.Size, b.Path)
		}
		return nil
	},
}
