package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Merge an encrypted backup into the vault",
	Long: `Decrypts a backup with its own password and re-adds every secret into the
vault. The merge is additive: existing keys not present in the backup are
left untouched, keys present in both are overwritten and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]

		return withUnlockedVault(func(c *agentvault.Client) error {
			backupPassword, err := promptPassword("Backup password: ")
			if err != nil {
				return err
			}

			s := startSpinner("restoring backup...")
			result, err := c.RestoreVault(file, backupPassword)
			s.Stop()
			if err != nil {
				return err
			}

			fmt.Printf("%s Restored %d secrets\n", successPrefix(), result.Restored)
			if len(result.Overwritten) > 0 {
				fmt.Printf("%s Overwrote %d existing entries:\n", warnPrefix(), len(result.Overwritten))
				for _, path := range result.Overwritten {
					fmt.Printf("  %s\n", path)
				}
			}
			return nil
		})
	},
}
