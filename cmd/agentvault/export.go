package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var exportForce bool

func init() {
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "skip the plaintext warning prompt")
}

var exportCmd = &cobra.Command{
	Use:   "export <file> [category...]",
	Short: "Export secrets as PLAINTEXT JSON (dangerous)",
	Long: `Writes decrypted secret values to a plaintext JSON file on disk. The
output is completely unprotected; anyone who can read the file can read
every exported secret. Only for deliberate migrations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, categories := args[0], args[1:]

		if !exportForce {
			fmt.Printf("%s This writes secret values UNENCRYPTED to %s\n", warnPrefix(), file)
			answer, err := promptLine("Continue? [y/N]: ")
			if err != nil {
				return err
			}
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("aborted")
				return nil
			}
		}

		return withUnlockedVault(func(c *agentvault.Client) error {
			if err := c.ExportSecrets(file, categories...); err != nil {
				return err
			}
			fmt.Printf("%s Exported to %s — delete this file as soon as it has served its purpose\n", warnPrefix(), file)
			return nil
		})
	},
}
