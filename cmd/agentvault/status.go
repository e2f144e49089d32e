package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		fmt.Printf("Vault directory: %s\n", c.Dir())
		if !c.Exists() {
			fmt.Println("Status:          not initialized")
			return nil
		}
		fmt.Println("Status:          initialized")
		// A fresh CLI process never holds a key, so the vault is always
		// locked from here.
		fmt.Println("Locked:          true")
		return nil
	},
}
