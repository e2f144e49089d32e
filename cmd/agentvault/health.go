package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the vault without unlocking it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		report := c.HealthCheck()

		var status string
		switch report.Status {
		case agentvault.HealthHealthy:
			status = color.GreenString(string(report.Status))
		case agentvault.HealthWarning:
			status = color.YellowString(string(report.Status))
		default:
			status = color.RedString(string(report.Status))
		}
		fmt.Printf("Status: %s\n", status)

		for _, issue := range report.Issues {
			fmt.Printf("%s %s\n", errorPrefix(), issue)
		}
		for _, warning := range report.Warnings {
			fmt.Printf("%s %s\n", warnPrefix(), warning)
		}
		return nil
	},
}
