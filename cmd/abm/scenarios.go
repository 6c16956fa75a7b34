package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitcoin-abm/src/scenarios"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in scenarios",
	Long:  `Shows every scenario compiled into the simulator, in catalog order.`,
	Run:   runScenarios,
}

func runScenarios(_ *cobra.Command, _ []string) {
	list := scenarios.NewRegistry().List()

	fmt.Println("Available scenarios:")
	fmt.Println()

	maxIDLen := 2
	for _, scn := range list {
		if len(scn.ID) > maxIDLen {
			maxIDLen = len(scn.ID)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Name")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "----")

	for _, scn := range list {
		fmt.Printf("  %-*s  %s\n", maxIDLen, scn.ID, scn.Name)
		if scn.Hypothesis != "" {
			fmt.Printf("  %-*s  > %s\n", maxIDLen, "", scn.Hypothesis)
		}
	}

	fmt.Println()
	fmt.Println("Run 'abm watch --scenario <id>' to explore one.")
}
