// ABOUTME: Entry point for the virt-dashboard CLI
// ABOUTME: Utilization reports, threshold checks and the terminal dashboard

package main

import (
	"fmt"
	"os"

	"github.com/markalston/virt-dashboard/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
