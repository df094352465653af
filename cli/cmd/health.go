// ABOUTME: Health command for the virt-dashboard CLI
// ABOUTME: Checks backend connectivity, snapshot freshness and vSphere status

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/markalston/virt-dashboard/cli/internal/client"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to the dashboard backend and report snapshot, refresh and vSphere status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	snap := "none"
	if resp.Snapshot.Available {
		snap = resp.Snapshot.Source
		if !resp.Snapshot.CollectedAt.IsZero() {
			snap += " (" + resp.Snapshot.CollectedAt.Format(time.RFC3339) + ")"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backend:       %s\n", url)
	fmt.Fprintf(&b, "Status:        %s\n", resp.Status)
	fmt.Fprintf(&b, "Snapshot:      %s\n", snap)
	fmt.Fprintf(&b, "vSphere:       %s\n", resp.VSphere)
	if resp.Refresh != nil && resp.Refresh.LastError != "" {
		fmt.Fprintf(&b, "Last error:    %s\n", resp.Refresh.LastError)
	}
	fmt.Fprintf(&b, "Cache Entries: %d", resp.CacheEntries)
	return b.String()
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *client.HealthResponse) string {
	output := struct {
		Backend string `json:"backend"`
		*client.HealthResponse
	}{url, resp}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
