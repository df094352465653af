// ABOUTME: Status command for the virt-dashboard CLI
// ABOUTME: Shows global utilization and inventory totals

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

	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/view"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current utilization",
	Long:  `Display global CPU, memory and storage utilization with their severity, followed by inventory totals.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runStatus(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type cardStatus struct {
	Resource view.Resource      `json:"resource"`
	Title    string             `json:"title"`
	Percent  float64            `json:"percent"`
	Severity threshold.Severity `json:"severity"`
}

type inventoryTotal struct {
	Title string `json:"title"`
	Total string `json:"total"`
}

type statusReport struct {
	Source      string           `json:"source"`
	LastUpdated time.Time        `json:"last_updated"`
	Utilization []cardStatus     `json:"utilization"`
	Inventory   []inventoryTotal `json:"inventory"`
}

// runStatus prints the status report and returns exit code
func runStatus(ctx context.Context, w io.Writer) int {
	v, source, err := loadDashboard(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	report := newStatusReport(source, v)
	if IsJSONOutput() {
		fmt.Fprintln(w, formatStatusJSON(report))
	} else {
		fmt.Fprintln(w, formatStatusHuman(report))
	}
	return 0
}

func newStatusReport(source string, v *view.DashboardView) statusReport {
	r := statusReport{Source: source, LastUpdated: v.LastUpdated}
	for _, u := range v.Utilization {
		r.Utilization = append(r.Utilization, cardStatus{
			Resource: u.Resource,
			Title:    u.Title,
			Percent:  u.Donut.Percent,
			Severity: u.Donut.Severity,
		})
	}
	for _, c := range v.StatusCards {
		r.Inventory = append(r.Inventory, inventoryTotal{Title: c.Title, Total: c.TotalCount})
	}
	return r
}

// formatStatusHuman formats the report for human readability
func formatStatusHuman(r statusReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source:       %s\n", r.Source)
	if !r.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s\n", r.LastUpdated.Format(time.RFC3339))
	}
	b.WriteString("\n")
	for _, c := range r.Utilization {
		fmt.Fprintf(&b, "%s %.0f%% used [%s]\n", c.Title, c.Percent, c.Severity)
	}
	b.WriteString("\n")
	for i, inv := range r.Inventory {
		fmt.Fprintf(&b, "%-22s %s", inv.Title+":", inv.Total)
		if i < len(r.Inventory)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatStatusJSON formats the report as JSON
func formatStatusJSON(r statusReport) string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}
