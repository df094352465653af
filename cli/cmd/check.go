// ABOUTME: Check command for the virt-dashboard CLI
// ABOUTME: Validates utilization thresholds for CI/CD pipelines

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/view"
	"github.com/spf13/cobra"
)

var thresholds = map[view.Resource]*int{
	view.ResourceCPU:     new(int),
	view.ResourceMemory:  new(int),
	view.ResourceStorage: new(int),
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check utilization thresholds",
	Long: `Check global utilization thresholds and exit non-zero if any are exceeded.

Exit codes:
  0 - All checks passed
  1 - One or more thresholds exceeded
  2 - Error (connectivity, no data, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runCheck(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	def := int(threshold.Utilization.ErrorPct)
	for _, r := range view.Resources {
		checkCmd.Flags().IntVar(thresholds[r], string(r)+"-threshold", def,
			fmt.Sprintf("%s utilization threshold percentage", r))
	}
}

// checkResult represents the result of a single threshold check
type checkResult struct {
	name      string
	value     float64
	threshold float64
	unit      string
	passed    bool
}

// runCheck executes the threshold checks and returns exit code
func runCheck(ctx context.Context, w io.Writer) int {
	if err := validateThresholds(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	v, _, err := loadDashboard(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if len(v.Utilization) == 0 {
		fmt.Fprintln(w, "Error: no utilization data.")
		return 2
	}

	results := performChecks(v)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return 1
	}
	return 0
}

// validateThresholds ensures threshold values are valid
func validateThresholds() error {
	for _, r := range view.Resources {
		if t := *thresholds[r]; t < 0 || t > 100 {
			return fmt.Errorf("--%s-threshold must be between 0 and 100", r)
		}
	}
	return nil
}

// performChecks compares each utilization card against its threshold
func performChecks(v *view.DashboardView) []checkResult {
	var results []checkResult
	for _, u := range v.Utilization {
		limit, ok := thresholds[u.Resource]
		if !ok {
			continue
		}
		results = append(results, checkResult{
			name:      u.Title + " utilization",
			value:     u.Donut.Percent,
			threshold: float64(*limit),
			unit:      "%",
			passed:    u.Donut.Percent <= float64(*limit),
		})
	}
	return results
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		output += fmt.Sprintf("%s %s: %.0f%s (threshold: %.0f%s)\n",
			symbol, r.name, r.value, r.unit, r.threshold, r.unit)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) exceeded threshold", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) within thresholds", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]any, len(results))
	for i, r := range results {
		checks[i] = map[string]any{
			"name":      r.name,
			"value":     r.value,
			"threshold": r.threshold,
			"unit":      r.unit,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	output := map[string]any{
		"status": status,
		"checks": checks,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
