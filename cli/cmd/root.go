// ABOUTME: Root command for the virt-dashboard CLI
// ABOUTME: Handles global flags and configuration through viper

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultAPIURL = "http://localhost:8080"
	defaultLocale = "en"

	keyAPIURL   = "api-url"
	keyJSON     = "json"
	keySnapshot = "snapshot"
	keyLocale   = "locale"
)

// settings resolves global options: flag, then environment, then default.
var settings = viper.New()

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "virt-dashboard",
	Short: "CLI for the virtualization dashboard",
	Long: `virt-dashboard is a command-line interface for the virtualization dashboard.

It prints utilization summaries, checks thresholds in CI/CD pipelines and
runs an interactive terminal dashboard, against the backend API or a local
snapshot file.

Environment Variables:
  VIRT_DASHBOARD_API_URL  Backend API URL (default: http://localhost:8080)
  VIRT_DASHBOARD_LOCALE   Number formatting locale for snapshot files (default: en)
  VIRT_DASHBOARD_SAMPLES_PATH  Sample snapshots offered by the dashboard file picker`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyAPIURL, "", "Backend API URL (overrides VIRT_DASHBOARD_API_URL)")
	flags.Bool(keyJSON, false, "Output JSON instead of human-readable text")
	flags.String(keySnapshot, "", "Read this snapshot file instead of the backend")
	flags.String(keyLocale, "", "Locale used to format snapshot files (overrides VIRT_DASHBOARD_LOCALE)")

	for _, key := range []string{keyAPIURL, keyJSON, keySnapshot, keyLocale} {
		// BindPFlag only fails for a nil flag, and every key is registered above
		_ = settings.BindPFlag(key, flags.Lookup(key))
	}
	_ = settings.BindEnv(keyAPIURL, "VIRT_DASHBOARD_API_URL")
	_ = settings.BindEnv(keyLocale, "VIRT_DASHBOARD_LOCALE")
	settings.SetDefault(keyAPIURL, defaultAPIURL)
	settings.SetDefault(keyLocale, defaultLocale)
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if url := settings.GetString(keyAPIURL); url != "" {
		return url
	}
	return defaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return settings.GetBool(keyJSON)
}

// SnapshotFile returns the local snapshot path, empty when the backend is used.
func SnapshotFile() string {
	return settings.GetString(keySnapshot)
}

// Locale returns the locale used to build views from snapshot files.
func Locale() string {
	return settings.GetString(keyLocale)
}
