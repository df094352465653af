// ABOUTME: Dashboard command launching the interactive terminal dashboard
// ABOUTME: Picks the snapshot source and wires the TUI to it

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/virt-dashboard/cli/internal/client"
	"github.com/markalston/virt-dashboard/cli/internal/tui"
	"github.com/markalston/virt-dashboard/cli/internal/tui/debuglog"
	"github.com/markalston/virt-dashboard/cli/internal/tui/menu"
	"github.com/markalston/virt-dashboard/cli/internal/tui/recentfiles"
	"github.com/markalston/virt-dashboard/cli/internal/tui/samples"
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/spf13/cobra"
)

var dashboardSource string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Open the interactive terminal dashboard.

Without --snapshot or --source a menu asks whether to read the backend API or
a snapshot file. Debug output goes to debug.log in the config directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runDashboard(ctx, os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardSource, "source", "", "Skip the source menu: api or file")
	rootCmd.AddCommand(dashboardCmd)
}

// runDashboard runs the TUI until the user quits and returns exit code
func runDashboard(ctx context.Context, w io.Writer) int {
	configDir := recentfiles.DefaultConfigDir()
	if err := debuglog.Init(configDir); err != nil {
		fmt.Fprintf(w, "Warning: debug log disabled: %v\n", err)
	}
	defer debuglog.Close()

	source, err := resolveSource()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	debuglog.Log("Starting dashboard", "source", source.String())

	cfg, err := dashboardConfig(source, configDir)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := ctx.Err(); err != nil {
		return 0
	}
	if err := tui.Run(cfg); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}

// resolveSource picks the snapshot source from --snapshot, --source or the menu
func resolveSource() (menu.DataSource, error) {
	switch {
	case SnapshotFile() != "":
		return menu.SourceFile, nil
	case dashboardSource == menu.SourceAPI.String():
		return menu.SourceAPI, nil
	case dashboardSource == menu.SourceFile.String():
		return menu.SourceFile, nil
	case dashboardSource != "":
		return 0, fmt.Errorf("unknown source %q (want api or file)", dashboardSource)
	}
	return menu.New(GetAPIURL()).Run()
}

func dashboardConfig(source menu.DataSource, configDir string) (tui.Config, error) {
	cfg := tui.Config{Localizer: intl.New(Locale())}

	switch source {
	case menu.SourceAPI:
		c := client.New(GetAPIURL())
		cfg.Source = c
		cfg.Navigator = c
		cfg.Refresh = func(ctx context.Context) error {
			_, err := c.Refresh(ctx)
			return err
		}
	case menu.SourceFile:
		cfg.PickFiles = true
		cfg.Navigator = tui.LocalNavigator{Navigator: search.LogNavigator{Logger: debuglog.Logger()}}
		if configDir != "" {
			cfg.RecentFiles = recentfiles.New(configDir)
		}
		if cwd, err := os.Getwd(); err == nil {
			cfg.SamplesDir = samples.FindSamplesDir(cwd)
		}
		if path := SnapshotFile(); path != "" {
			cfg.Source = snapshot.FileSource{Path: path}
		}
	default:
		return tui.Config{}, fmt.Errorf("unsupported source %s", source)
	}
	return cfg, nil
}
