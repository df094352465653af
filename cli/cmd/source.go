// ABOUTME: Loads the dashboard view from the backend or a snapshot file
// ABOUTME: Shared by the status, check and dashboard commands

package cmd

import (
	"context"
	"fmt"

	"github.com/markalston/virt-dashboard/cli/internal/client"
	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

// loadDashboard returns the dashboard with every dialog closed and a label
// naming where it came from.
func loadDashboard(ctx context.Context) (*view.DashboardView, string, error) {
	if path := SnapshotFile(); path != "" {
		v, err := buildFromFile(path)
		return v, path, err
	}

	url := GetAPIURL()
	v, err := client.New(url).Dashboard(ctx, "")
	return v, url, err
}

func buildFromFile(path string) (*view.DashboardView, error) {
	s, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	dashboard, err := view.NewGlobalDashboard(intl.New(Locale()))
	if err != nil {
		return nil, fmt.Errorf("building dashboard: %w", err)
	}
	v := dashboard.Build(s, view.DashboardState{})
	return &v, nil
}
