// ABOUTME: One-shot registration of the dashboard with a console plugin host
// ABOUTME: Adds the primary menu place on UI init and signals readiness

package plugin

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Placement constants for the dashboard main tab.
const (
	PlaceToken   = "dashboard-main"
	SearchPrefix = "Dashboard"
	Icon         = "fa-tachometer"
	// Negative priority positions the tab before the standard ones.
	Priority = -1
	MainTab  = "main-tab.html"
)

// MenuPlaceOptions customizes a primary menu place.
type MenuPlaceOptions struct {
	Priority     int    `json:"priority"`
	SearchPrefix string `json:"searchPrefix"`
	DefaultPlace bool   `json:"defaultPlace"`
	Icon         string `json:"icon"`
}

// MenuPlace is a navigation entry in the console's primary menu.
type MenuPlace struct {
	Title   string           `json:"title"`
	Token   string           `json:"token"`
	URL     string           `json:"url"`
	Options MenuPlaceOptions `json:"options"`
}

// EventHandlers are the callbacks a plugin registers with its host.
type EventHandlers struct {
	UiInit func()
}

// Host is the plugin API exposed by the console.
type Host interface {
	Register(handlers EventHandlers)
	AddPrimaryMenuPlace(place MenuPlace)
	Ready()
}

// InitFunc runs application initialization before the host is told the
// plugin is ready.
type InitFunc func(ctx context.Context) error

// Config holds the values the registration needs from the application.
type Config struct {
	Title    string
	BasePath string
}

// DashboardPlace returns the primary menu place for the dashboard.
func DashboardPlace(cfg Config) MenuPlace {
	return MenuPlace{
		Title: cfg.Title,
		Token: PlaceToken,
		URL:   strings.TrimRight(cfg.BasePath, "/") + "/" + MainTab,
		Options: MenuPlaceOptions{
			Priority:     Priority,
			SearchPrefix: SearchPrefix,
			DefaultPlace: true,
			Icon:         Icon,
		},
	}
}

// Register wires the dashboard into host. The UiInit handler adds the main
// tab; Ready is signalled only after init succeeds. A nil init is treated as
// already initialized.
func Register(ctx context.Context, host Host, cfg Config, init InitFunc) error {
	place := DashboardPlace(cfg)
	host.Register(EventHandlers{
		UiInit: func() {
			host.AddPrimaryMenuPlace(place)
		},
	})

	if init != nil {
		if err := init(ctx); err != nil {
			return fmt.Errorf("plugin init: %w", err)
		}
	}

	host.Ready()
	return nil
}

// Manifest is an in-process Host. It runs UiInit as soon as handlers are
// registered and exposes what was registered. Safe for concurrent use.
type Manifest struct {
	mu     sync.RWMutex
	places []MenuPlace
	ready  bool
}

// ManifestInfo is a point-in-time view of a Manifest.
type ManifestInfo struct {
	Places []MenuPlace `json:"places"`
	Ready  bool        `json:"ready"`
}

// NewManifest creates an empty manifest host.
func NewManifest() *Manifest {
	return &Manifest{}
}

func (m *Manifest) Register(handlers EventHandlers) {
	if handlers.UiInit != nil {
		handlers.UiInit()
	}
}

func (m *Manifest) AddPrimaryMenuPlace(place MenuPlace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places = append(m.places, place)
}

func (m *Manifest) Ready() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = true
}

// Info returns the registered places and readiness.
func (m *Manifest) Info() ManifestInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	places := make([]MenuPlace, len(m.places))
	copy(places, m.places)
	return ManifestInfo{Places: places, Ready: m.ready}
}
