// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Maps dashboard icon classes to terminal glyphs

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("VIRT_DASHBOARD_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	// Terminals that usually ship with a patched font
	for _, t := range []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"} {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Inventory
	DataCenter = Icon{"󰒍", "▤"} // nf-md-office_building
	Cluster    = Icon{"󱃾", "⬡"} // nf-md-hexagon_multiple
	Host       = Icon{"󰇄", "▢"} // nf-md-desktop_classic
	Storage    = Icon{"󰋊", "■"} // nf-md-harddisk
	Volume     = Icon{"󰆼", "▥"} // nf-md-database
	VM         = Icon{"󰍹", "□"} // nf-md-monitor
	Event      = Icon{"󰂚", "♪"} // nf-md-bell

	// Utilization
	CPU    = Icon{"", "●"}  // nf-oct-cpu
	Memory = Icon{"󰍛", "◆"} // nf-md-memory
	Disk   = Icon{"󰋊", "■"} // nf-md-harddisk

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info
	Unknown  = Icon{"", "?"} // nf-oct-question

	// Trends and charts
	TrendUp   = Icon{"󰄬", "↗"} // nf-md-trending_up
	TrendDown = Icon{"󰄰", "↘"} // nf-md-trending_down
	Chart     = Icon{"󰄭", "▁"} // nf-md-chart_line

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Search  = Icon{"󰍉", "⌕"} // nf-md-magnify
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app

	// Application
	App = Icon{"󰕮", "◈"} // nf-md-view_dashboard
)

// classIcons maps the web icon classes carried by the view models.
var classIcons = map[string]Icon{
	"fa fa-building-o":                 DataCenter,
	"pficon pficon-cluster":            Cluster,
	"pficon pficon-screen":             Host,
	"pficon pficon-storage-domain":     Storage,
	"pficon pficon-volume":             Volume,
	"pficon pficon-virtual-machine":    VM,
	"fa fa-bell":                       Event,
	"pficon pficon-ok":                 CheckOK,
	"fa fa-arrow-circle-o-up":          CheckOK,
	"fa fa-arrow-circle-o-down":        Critical,
	"pficon pficon-error-circle-o":     Critical,
	"pficon pficon-warning-triangle-o": Warning,
	"pficon pficon-flag":               Info,
	"fa fa-question":                   Unknown,
	"pficon pficon-trend-up":           TrendUp,
	"pficon pficon-trend-down":         TrendDown,
}

// ForClass returns the glyph for a web icon class, falling back to Unknown.
func ForClass(class string) Icon {
	if icon, ok := classIcons[class]; ok {
		return icon
	}
	return Unknown
}
