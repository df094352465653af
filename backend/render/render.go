// ABOUTME: HTML renderer for the dashboard main tab
// ABOUTME: Executes the embedded template over a dashboard view with sprig helpers

package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"

	"github.com/markalston/virt-dashboard/internal/intl"
	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/threshold"
	"github.com/markalston/virt-dashboard/internal/view"
)

//go:embed templates/*.html.tmpl
var templates embed.FS

// Paths are the URLs the rendered page links to.
type Paths struct {
	Tab      string
	Navigate string
	Refresh  string
}

type Renderer struct {
	tmpl  *template.Template
	lang  string
	paths Paths
}

type mainTab struct {
	View         view.DashboardView
	Lang         string
	TabPath      string
	NavigatePath string
	RefreshPath  string
}

// New parses the embedded templates. now is used for relative times.
func New(loc intl.Localizer, lang string, paths Paths, now func() time.Time) (*Renderer, error) {
	funcs := sprig.HtmlFuncMap()
	for name, fn := range (template.FuncMap{
		"lastUpdated":   func(t time.Time) string { return lastUpdated(loc, t, now()) },
		"query":         func(r *search.Request) string { return r.Query() },
		"dialogURL":     dialogURL,
		"donutDash":     donutDash,
		"sparkline":     sparklinePoints,
		"severityBar":   severityBar,
		"severityColor": severityColor,
	}) {
		funcs[name] = fn
	}

	tmpl, err := template.New("render").Funcs(funcs).ParseFS(templates, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, lang: lang, paths: paths}, nil
}

// MainTab writes the full dashboard page. The page is rendered into a buffer
// first so a template error never leaves a half-written response.
func (r *Renderer) MainTab(w io.Writer, v view.DashboardView) error {
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "main-tab", mainTab{
		View:         v,
		Lang:         r.lang,
		TabPath:      r.paths.Tab,
		NavigatePath: r.paths.Navigate,
		RefreshPath:  r.paths.Refresh,
	})
	if err != nil {
		return fmt.Errorf("rendering main tab: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func lastUpdated(loc intl.Localizer, t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return loc.Msg(intl.LastUpdated, humanize.RelTime(t, now, "ago", "from now"))
}

func dialogURL(tabPath, resource string) string {
	return tabPath + "?" + url.Values{"dialog": {resource}}.Encode()
}

// donutDash draws percent of a circle whose circumference is 100.
func donutDash(percent float64) string {
	p := math.Max(0, math.Min(100, percent))
	return fmt.Sprintf("%.1f %.1f", p, 100-p)
}

// sparklinePoints scales history points into a width x height box. Values
// are scaled against the card total, or the largest value when the total is
// unknown.
func sparklinePoints(s view.Sparkline, width, height float64) string {
	n := len(s.Points)
	if n == 0 {
		return ""
	}
	top := s.Total
	for _, p := range s.Points {
		top = math.Max(top, p.Value)
	}
	if top <= 0 {
		top = 1
	}

	pts := make([]string, n)
	for i, p := range s.Points {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1) * width
		}
		y := height - p.Value/top*height
		pts[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}
	return strings.Join(pts, " ")
}

func severityBar(s threshold.Severity) string {
	switch s {
	case threshold.Error:
		return "progress-bar-danger"
	case threshold.Warning:
		return "progress-bar-warning"
	}
	return "progress-bar-success"
}

func severityColor(s threshold.Severity) string {
	switch s {
	case threshold.Error:
		return "#cc0000"
	case threshold.Warning:
		return "#ec7a08"
	}
	return "#0088ce"
}
