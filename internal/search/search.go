// ABOUTME: Structured search requests forwarded to the host console
// ABOUTME: Defines places, prefixes, fields and the Navigator contract

package search

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Place is a console view that a search navigates to.
type Place string

const (
	PlaceDataCenter Place = "dataCenters"
	PlaceCluster    Place = "clusters"
	PlaceHost       Place = "hosts"
	PlaceStorage    Place = "storage"
	PlaceVolume     Place = "volumes"
	PlaceVM         Place = "vms"
	PlaceEvent      Place = "events"
)

// Search bar prefixes, one per place.
const (
	PrefixDataCenter = "DataCenter"
	PrefixCluster    = "Cluster"
	PrefixHost       = "Hosts"
	PrefixStorage    = "Storage"
	PrefixVolume     = "Volumes"
	PrefixVM         = "Vms"
	PrefixEvent      = "Events"
)

// Searchable field names.
const (
	FieldName     = "name"
	FieldStatus   = "status"
	FieldSeverity = "severity"
	FieldTime     = "time"
	FieldCluster  = "cluster"
)

// ErrMissingPlace is returned when a request does not name a place.
var ErrMissingPlace = errors.New("search request requires a place")

// Filter restricts a search to values of one field. An empty Operator means "=".
type Filter struct {
	Name     string   `json:"name"`
	Values   []string `json:"values"`
	Operator string   `json:"operator,omitempty"`
}

func (f Filter) operator() string {
	if f.Operator == "" {
		return "="
	}
	return f.Operator
}

// Request is one navigation to a place with optional filters.
type Request struct {
	Place   Place    `json:"place"`
	Prefix  string   `json:"prefix"`
	Filters []Filter `json:"filters,omitempty"`
}

// Validate checks the request has a place and named filters.
func (r Request) Validate() error {
	if r.Place == "" {
		return ErrMissingPlace
	}
	for i, f := range r.Filters {
		if f.Name == "" {
			return fmt.Errorf("filter %d: missing name", i)
		}
	}
	return nil
}

// Query renders the search string the console shows in its search bar, e.g.
// "Hosts: name = h1". Filters without values are skipped; multiple values of
// one filter are OR-ed, filters are AND-ed.
func (r Request) Query() string {
	var clauses []string
	for _, f := range r.Filters {
		if len(f.Values) == 0 {
			continue
		}
		terms := make([]string, len(f.Values))
		for i, v := range f.Values {
			terms[i] = fmt.Sprintf("%s %s %s", f.Name, f.operator(), v)
		}
		clause := strings.Join(terms, " or ")
		if len(terms) > 1 {
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, clause)
	}

	q := r.Prefix + ":"
	if len(clauses) > 0 {
		q += " " + strings.Join(clauses, " and ")
	}
	return q
}

// Navigator forwards searches to the host application. Calls are
// fire-and-forget.
type Navigator interface {
	ApplySearch(place Place, prefix string, filters ...Filter)
}

// Apply sends r through nav.
func Apply(nav Navigator, r Request) {
	nav.ApplySearch(r.Place, r.Prefix, r.Filters...)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(place Place, prefix string, filters ...Filter)

func (f NavigatorFunc) ApplySearch(place Place, prefix string, filters ...Filter) {
	f(place, prefix, filters...)
}

// Recorder keeps every request it receives. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

func (r *Recorder) ApplySearch(place Place, prefix string, filters ...Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, Request{Place: place, Prefix: prefix, Filters: filters})
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Last returns the most recent request, if any.
func (r *Recorder) Last() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}

// LogNavigator logs each search at info level.
type LogNavigator struct {
	Logger *slog.Logger
}

func (n LogNavigator) ApplySearch(place Place, prefix string, filters ...Filter) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	req := Request{Place: place, Prefix: prefix, Filters: filters}
	logger.Info("Applying search", "place", place, "query", req.Query())
}

// Multi fans a search out to several navigators in order.
type Multi []Navigator

func (m Multi) ApplySearch(place Place, prefix string, filters ...Filter) {
	for _, n := range m {
		n.ApplySearch(place, prefix, filters...)
	}
}
