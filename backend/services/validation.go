// ABOUTME: Input validation for navigation requests received over the API
// ABOUTME: Restricts places, prefixes, fields and operators to the known search vocabulary

package services

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/markalston/virt-dashboard/internal/search"
)

// fieldNamePattern matches search field names (lowercase identifiers)
var fieldNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)

// placePrefixes pairs every known place with its search bar prefix.
var placePrefixes = map[search.Place]string{
	search.PlaceDataCenter: search.PrefixDataCenter,
	search.PlaceCluster:    search.PrefixCluster,
	search.PlaceHost:       search.PrefixHost,
	search.PlaceStorage:    search.PrefixStorage,
	search.PlaceVolume:     search.PrefixVolume,
	search.PlaceVM:         search.PrefixVM,
	search.PlaceEvent:      search.PrefixEvent,
}

var operators = []string{"", "=", "!=", ">", "<", ">=", "<="}

const (
	maxFilters     = 8
	maxFilterValue = 256
)

// sanitizeForLog removes control characters from strings to prevent log injection
// when including user input in error messages
func sanitizeForLog(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1 // Remove control characters
		}
		return r
	}, s)
}

// ValidateNavigation checks a search request from an API client before it is
// forwarded to the console. An empty prefix is filled in from the place.
func ValidateNavigation(r *search.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	prefix, ok := placePrefixes[r.Place]
	if !ok {
		return fmt.Errorf("unknown place: %s", sanitizeForLog(string(r.Place)))
	}
	if r.Prefix == "" {
		r.Prefix = prefix
	} else if r.Prefix != prefix {
		return fmt.Errorf("prefix %s does not match place %s", sanitizeForLog(r.Prefix), r.Place)
	}

	if len(r.Filters) > maxFilters {
		return fmt.Errorf("too many filters: %d (max %d)", len(r.Filters), maxFilters)
	}
	for _, f := range r.Filters {
		if !fieldNamePattern.MatchString(f.Name) {
			return fmt.Errorf("invalid filter name: %s", sanitizeForLog(f.Name))
		}
		if !slices.Contains(operators, f.Operator) {
			return fmt.Errorf("invalid operator for %s: %s", f.Name, sanitizeForLog(f.Operator))
		}
		for _, v := range f.Values {
			if len(v) > maxFilterValue {
				return fmt.Errorf("value for %s exceeds %d bytes", f.Name, maxFilterValue)
			}
			if sanitizeForLog(v) != v {
				return fmt.Errorf("value for %s contains control characters", f.Name)
			}
		}
	}
	return nil
}
