// ABOUTME: Tests for snapshot source selection menu
// ABOUTME: Validates option labels, defaults and selection checks

package menu

import (
	"errors"
	"testing"
)

func TestMenuOptions(t *testing.T) {
	m := New("http://localhost:8080")

	if len(m.options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(m.options))
	}
	if m.options[0].label != "Backend API (http://localhost:8080)" {
		t.Errorf("unexpected API label %q", m.options[0].label)
	}
	if !m.options[0].enabled {
		t.Error("expected API option to be enabled when a URL is set")
	}
	if m.selected != SourceAPI {
		t.Errorf("expected API preselected, got %s", m.selected)
	}
}

func TestMenuAPIDisabled(t *testing.T) {
	m := New("")

	if m.options[0].enabled {
		t.Error("expected API option to be disabled without a URL")
	}
	if !m.options[1].enabled {
		t.Error("expected file option to always be enabled")
	}
	if m.selected != SourceFile {
		t.Errorf("expected file preselected, got %s", m.selected)
	}
}

func TestMenuValidate(t *testing.T) {
	m := New("")
	m.selected = SourceAPI

	if _, err := m.validate(); !errors.Is(err, ErrAPINotConfigured) {
		t.Errorf("expected ErrAPINotConfigured, got %v", err)
	}

	m.selected = SourceFile
	got, err := m.validate()
	if err != nil || got != SourceFile {
		t.Errorf("expected file source, got %s, %v", got, err)
	}
}

func TestMenuForm(t *testing.T) {
	if New("http://localhost:8080").form() == nil {
		t.Error("expected a form")
	}
}

func TestDataSourceString(t *testing.T) {
	tests := []struct {
		source   DataSource
		expected string
	}{
		{SourceAPI, "api"},
		{SourceFile, "file"},
		{DataSource(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.source.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
