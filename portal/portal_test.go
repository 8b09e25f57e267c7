package portal

import (
	"net/url"
	"testing"
)

func location(rawURL string) Location {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return LocationFromURL(u)
}

func TestResolveSlug(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://portal.local/p/tools", "tools"},
		{"http://portal.local/p/tools/extra", "tools"},
		{"http://portal.local/p/%E4%B8%BB%E9%A1%B5", "主页"},
		{"http://portal.local/?page=status", "status"},
		{"http://portal.local/p/tools?page=ignored", "tools"},
		{"http://portal.local/", "home"},
		{"http://portal.local/other", "home"},
		{"http://portal.local/?page=", "home"},
	}
	for _, tt := range tests {
		got := ResolveSlug(location(tt.url))
		if got != tt.expected {
			t.Errorf("ResolveSlug(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status   string
		expected string
	}{
		{"online", "status-online"},
		{"Online", "status-online"},
		{"ONLINE", "status-online"},
		{"updated", "status-updated"},
		{"Updated", "status-updated"},
		{"archived", "status-neutral"},
		{"维护中", "status-neutral"},
		{"  online  ", "status-online"},
	}
	for _, tt := range tests {
		got := StatusClass(tt.status)
		if got != tt.expected {
			t.Errorf("StatusClass(%q) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Slug: "missing-page"}
	want := `page "missing-page" not found`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
