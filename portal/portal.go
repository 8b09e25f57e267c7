// Package portal renders stored page documents into the visitor
// facing page tree. Documents are fetched over the same JSON API the
// admin exposes, so the renderer sees exactly what any other consumer
// of the API would see.
package portal

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/eringen/portalengine/page"
)

// DefaultSlug is rendered when the location names no page.
const DefaultSlug = "home"

var rePagePath = regexp.MustCompile(`^/p/([^/]+)`)

// Location is the request context slug resolution works from.
type Location struct {
	Path  string
	Query url.Values
}

// LocationFromURL captures the parts of a request URL the renderer
// cares about.
func LocationFromURL(u *url.URL) Location {
	return Location{Path: u.EscapedPath(), Query: u.Query()}
}

// ResolveSlug picks the page to show: the decoded /p/<slug> path
// segment when present, else the page query parameter, else the
// default page.
func ResolveSlug(loc Location) string {
	if m := rePagePath.FindStringSubmatch(loc.Path); m != nil {
		if seg, err := url.PathUnescape(m[1]); err == nil {
			return seg
		}
		return m[1]
	}
	if q := loc.Query.Get("page"); q != "" {
		return q
	}
	return DefaultSlug
}

// Source loads page documents by slug.
type Source interface {
	Fetch(ctx context.Context, slug string) (page.Document, error)
}

// NotFoundError reports a slug the source has no document for.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("page %q not found", e.Slug)
}
