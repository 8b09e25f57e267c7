package portalengine

import (
	"net/url"
	"path"
)

// BuildURL joins a base URL with path segments. The result has no
// trailing slash; every registered route matches its path exactly.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if len(pathSegments) > 0 {
		u.Path = path.Join(u.Path, path.Join(pathSegments...))
	}
	return u.String()
}
