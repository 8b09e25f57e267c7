package portalengine

import "time"

// SiteConfig holds all configuration for a portalengine site.
type SiteConfig struct {
	Name        string // Site name (default "Tools Portal")
	URL         string // Canonical URL (default "http://localhost:5000")
	Description string // Site description for meta tags and JSON-LD

	Addr         string // Listen address (default ":5000")
	DatabasePath string // SQLite path (default "data/portal.db")
	SnapshotPath string // JSON snapshot path (default "portal_data.json")

	// APIBaseURL, when set, makes the public pages fetch documents from
	// a remote admin instance over its JSON API instead of the local
	// store. Leave empty for the usual single-process deployment.
	APIBaseURL string

	AnalyticsEnabled      bool   // Enable page view analytics (default false)
	AnalyticsDatabasePath string // Visits SQLite path (default "data/analytics.db")

	AdminPassword     string // Admin login password (plaintext; prefer AdminPasswordHash)
	AdminPasswordHash string // bcrypt hash of the admin password, wins over AdminPassword
	SessionSecret     string // Required: session encryption secret
	CookieSecure      bool   // Set true for HTTPS

	PageCacheTTL time.Duration // Page cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Tools Portal"
	}
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/portal.db"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "portal_data.json"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.PageCacheTTL == 0 {
		c.PageCacheTTL = 5 * time.Minute
	}
}

// Option tweaks an App beyond what SiteConfig covers.
type Option func(*App)

// WithCustomRoutes runs fn against the App once the built-in routes
// exist, so callers can mount extra handlers on the Echo instance.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir overrides where user-owned static assets are read
// from. The default is "public".
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
