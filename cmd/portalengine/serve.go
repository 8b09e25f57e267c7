package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/portalengine"
)

// runServe starts a portal configured entirely through PORTAL_*
// environment variables, loading a local .env file when present.
func runServe() error {
	_ = godotenv.Load()

	cfg := portalengine.SiteConfig{
		Name:        portalengine.EnvOr("PORTAL_SITE_NAME", ""),
		URL:         portalengine.EnvOr("PORTAL_SITE_URL", ""),
		Description: portalengine.EnvOr("PORTAL_SITE_DESCRIPTION", ""),

		Addr:         portalengine.EnvOr("PORTAL_ADDR", ""),
		DatabasePath: portalengine.EnvOr("PORTAL_DATABASE_PATH", ""),
		SnapshotPath: portalengine.EnvOr("PORTAL_SNAPSHOT_PATH", ""),
		APIBaseURL:   portalengine.EnvOr("PORTAL_API_BASE_URL", ""),

		AnalyticsEnabled:      envBool("PORTAL_ANALYTICS"),
		AnalyticsDatabasePath: portalengine.EnvOr("PORTAL_ANALYTICS_DATABASE_PATH", ""),

		AdminPassword:     os.Getenv("PORTAL_ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("PORTAL_ADMIN_PASSWORD_HASH"),
		SessionSecret:     portalengine.MustEnv("PORTAL_SESSION_SECRET"),
		CookieSecure:      envBool("PORTAL_COOKIE_SECURE"),
	}

	if ttl := os.Getenv("PORTAL_PAGE_CACHE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("parse PORTAL_PAGE_CACHE_TTL: %w", err)
		}
		cfg.PageCacheTTL = d
	}

	app, err := portalengine.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Start()
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
