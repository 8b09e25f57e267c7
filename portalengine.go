// Package portalengine is a portal content engine built with Go, Echo,
// and gomponents. It serves structured pages assembled from hero, text,
// and card sections, and ships the back-office editor, page store,
// snapshot export, sitemap, and analytics out of the box.
//
// A site embeds the engine through New with a SiteConfig; the engine
// owns the handler logic, middleware, and database operations.
package portalengine

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portalengine/analytics"
	"github.com/eringen/portalengine/portal"
)

// App is the central portalengine application. It wires together the
// store, cache, renderer, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PageCache

	renderer       *portal.Renderer
	loginLimiter   *LoginLimiter
	analytics      *analytics.Handler
	analyticsStore *analytics.Store
	stopCleanup    func()
	customRoutes   []func(*App)
	staticDir      string
}

// New creates a portalengine App: it validates the configuration, opens
// the page store, and registers middleware and routes. The returned App
// is ready to Start.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("portalengine: SessionSecret is required")
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("portalengine: AdminPassword or AdminPasswordHash is required")
	}

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	store, err := NewStore(cfg.DatabasePath, cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("portalengine: init store: %w", err)
	}
	a.Store = store

	// Public pages normally read the local store; with APIBaseURL set
	// they fetch from a remote admin instance instead.
	var source portal.Source = storeSource{store: store}
	if cfg.APIBaseURL != "" {
		source = &portal.Client{BaseURL: cfg.APIBaseURL}
	}
	a.Cache = NewPageCache(source, cfg.PageCacheTTL)
	a.renderer = &portal.Renderer{Source: a.Cache}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if cfg.AnalyticsEnabled {
		analyticsStore, err := analytics.NewStore(cfg.AnalyticsDatabasePath)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("portalengine: init analytics: %w", err)
		}
		if err := analytics.InitSalt(analyticsStore); err != nil {
			analyticsStore.Close()
			store.Close()
			return nil, fmt.Errorf("portalengine: init analytics salt: %w", err)
		}
		a.analyticsStore = analyticsStore
		a.analytics = analytics.NewHandler(analyticsStore)
		a.stopCleanup = analyticsStore.StartCleanupScheduler(365, 24*time.Hour)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	return a, nil
}

// Start runs the HTTP server on the configured address and blocks until
// the server shuts down.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Engine assets are served under /public/ and fall through to the
	// site's static dir for everything else.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	for _, name := range []string{"portal.css", "admin.css", "admin.js"} {
		e.GET("/public/"+name, echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	}
	e.Static("/public", a.staticDir)

	e.GET("/robots.txt", handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)

	// Public portal
	e.GET("/", a.handlePortalPage)
	e.GET("/p/:slug", a.handlePortalPage)
	e.GET("/api/pages", a.handleAPIPages)
	e.GET("/api/pages/:file", a.handleAPIPage)

	// Admin
	e.GET("/admin", a.handleAdmin)
	e.POST("/admin", a.handleAdminSubmit)
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", handleAdminLogout)

	if a.analytics != nil {
		adminOnly := func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if !IsAdmin(c) {
					return c.Redirect(http.StatusSeeOther, "/admin")
				}
				return next(c)
			}
		}
		a.analytics.RegisterRoutes(e, adminOnly)
	}
}

// recordVisit counts one page view when analytics is enabled.
func (a *App) recordVisit(c echo.Context, slug string) {
	if a.analytics == nil {
		return
	}
	a.analytics.RecordPageView(c, slug)
}

// Close stops the background workers and closes the databases.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.analyticsStore != nil {
		a.analyticsStore.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	return nil
}

// EnvOr reads the environment variable key, falling back when it is
// unset or empty. Scaffolded main.go files build their SiteConfig with it.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv reads a required environment variable and exits the process
// when it is missing.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("portalengine: required environment variable %s is not set", key)
	}
	return v
}
