package portalengine

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// sessionName is the cookie carrying admin auth and editor scroll state.
const sessionName = "admin_session"

// sessionMaxAge bounds how long an admin login survives.
const sessionMaxAge = 12 * 60 * 60

// cspDirectives is the content security policy sent with every
// response. The editor runs one first-party script; styles may be
// inline because the page tree emits none of its own.
var cspDirectives = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' https: data:",
	"font-src 'self'",
	"connect-src 'self'",
}, "; ")

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(requestLogging())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: pathPrefixSkipper("/public/"),
	}))
	e.Use(securityHeaders())
	e.Use(session.Middleware(a.sessionStore()))
	e.Use(a.csrfProtection())
	e.Use(cacheControl)
}

// requestLogging emits one line per request through the echo logger.
func requestLogging() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s %s -> %d (%s)", v.RemoteIP, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}

func securityHeaders() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: cspDirectives,
		HSTSMaxAge:            31536000,
	})
}

// csrfProtection guards the admin forms with a double-submit cookie.
// The JSON API serves reads only and stays token-free.
func (a *App) csrfProtection() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		Skipper:        pathPrefixSkipper("/api/"),
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	})
}

func pathPrefixSkipper(prefix string) middleware.Skipper {
	return func(c echo.Context) bool {
		return strings.HasPrefix(c.Request().URL.Path, prefix)
	}
}

// cacheRules pair path classes with Cache-Control values, first match
// wins. Portal pages share the in-process page cache's idea of
// freshness; the admin and the API must never be cached.
var cacheRules = []struct {
	match func(path string) bool
	value string
}{
	{func(p string) bool { return strings.HasPrefix(p, "/public/") },
		"public, max-age=31536000, immutable"},
	{func(p string) bool { return p == "/sitemap.xml" || p == "/robots.txt" },
		"public, max-age=86400"},
	{func(p string) bool { return strings.HasPrefix(p, "/admin") || strings.HasPrefix(p, "/api/") },
		"no-store"},
}

const defaultCacheControl = "public, max-age=300"

func cacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		value := defaultCacheControl
		for _, r := range cacheRules {
			if r.match(path) {
				value = r.value
				break
			}
		}
		c.Response().Header().Set("Cache-Control", value)
		return next(c)
	}
}

func (a *App) sessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   sessionMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// adminSession loads the request's admin cookie session.
func adminSession(c echo.Context) (*sessions.Session, error) {
	return session.Get(sessionName, c)
}

// IsAdmin reports whether the request carries an authenticated admin
// session.
func IsAdmin(c echo.Context) bool {
	sess, err := adminSession(c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context) error {
	sess, err := adminSession(c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := adminSession(c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the request's CSRF token for form rendering.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// sessionScrollStore keeps editor scroll offsets in the admin cookie
// session. Session write failures drop the offset and nothing else.
type sessionScrollStore struct {
	c echo.Context
}

func (s sessionScrollStore) Get(key string) (string, bool) {
	sess, err := adminSession(s.c)
	if err != nil {
		return "", false
	}
	v, ok := sess.Values[key].(string)
	return v, ok
}

func (s sessionScrollStore) Set(key, value string) {
	sess, err := adminSession(s.c)
	if err != nil {
		return
	}
	sess.Values[key] = value
	_ = sess.Save(s.c.Request(), s.c.Response())
}

func (s sessionScrollStore) Remove(key string) {
	sess, err := adminSession(s.c)
	if err != nil {
		return
	}
	if _, ok := sess.Values[key]; !ok {
		return
	}
	delete(sess.Values, key)
	_ = sess.Save(s.c.Request(), s.c.Response())
}
