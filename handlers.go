package portalengine

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portalengine/page"
	"github.com/eringen/portalengine/portal"
	"github.com/eringen/portalengine/views"
)

// handlePortalPage serves / and /p/:slug. Unknown slugs and load
// failures render their cards in the page shell with a 200, matching
// how the portal has always answered page URLs; only the JSON API
// reports missing pages with a status code.
func (a *App) handlePortalPage(c echo.Context) error {
	loc := portal.LocationFromURL(c.Request().URL)
	node, title := a.renderer.LoadAndRender(c.Request().Context(), loc)
	if title != "" {
		a.recordVisit(c, portal.ResolveSlug(loc))
	}
	return Render(c, views.PortalPage(a.site(), title, node))
}

func (a *App) handleAPIPages(c echo.Context) error {
	pages, err := a.Store.ListPages()
	if err != nil {
		return err
	}
	if pages == nil {
		pages = []page.Summary{}
	}
	return c.JSON(http.StatusOK, pages)
}

// handleAPIPage serves /api/pages/:file where file is <slug>.json.
func (a *App) handleAPIPage(c echo.Context) error {
	file := c.Param("file")
	slug := strings.TrimSuffix(file, ".json")
	if slug == file || slug == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	doc, err := a.Store.GetPage(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nDisallow: /admin\n")
}

func (a *App) handleSitemap(c echo.Context) error {
	pages, err := a.Store.ListPages()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, pages)
}

func (a *App) site() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	path := c.Request().URL.Path
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound && !strings.HasPrefix(path, "/api/") {
		slug := portal.ResolveSlug(portal.LocationFromURL(c.Request().URL))
		_ = RenderStatus(c, http.StatusNotFound,
			views.PortalPage(a.site(), "", portal.NotFoundCard(slug)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.PortalPage(a.site(), "", portal.ErrorCard()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
