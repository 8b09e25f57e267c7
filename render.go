package portalengine

import (
	"net/http"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Render writes a gomponents node as an HTTP 200 HTML response.
func Render(c echo.Context, n g.Node) error {
	return RenderStatus(c, http.StatusOK, n)
}

// RenderStatus writes a gomponents node with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, n g.Node) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return n.Render(c.Response().Writer)
}
