package portalengine

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portalengine/page"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// renderSitemap lists the site root plus one URL per page. Pages carry
// no modification date, so no lastmod is emitted.
func (a *App) renderSitemap(c echo.Context, pages []page.Summary) error {
	set := urlSet{
		Xmlns: sitemapNS,
		URLs:  make([]urlEntry, 0, len(pages)+1),
	}
	set.URLs = append(set.URLs, urlEntry{Loc: BuildURL(a.Config.URL)})
	for _, p := range pages {
		set.URLs = append(set.URLs, urlEntry{Loc: BuildURL(a.Config.URL, "p", p.Slug)})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
