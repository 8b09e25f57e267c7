// Package views renders the portal's HTML documents. Views are plain
// gomponents trees, so handler data flows straight into markup without
// a template layer in between.
package views

import (
	"encoding/json"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Site carries the site-wide values every document shell needs.
type Site struct {
	Name        string
	URL         string
	Description string
}

// PageMeta carries the per-document head values.
type PageMeta struct {
	Title       string
	Description string
	Styles      []string
	Scripts     []string
}

// Layout wraps body in the document shell: head metadata, stylesheet
// links, the site JSON-LD block and any trailing scripts.
func Layout(site Site, meta PageMeta, body ...g.Node) g.Node {
	title := meta.Title
	switch {
	case title == "":
		title = site.Name
	case site.Name != "" && title != site.Name:
		title += " · " + site.Name
	}
	description := meta.Description
	if description == "" {
		description = site.Description
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("zh-CN"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				g.Iff(description != "", func() g.Node {
					return Meta(Name("description"), Content(description))
				}),
				g.Map(meta.Styles, func(href string) g.Node {
					return Link(Rel("stylesheet"), Href(href))
				}),
				g.Iff(site.URL != "", func() g.Node {
					return Script(Type("application/ld+json"), g.Raw(websiteJSONLD(site)))
				}),
			),
			Body(
				g.Group(body),
				g.Map(meta.Scripts, func(src string) g.Node {
					return Script(Src(src), Defer())
				}),
			),
		),
	})
}

// PortalPage wraps a rendered portal document in the public shell.
// The content node carries its own <main class="portal"> element.
func PortalPage(site Site, title string, content g.Node) g.Node {
	return Layout(site, PageMeta{Title: title, Styles: []string{"/public/portal.css"}}, content)
}

func websiteJSONLD(site Site) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      site.URL,
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
