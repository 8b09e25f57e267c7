package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/eringen/portalengine/markdown"
	"github.com/eringen/portalengine/page"
)

// Renderer turns fetched documents into the visible page tree.
type Renderer struct {
	Source Source
}

// LoadAndRender resolves the location to a slug, fetches its document
// and renders the page tree. Failures render error cards instead of
// propagating: a missing document names the slug and links back to
// the default page, anything else gets the generic retry card. The
// returned title is empty when no document was rendered.
func (r *Renderer) LoadAndRender(ctx context.Context, loc Location) (g.Node, string) {
	slug := ResolveSlug(loc)
	doc, err := r.Source.Fetch(ctx, slug)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return NotFoundCard(nf.Slug), ""
		}
		return ErrorCard(), ""
	}
	return Page(doc), doc.PageTitle
}

// Page renders a full document: hero when present, sections in
// document order, footer text last.
func Page(doc page.Document) g.Node {
	var nodes []g.Node
	if doc.Hero != nil {
		nodes = append(nodes, heroNode(doc.Meta, *doc.Hero, doc.PageTitle))
	}
	for _, sec := range doc.Sections {
		if n := sectionNode(sec); n != nil {
			nodes = append(nodes, n)
		}
	}
	if doc.Footer != "" {
		nodes = append(nodes, h.Footer(h.Class("footer"), g.Text(doc.Footer)))
	}
	return h.Main(h.Class("portal"), g.Group(nodes))
}

func heroNode(meta page.Meta, hero page.Hero, pageTitle string) g.Node {
	title := hero.Title
	if title == "" {
		title = pageTitle
	}
	var children []g.Node
	if meta.SectionLabel != "" {
		children = append(children, h.Span(h.Class("hero-label"), g.Text(meta.SectionLabel)))
	}
	children = append(children, h.H1(h.Class("hero-title"), g.Text(title)))
	if hero.Description != "" {
		children = append(children, h.P(h.Class("hero-description"), g.Text(hero.Description)))
	}
	if len(hero.Chips) > 0 {
		children = append(children, chipList("hero-chips", hero.Chips))
	}
	return h.Header(h.Class("hero"), g.Group(children))
}

func chipList(class string, chips []string) g.Node {
	return h.Ul(h.Class(class), g.Map(chips, func(chip string) g.Node {
		return h.Li(h.Class("chip"), g.Text(chip))
	}))
}

// sectionNode dispatches on the type prefix. Unknown variants render
// nothing.
func sectionNode(sec page.Section) g.Node {
	switch {
	case sec.IsText():
		return textSection(sec)
	case sec.IsCards():
		return cardsSection(sec)
	default:
		return nil
	}
}

func textSection(sec page.Section) g.Node {
	var children []g.Node
	if sec.Heading != "" {
		children = append(children, h.H2(h.Class("section-heading"), g.Text(sec.Heading)))
	}
	children = append(children, h.Div(h.Class("section-body"), markdown.Node(sec.Content)))
	return h.Section(h.Class("section "+sec.Type), g.Group(children))
}

func cardsSection(sec page.Section) g.Node {
	layout := "horizontal"
	if sec.Type == page.VariantCardsVertical {
		layout = "vertical"
	}
	var children []g.Node
	if sec.Heading != "" {
		children = append(children, h.H2(h.Class("section-heading"), g.Text(sec.Heading)))
	}
	children = append(children, h.Div(h.Class("cards cards-"+layout), g.Map(sec.Cards, cardNode)))
	return h.Section(h.Class("section "+sec.Type), g.Group(children))
}

func cardNode(card page.Card) g.Node {
	var children []g.Node
	var head []g.Node
	if card.Title != "" {
		head = append(head, h.H3(h.Class("card-title"), g.Text(card.Title)))
	}
	if badge := statusBadge(card.Status); badge != nil {
		head = append(head, badge)
	}
	if len(head) > 0 {
		children = append(children, h.Div(h.Class("card-header"), g.Group(head)))
	}
	children = append(children, h.Div(h.Class("card-body"), markdown.Node(card.Content)))
	if len(card.Meta) > 0 {
		children = append(children, chipList("card-meta", card.Meta))
	}
	if card.LinkLabel != "" && card.LinkURL != "" {
		children = append(children, h.A(
			h.Class("card-link"),
			h.Href(card.LinkURL),
			h.Target("_blank"),
			h.Rel("noopener"),
			g.Text(card.LinkLabel),
		))
	}
	return h.Article(h.Class("card"), g.Group(children))
}

// statusBadge maps the status text onto a presentation class. Online
// and updated are recognized case-insensitively, anything else is
// neutral. Empty status renders no badge.
func statusBadge(status string) g.Node {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return nil
	}
	return h.Span(h.Class("status "+StatusClass(trimmed)), g.Text(strings.ToUpper(trimmed)))
}

// StatusClass returns the badge class for a card status.
func StatusClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "online":
		return "status-online"
	case "updated":
		return "status-updated"
	default:
		return "status-neutral"
	}
}

// NotFoundCard names the missing page and offers the way back to the
// default page.
func NotFoundCard(slug string) g.Node {
	return h.Main(h.Class("portal"),
		h.Section(h.Class("section"),
			h.Article(h.Class("card card-error"),
				h.H3(h.Class("card-title"), g.Text("页面不存在")),
				h.P(g.Text(fmt.Sprintf("未找到页面 “%s”。", slug))),
				h.A(h.Class("card-link"), h.Href("/p/"+DefaultSlug), g.Text("返回主页")),
			),
		),
	)
}

// ErrorCard is the catch-all shown when fetching or decoding fails.
func ErrorCard() g.Node {
	return h.Main(h.Class("portal"),
		h.Section(h.Class("section"),
			h.Article(h.Class("card card-error"),
				h.H3(h.Class("card-title"), g.Text("加载出错")),
				h.P(g.Text("加载出错，请重试。")),
			),
		),
	)
}
