package portalengine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/eringen/portalengine/editor"
	"github.com/eringen/portalengine/page"
)

// splitLines breaks a textarea value into trimmed, non-empty lines.
func splitLines(value string) []string {
	lines := []string{}
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// documentFromValues rebuilds a page document from the posted editor
// form. The claimed section_count and card_count values decide how many
// positional field groups are read; fields beyond the claimed counts
// are ignored.
func documentFromValues(v url.Values) page.Document {
	doc := page.Document{
		Meta: page.Meta{
			SectionLabel: strings.TrimSpace(v.Get("section_label")),
			AdminLink:    strings.TrimSpace(v.Get("admin_link")),
		},
		Sections: parseSections(v),
		Footer:   strings.TrimSpace(v.Get("footer")),
	}
	if doc.Meta.AdminLink == "" {
		doc.Meta.AdminLink = page.DefaultAdminLink
	}
	if v.Get("hero_present") == "1" {
		doc.Hero = &page.Hero{
			Title:       strings.TrimSpace(v.Get("hero_title")),
			Description: strings.TrimSpace(v.Get("hero_description")),
			Chips:       splitLines(v.Get("hero_chips")),
		}
	}
	return doc
}

func parseSections(v url.Values) []page.Section {
	sections := []page.Section{}
	count, _ := strconv.Atoi(v.Get("section_count"))
	for i := 0; i < count; i++ {
		prefix := fmt.Sprintf("sections-%d-", i)
		variant := v.Get(prefix + "variant")
		if variant == "" {
			variant = page.VariantTextPlain
		}
		sec := page.Section{
			Type:    variant,
			Heading: strings.TrimSpace(v.Get(prefix + "heading")),
		}
		if sec.IsText() {
			sec.Content = strings.TrimSpace(v.Get(prefix + "content"))
			sections = append(sections, sec)
			continue
		}
		cardCount, _ := strconv.Atoi(v.Get(prefix + "card_count"))
		cards := []page.Card{}
		for j := 0; j < cardCount; j++ {
			cardPrefix := fmt.Sprintf("%scards-%d-", prefix, j)
			cards = append(cards, page.Card{
				Title:     strings.TrimSpace(v.Get(cardPrefix + "title")),
				Status:    strings.TrimSpace(v.Get(cardPrefix + "status")),
				Content:   strings.TrimSpace(v.Get(cardPrefix + "content")),
				Meta:      splitLines(v.Get(cardPrefix + "meta")),
				LinkLabel: strings.TrimSpace(v.Get(cardPrefix + "link_label")),
				LinkURL:   strings.TrimSpace(v.Get(cardPrefix + "link_url")),
			})
		}
		sec.Cards = cards
		sections = append(sections, sec)
	}
	return sections
}

// buildForm lays out the editor form for doc. Section and card parts
// are named at index zero; the closing Reindex assigns the real
// positions, labels and button indices.
func buildForm(slug, title string, doc page.Document) *editor.Form {
	f := editor.NewForm(slug)

	heroPresent := "0"
	if doc.Hero != nil {
		heroPresent = "1"
	}
	fields := []editor.Field{
		{Name: "page_title", Value: title},
		{Name: "section_label", Value: doc.Meta.SectionLabel},
		{Name: "admin_link", Value: doc.Meta.AdminLink},
		{Name: "hero_present", Value: heroPresent},
	}
	if doc.Hero != nil {
		fields = append(fields,
			editor.Field{Name: "hero_title", Value: doc.Hero.Title},
			editor.Field{Name: "hero_description", Value: doc.Hero.Description},
			editor.Field{Name: "hero_chips", Value: strings.Join(doc.Hero.Chips, "\n")},
		)
	}
	fields = append(fields, editor.Field{Name: "footer", Value: doc.Footer})
	f.Fields = fields

	f.Buttons = []editor.Button{{Value: "save"}, {Value: "add_section"}}
	if doc.Hero != nil {
		f.Buttons = append(f.Buttons, editor.Button{Value: "delete_hero"})
	} else {
		f.Buttons = append(f.Buttons, editor.Button{Value: "restore_hero", Preserve: true})
	}

	for _, sec := range doc.Sections {
		f.AppendSection(sectionForm(sec))
	}
	f.Reindex()
	return f
}

func sectionForm(sec page.Section) editor.Section {
	s := editor.Section{
		Fields: []editor.Field{
			{Name: "sections-0-variant", Value: sec.Type},
			{Name: "sections-0-heading", Value: sec.Heading},
		},
		Buttons: []editor.Button{
			{Value: "move_section_up", Preserve: true},
			{Value: "move_section_down", Preserve: true},
		},
	}
	if sec.IsCards() {
		s.CardCount = editor.Field{Name: "sections-0-card_count", Value: "0"}
		s.Buttons = append(s.Buttons,
			editor.Button{Value: "add_card"},
			editor.Button{Value: "delete_section"},
		)
		for _, card := range sec.Cards {
			s.Cards = append(s.Cards, cardForm(card))
		}
		return s
	}
	s.Fields = append(s.Fields, editor.Field{Name: "sections-0-content", Value: sec.Content})
	s.Buttons = append(s.Buttons, editor.Button{Value: "delete_section"})
	return s
}

func cardForm(card page.Card) editor.Card {
	return editor.Card{
		Fields: []editor.Field{
			{Name: "sections-0-cards-0-title", Value: card.Title},
			{Name: "sections-0-cards-0-status", Value: card.Status},
			{Name: "sections-0-cards-0-content", Value: card.Content},
			{Name: "sections-0-cards-0-meta", Value: strings.Join(card.Meta, "\n")},
			{Name: "sections-0-cards-0-link_label", Value: card.LinkLabel},
			{Name: "sections-0-cards-0-link_url", Value: card.LinkURL},
		},
		Buttons: []editor.Button{
			{Value: "move_card_up", Preserve: true},
			{Value: "move_card_down", Preserve: true},
			{Value: "delete_card"},
		},
	}
}
