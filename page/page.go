// Package page defines the portal page document model shared by the
// store, the structural editor and the public renderer.
package page

import (
	"encoding/json"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Section variants understood by the editor and the renderer.
const (
	VariantTextPlain       = "text_plain"
	VariantTextTitled      = "text_titled"
	VariantCardsHorizontal = "cards_horizontal"
	VariantCardsVertical   = "cards_vertical"
)

// Variants lists the accepted section variants in editor display order.
var Variants = []string{
	VariantTextPlain,
	VariantTextTitled,
	VariantCardsHorizontal,
	VariantCardsVertical,
}

// DefaultAdminLink is stored in page metadata when no explicit admin
// link is provided.
const DefaultAdminLink = "http://localhost:5000/admin"

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{1,48}$`)

const slugMessage = "Slug 仅能包含小写字母、数字或连字符，且长度不超过 48。"

// ValidateSlug reports whether slug is usable as a page address.
func ValidateSlug(slug string) error {
	return validation.Validate(slug,
		validation.Required.Error(slugMessage),
		validation.Match(slugPattern).Error(slugMessage),
	)
}

// Summary identifies a page in listings without carrying its payload.
type Summary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Meta carries the chrome shown around a page.
type Meta struct {
	SectionLabel string `json:"sectionLabel"`
	AdminLink    string `json:"adminLink"`
}

// Hero is the optional banner block at the top of a page.
type Hero struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Chips       []string `json:"chips"`
}

// Card is one entry of a cards section.
type Card struct {
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Content   string   `json:"content"`
	Meta      []string `json:"meta"`
	LinkLabel string   `json:"linkLabel"`
	LinkURL   string   `json:"linkUrl"`
}

// Section is one content block of a page. Text variants carry Content,
// cards variants carry Cards; the other field stays empty.
type Section struct {
	Type    string
	Heading string
	Content string
	Cards   []Card
}

// IsText reports whether the section renders a markdown body.
func (s Section) IsText() bool { return strings.HasPrefix(s.Type, "text") }

// IsCards reports whether the section renders a card grid.
func (s Section) IsCards() bool { return strings.HasPrefix(s.Type, "cards") }

type sectionJSON struct {
	Type    string  `json:"type"`
	Heading string  `json:"heading"`
	Content *string `json:"content,omitempty"`
	Cards   *[]Card `json:"cards,omitempty"`
}

// MarshalJSON emits exactly one of content or cards, whichever the
// variant calls for.
func (s Section) MarshalJSON() ([]byte, error) {
	out := sectionJSON{Type: s.Type, Heading: s.Heading}
	if s.IsCards() {
		cards := s.Cards
		if cards == nil {
			cards = []Card{}
		}
		out.Cards = &cards
	} else {
		content := s.Content
		out.Content = &content
	}
	return json.Marshal(out)
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var in sectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Type = in.Type
	s.Heading = in.Heading
	if in.Content != nil {
		s.Content = *in.Content
	}
	if in.Cards != nil {
		s.Cards = *in.Cards
	}
	return nil
}

// Document is the stored payload of a single portal page. PageTitle is
// filled from the pages table when a document is served over the API
// and stays empty in stored payloads.
type Document struct {
	PageTitle string    `json:"pageTitle,omitempty"`
	Meta      Meta      `json:"meta"`
	Hero      *Hero     `json:"hero"`
	Sections  []Section `json:"sections"`
	Footer    string    `json:"footer"`
}

// Normalize fills nil slices, clamps unknown section variants and
// applies the admin link default so a document marshals the way the
// editor emits it.
func (d *Document) Normalize() {
	if d.Meta.AdminLink == "" {
		d.Meta.AdminLink = DefaultAdminLink
	}
	if d.Hero != nil && d.Hero.Chips == nil {
		d.Hero.Chips = []string{}
	}
	if d.Sections == nil {
		d.Sections = []Section{}
	}
	for i := range d.Sections {
		s := &d.Sections[i]
		if !ValidVariant(s.Type) {
			s.Type = VariantTextPlain
		}
		if s.IsCards() {
			if s.Cards == nil {
				s.Cards = []Card{}
			}
			for j := range s.Cards {
				if s.Cards[j].Meta == nil {
					s.Cards[j].Meta = []string{}
				}
			}
			s.Content = ""
		} else {
			s.Cards = nil
		}
	}
}

// ValidVariant reports whether variant is one of the accepted section
// variants.
func ValidVariant(variant string) bool {
	for _, v := range Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// DefaultCard returns an empty card ready for editing.
func DefaultCard() Card {
	return Card{Meta: []string{}}
}

// DefaultHero returns a hero block with the given title.
func DefaultHero(title string) *Hero {
	return &Hero{Title: title, Chips: []string{}}
}

// DefaultSection returns a blank section of the given variant. Unknown
// variants degrade to text_plain. Cards variants start with one empty
// card so the editor has a row to show.
func DefaultSection(variant string) Section {
	if !ValidVariant(variant) {
		variant = VariantTextPlain
	}
	s := Section{Type: variant}
	if s.IsCards() {
		s.Cards = []Card{DefaultCard()}
	}
	return s
}

// NewDocument returns the payload stored for a freshly created page.
func NewDocument(title string) Document {
	if title == "" {
		title = "新建页面"
	}
	return Document{
		Meta:     Meta{SectionLabel: "页面说明", AdminLink: DefaultAdminLink},
		Hero:     DefaultHero(title),
		Sections: []Section{},
	}
}

// SeedDocument returns the payload stored for the initial home page
// when the store starts out empty.
func SeedDocument() Document {
	return Document{
		Meta:     Meta{SectionLabel: "Tools Portal", AdminLink: DefaultAdminLink},
		Hero:     DefaultHero("工具面板"),
		Sections: []Section{},
	}
}

type legacyService struct {
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	Meta        []string `json:"meta"`
	LinkLabel   string   `json:"linkLabel"`
	LinkURL     string   `json:"linkUrl"`
}

type legacyQuick struct {
	Title         string   `json:"title"`
	FirstUseTitle string   `json:"firstUseTitle"`
	FirstUse      []string `json:"firstUse"`
	IssuesTitle   string   `json:"issuesTitle"`
	Issues        []string `json:"issues"`
}

type legacyDocument struct {
	Meta     Meta            `json:"meta"`
	Hero     *Hero           `json:"hero"`
	Sections json.RawMessage `json:"sections"`
	Footer   string          `json:"footer"`
	Services []legacyService `json:"services"`
	Quick    *legacyQuick    `json:"quick"`
}

// MigrateLegacy decodes a stored payload, rewriting the retired
// services/quick layout into sections. Payloads that already carry a
// sections key pass through unchanged apart from normalization.
func MigrateLegacy(data []byte) (Document, error) {
	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return Document{}, err
	}
	if legacy.Sections != nil {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, err
		}
		doc.Normalize()
		return doc, nil
	}

	doc := Document{
		Meta:     legacy.Meta,
		Hero:     legacy.Hero,
		Sections: []Section{},
		Footer:   legacy.Footer,
	}
	if len(legacy.Services) > 0 {
		cards := make([]Card, 0, len(legacy.Services))
		for _, svc := range legacy.Services {
			cards = append(cards, Card{
				Title:     svc.Title,
				Status:    svc.Status,
				Content:   svc.Description,
				Meta:      svc.Meta,
				LinkLabel: svc.LinkLabel,
				LinkURL:   svc.LinkURL,
			})
		}
		heading := legacy.Meta.SectionLabel
		if heading == "" {
			heading = "服务面板"
		}
		doc.Sections = append(doc.Sections, Section{
			Type:    VariantCardsHorizontal,
			Heading: heading,
			Cards:   cards,
		})
	}
	if legacy.Quick != nil {
		var cards []Card
		if len(legacy.Quick.FirstUse) > 0 {
			title := legacy.Quick.FirstUseTitle
			if title == "" {
				title = "第一次使用"
			}
			cards = append(cards, Card{Title: title, Content: strings.Join(legacy.Quick.FirstUse, "\n")})
		}
		if len(legacy.Quick.Issues) > 0 {
			title := legacy.Quick.IssuesTitle
			if title == "" {
				title = "遇到故障"
			}
			cards = append(cards, Card{Title: title, Content: strings.Join(legacy.Quick.Issues, "\n")})
		}
		if len(cards) > 0 {
			heading := legacy.Quick.Title
			if heading == "" {
				heading = "速查"
			}
			doc.Sections = append(doc.Sections, Section{
				Type:    VariantCardsVertical,
				Heading: heading,
				Cards:   cards,
			})
		}
	}
	doc.Normalize()
	return doc, nil
}
