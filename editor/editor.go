// Package editor keeps the admin form's field names, indices and
// ordinal labels synchronized with the live order of sections and
// cards across structural edits: reorder, insert and delete.
//
// The form is modeled as data rather than markup. Positional identity
// lives in the field names themselves (sections-<i>-heading,
// sections-<i>-cards-<j>-title) and in the trailing indices of action
// button values (delete_card_<i>_<j>), exactly as the admin form posts
// them.
package editor

import (
	"fmt"
	"regexp"
	"strconv"
)

// Field is a single named form input and its posted value.
type Field struct {
	Name  string
	Value string
}

// Button is an action control. Value carries the operation verb plus
// trailing indices naming its target, e.g. "delete_card_1_2". Preserve
// marks controls whose submit keeps the scroll position even though
// the verb is not an add or delete.
type Button struct {
	Value    string
	Preserve bool
}

// Card is one editable card row of a cards section.
type Card struct {
	Label   string
	Fields  []Field
	Buttons []Button
}

// Section is one editable block of the form. Cards variants carry a
// hidden card-count field plus card rows; text variants leave both
// empty.
type Section struct {
	Label     string
	CardCount Field
	Fields    []Field
	Buttons   []Button
	Cards     []Card
}

// Form is the editable representation of one page. Page-level fields
// keep their names across Reindex; section and card fields are renamed
// to match their position.
type Form struct {
	Slug         string
	SectionCount Field
	Fields       []Field
	Buttons      []Button
	Sections     []Section
}

// NewForm returns an empty form for the page identified by slug.
func NewForm(slug string) *Form {
	return &Form{
		Slug:         slug,
		SectionCount: Field{Name: "section_count", Value: "0"},
	}
}

var (
	reCardPrefix    = regexp.MustCompile(`^sections-\d+-cards-\d+-`)
	reSectionPrefix = regexp.MustCompile(`^sections-\d+-`)
	reTrailingIndex = regexp.MustCompile(`(?:_\d+)+$`)
)

// Reindex rewrites every positional name, button value, count field
// and ordinal label to match the current order of sections and cards.
// Names that carry no positional prefix are left alone. Calling
// Reindex twice in a row changes nothing.
func (f *Form) Reindex() {
	f.SectionCount.Value = strconv.Itoa(len(f.Sections))
	for i := range f.Sections {
		s := &f.Sections[i]
		s.Label = "区块 " + strconv.Itoa(i+1)
		secPrefix := fmt.Sprintf("sections-%d-", i)
		for k := range s.Fields {
			s.Fields[k].Name = renamePrefix(s.Fields[k].Name, reSectionPrefix, secPrefix)
		}
		if s.CardCount.Name != "" {
			s.CardCount.Name = renamePrefix(s.CardCount.Name, reSectionPrefix, secPrefix)
			s.CardCount.Value = strconv.Itoa(len(s.Cards))
		}
		for k := range s.Buttons {
			s.Buttons[k].Value = renumber(s.Buttons[k].Value, i)
		}
		for j := range s.Cards {
			c := &s.Cards[j]
			c.Label = "卡片 " + strconv.Itoa(j+1)
			cardPrefix := fmt.Sprintf("sections-%d-cards-%d-", i, j)
			for k := range c.Fields {
				c.Fields[k].Name = renamePrefix(c.Fields[k].Name, reCardPrefix, cardPrefix)
			}
			for k := range c.Buttons {
				c.Buttons[k].Value = renumber(c.Buttons[k].Value, i, j)
			}
		}
	}
}

func renamePrefix(name string, re *regexp.Regexp, prefix string) string {
	if loc := re.FindStringIndex(name); loc != nil {
		return prefix + name[loc[1]:]
	}
	return name
}

func renumber(value string, indices ...int) string {
	base := reTrailingIndex.ReplaceAllString(value, "")
	for _, n := range indices {
		base += "_" + strconv.Itoa(n)
	}
	return base
}

// AppendSection adds s at the end of the form.
func (f *Form) AppendSection(s Section) {
	f.Sections = append(f.Sections, s)
}

// RemoveSection deletes the section at index i. Out-of-range indices
// are ignored.
func (f *Form) RemoveSection(i int) {
	if i < 0 || i >= len(f.Sections) {
		return
	}
	f.Sections = append(f.Sections[:i], f.Sections[i+1:]...)
}

// AppendCard adds c to the card list of section i. Sections without a
// card list and out-of-range indices are ignored.
func (f *Form) AppendCard(i int, c Card) {
	if i < 0 || i >= len(f.Sections) {
		return
	}
	s := &f.Sections[i]
	if s.CardCount.Name == "" {
		return
	}
	s.Cards = append(s.Cards, c)
}

// RemoveCard deletes card j from section i. Out-of-range indices are
// ignored.
func (f *Form) RemoveCard(i, j int) {
	if i < 0 || i >= len(f.Sections) {
		return
	}
	s := &f.Sections[i]
	if j < 0 || j >= len(s.Cards) {
		return
	}
	s.Cards = append(s.Cards[:j], s.Cards[j+1:]...)
}

// Value returns the value of the named field anywhere in the form, or
// the empty string when the field does not exist.
func (f *Form) Value(name string) string {
	if fld := f.Field(name); fld != nil {
		return fld.Value
	}
	return ""
}

// Field returns the named field anywhere in the form, or nil.
func (f *Form) Field(name string) *Field {
	if f.SectionCount.Name == name {
		return &f.SectionCount
	}
	for k := range f.Fields {
		if f.Fields[k].Name == name {
			return &f.Fields[k]
		}
	}
	for i := range f.Sections {
		s := &f.Sections[i]
		if s.CardCount.Name == name {
			return &s.CardCount
		}
		for k := range s.Fields {
			if s.Fields[k].Name == name {
				return &s.Fields[k]
			}
		}
		for j := range s.Cards {
			c := &s.Cards[j]
			for k := range c.Fields {
				if c.Fields[k].Name == name {
					return &c.Fields[k]
				}
			}
		}
	}
	return nil
}

// HasAction reports whether some button of the form carries the given
// action value.
func (f *Form) HasAction(value string) bool {
	return f.findButton(value) != nil
}

func (f *Form) findButton(value string) *Button {
	for k := range f.Buttons {
		if f.Buttons[k].Value == value {
			return &f.Buttons[k]
		}
	}
	for i := range f.Sections {
		s := &f.Sections[i]
		for k := range s.Buttons {
			if s.Buttons[k].Value == value {
				return &s.Buttons[k]
			}
		}
		for j := range s.Cards {
			c := &s.Cards[j]
			for k := range c.Buttons {
				if c.Buttons[k].Value == value {
					return &c.Buttons[k]
				}
			}
		}
	}
	return nil
}

// List is an ordered collection the Sortable engine can reorder.
type List interface {
	Len() int
	Move(from, to int)
}

// SectionList exposes the form's sections as a reorderable List.
func (f *Form) SectionList() List {
	return sectionList{form: f}
}

// CardList exposes the cards of section i as a reorderable List, or
// nil when i is out of range or the section has no card list.
func (f *Form) CardList(i int) List {
	if i < 0 || i >= len(f.Sections) || f.Sections[i].CardCount.Name == "" {
		return nil
	}
	return cardList{form: f, section: i}
}

type sectionList struct {
	form *Form
}

func (l sectionList) Len() int {
	return len(l.form.Sections)
}

func (l sectionList) Move(from, to int) {
	s := l.form.Sections
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) || from == to {
		return
	}
	item := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s, Section{})
	copy(s[to+1:], s[to:])
	s[to] = item
	l.form.Sections = s
}

type cardList struct {
	form    *Form
	section int
}

func (l cardList) Len() int {
	return len(l.form.Sections[l.section].Cards)
}

func (l cardList) Move(from, to int) {
	c := l.form.Sections[l.section].Cards
	if from < 0 || from >= len(c) || to < 0 || to >= len(c) || from == to {
		return
	}
	item := c[from]
	c = append(c[:from], c[from+1:]...)
	c = append(c, Card{})
	copy(c[to+1:], c[to:])
	c[to] = item
	l.form.Sections[l.section].Cards = c
}
