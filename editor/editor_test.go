package editor

import (
	"fmt"
	"reflect"
	"testing"
)

// textSection builds a text block the way the admin form renders one,
// with deliberately stale positional names.
func textSection(idx int, heading, content string) Section {
	prefix := fmt.Sprintf("sections-%d-", idx)
	return Section{
		Fields: []Field{
			{Name: prefix + "variant", Value: "text_plain"},
			{Name: prefix + "heading", Value: heading},
			{Name: prefix + "content", Value: content},
		},
		Buttons: []Button{{Value: fmt.Sprintf("delete_section_%d", idx)}},
	}
}

func cardsSection(idx int, heading string, titles ...string) Section {
	prefix := fmt.Sprintf("sections-%d-", idx)
	s := Section{
		CardCount: Field{Name: prefix + "card_count", Value: "0"},
		Fields: []Field{
			{Name: prefix + "variant", Value: "cards_horizontal"},
			{Name: prefix + "heading", Value: heading},
		},
		Buttons: []Button{
			{Value: fmt.Sprintf("delete_section_%d", idx)},
			{Value: fmt.Sprintf("add_card_%d", idx)},
		},
	}
	for j, title := range titles {
		cardPrefix := fmt.Sprintf("%scards-%d-", prefix, j)
		s.Cards = append(s.Cards, Card{
			Fields: []Field{
				{Name: cardPrefix + "title", Value: title},
				{Name: cardPrefix + "status", Value: ""},
			},
			Buttons: []Button{{Value: fmt.Sprintf("delete_card_%d_%d", idx, j)}},
		})
	}
	return s
}

func TestReindexAssignsNamesCountsAndLabels(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(textSection(7, "说明", "body"))
	f.AppendSection(cardsSection(3, "服务", "Wiki", "CI"))
	f.Reindex()

	if f.SectionCount.Value != "2" {
		t.Errorf("section_count = %q, want %q", f.SectionCount.Value, "2")
	}
	if got := f.Sections[0].Fields[1].Name; got != "sections-0-heading" {
		t.Errorf("first section heading name = %q", got)
	}
	if got := f.Sections[0].Label; got != "区块 1" {
		t.Errorf("first section label = %q", got)
	}
	if got := f.Sections[0].Buttons[0].Value; got != "delete_section_0" {
		t.Errorf("first section delete button = %q", got)
	}
	sec := f.Sections[1]
	if sec.CardCount.Name != "sections-1-card_count" || sec.CardCount.Value != "2" {
		t.Errorf("card count field = %+v", sec.CardCount)
	}
	if got := sec.Buttons[1].Value; got != "add_card_1" {
		t.Errorf("add card button = %q", got)
	}
	if got := sec.Cards[1].Fields[0].Name; got != "sections-1-cards-1-title" {
		t.Errorf("card title name = %q", got)
	}
	if got := sec.Cards[1].Buttons[0].Value; got != "delete_card_1_1" {
		t.Errorf("card delete button = %q", got)
	}
	if got := sec.Cards[0].Label; got != "卡片 1" {
		t.Errorf("card label = %q", got)
	}
}

// signature flattens everything Reindex may touch so snapshots do not
// alias the form's own slices.
func signature(f *Form) []string {
	var sig []string
	sig = append(sig, f.SectionCount.Name, f.SectionCount.Value)
	for _, s := range f.Sections {
		sig = append(sig, s.Label, s.CardCount.Name, s.CardCount.Value)
		for _, fld := range s.Fields {
			sig = append(sig, fld.Name, fld.Value)
		}
		for _, b := range s.Buttons {
			sig = append(sig, b.Value)
		}
		for _, c := range s.Cards {
			sig = append(sig, c.Label)
			for _, fld := range c.Fields {
				sig = append(sig, fld.Name, fld.Value)
			}
			for _, b := range c.Buttons {
				sig = append(sig, b.Value)
			}
		}
	}
	return sig
}

func TestReindexIdempotent(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(cardsSection(5, "A", "x", "y"))
	f.AppendSection(textSection(5, "B", "text"))
	f.Reindex()
	once := signature(f)
	f.Reindex()
	twice := signature(f)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second Reindex changed the form:\n got %v\nwant %v", twice, once)
	}
}

func TestReindexLeavesForeignNamesAlone(t *testing.T) {
	f := NewForm("home")
	f.Fields = []Field{{Name: "page_title", Value: "主页"}, {Name: "footer", Value: ""}}
	s := textSection(0, "h", "c")
	s.Fields = append(s.Fields, Field{Name: "odd_one", Value: "x"})
	f.AppendSection(s)
	f.Reindex()
	if f.Fields[0].Name != "page_title" {
		t.Errorf("page field renamed to %q", f.Fields[0].Name)
	}
	if got := f.Sections[0].Fields[3].Name; got != "odd_one" {
		t.Errorf("unprefixed field renamed to %q", got)
	}
}

func TestReindexEnumeratesIndicesAfterMoves(t *testing.T) {
	f := NewForm("home")
	for i := 0; i < 5; i++ {
		f.AppendSection(textSection(i, fmt.Sprintf("h%d", i), ""))
	}
	list := f.SectionList()
	list.Move(4, 0)
	list.Move(2, 3)
	list.Move(0, 4)
	f.Reindex()

	for i, s := range f.Sections {
		wantPrefix := fmt.Sprintf("sections-%d-", i)
		for _, fld := range s.Fields {
			if got := fld.Name[:len(wantPrefix)]; got != wantPrefix {
				t.Errorf("section %d field %q does not carry prefix %q", i, fld.Name, wantPrefix)
			}
		}
		if want := fmt.Sprintf("delete_section_%d", i); s.Buttons[0].Value != want {
			t.Errorf("section %d button = %q, want %q", i, s.Buttons[0].Value, want)
		}
		if want := fmt.Sprintf("区块 %d", i+1); s.Label != want {
			t.Errorf("section %d label = %q, want %q", i, s.Label, want)
		}
	}
}

func TestRemoveSectionThenReindexRenumbers(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(textSection(0, "a", ""))
	f.AppendSection(textSection(1, "b", ""))
	f.AppendSection(textSection(2, "c", ""))
	f.RemoveSection(1)
	f.Reindex()
	if len(f.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(f.Sections))
	}
	if f.Value("sections-1-heading") != "c" {
		t.Errorf("sections-1-heading = %q, want %q", f.Value("sections-1-heading"), "c")
	}
	if f.SectionCount.Value != "2" {
		t.Errorf("section_count = %q", f.SectionCount.Value)
	}
}

func TestRemoveSectionOutOfRangeIgnored(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(textSection(0, "a", ""))
	f.RemoveSection(-1)
	f.RemoveSection(5)
	if len(f.Sections) != 1 {
		t.Errorf("out-of-range removal changed sections: %d", len(f.Sections))
	}
}

func TestAppendCardToTextSectionIgnored(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(textSection(0, "a", ""))
	f.AppendCard(0, Card{})
	if len(f.Sections[0].Cards) != 0 {
		t.Errorf("text section accepted a card")
	}
}

func TestRemoveCardThenReindexRenumbersButtons(t *testing.T) {
	f := NewForm("home")
	f.AppendSection(cardsSection(0, "s", "a", "b", "c"))
	f.RemoveCard(0, 1)
	f.Reindex()
	s := f.Sections[0]
	if s.CardCount.Value != "2" {
		t.Errorf("card_count = %q, want 2", s.CardCount.Value)
	}
	if got := s.Cards[1].Buttons[0].Value; got != "delete_card_0_1" {
		t.Errorf("second card delete button = %q", got)
	}
	if f.Value("sections-0-cards-1-title") != "c" {
		t.Errorf("surviving card title = %q, want %q", f.Value("sections-0-cards-1-title"), "c")
	}
}

func TestValueMissingField(t *testing.T) {
	f := NewForm("home")
	if got := f.Value("absent"); got != "" {
		t.Errorf("Value(absent) = %q, want empty", got)
	}
}

func TestHasAction(t *testing.T) {
	f := NewForm("home")
	f.Buttons = []Button{{Value: "save"}}
	f.AppendSection(cardsSection(0, "s", "a"))
	f.Reindex()
	for _, value := range []string{"save", "delete_section_0", "add_card_0", "delete_card_0_0"} {
		if !f.HasAction(value) {
			t.Errorf("HasAction(%q) = false, want true", value)
		}
	}
	if f.HasAction("delete_card_9_9") {
		t.Errorf("HasAction on unknown value = true")
	}
}
