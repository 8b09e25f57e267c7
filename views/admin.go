package views

import (
	"net/url"
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/eringen/portalengine/editor"
	"github.com/eringen/portalengine/page"
)

// AdminPage carries everything the editor screen renders.
type AdminPage struct {
	Form      *editor.Form
	Pages     []page.Summary
	Slug      string
	Flash     string
	CSRFToken string
	ScrollY   int
	HasScroll bool
}

var fieldLabels = map[string]string{
	"page_title":       "页面标题",
	"section_label":    "栏目标签",
	"admin_link":       "管理入口",
	"footer":           "页脚",
	"hero_title":       "标题",
	"hero_description": "描述",
	"hero_chips":       "徽标（每行一个）",
	"variant":          "展示形式",
	"heading":          "小标题",
	"content":          "内容",
	"title":            "标题",
	"status":           "状态",
	"meta":             "标签（每行一个）",
	"link_label":       "链接文字",
	"link_url":         "链接地址",
}

var variantLabels = map[string]string{
	page.VariantTextPlain:       "纯文本",
	page.VariantTextTitled:      "标题文本",
	page.VariantCardsHorizontal: "横向卡片",
	page.VariantCardsVertical:   "纵向卡片",
}

var actionLabels = map[string]string{
	"save":              "保存",
	"add_section":       "添加区块",
	"delete_hero":       "移除标题区块",
	"restore_hero":      "恢复标题区块",
	"delete_section":    "删除区块",
	"add_card":          "添加卡片",
	"delete_card":       "删除卡片",
	"move_section_up":   "上移",
	"move_section_down": "下移",
	"move_card_up":      "上移",
	"move_card_down":    "下移",
	"create_page":       "新建页面",
	"delete_page":       "删除页面",
}

// Login renders the admin password prompt. errMsg, when non-empty, is
// shown above the form.
func Login(site Site, errMsg, csrfToken string) g.Node {
	return Layout(site, PageMeta{Title: "管理登录", Styles: []string{"/public/admin.css"}},
		Main(Class("admin admin-login"),
			Section(Class("login-card"),
				H1(g.Text("管理登录")),
				g.Iff(errMsg != "", func() g.Node {
					return P(Class("flash flash-error"), g.Text(errMsg))
				}),
				FormEl(Method("post"), Action("/admin/login"),
					Input(Type("hidden"), Name("_csrf"), Value(csrfToken)),
					LabelEl(For("password"), g.Text("密码")),
					Input(Type("password"), ID("password"), Name("password"), Required(), g.Attr("autofocus")),
					Button(Type("submit"), Class("btn"), g.Text("登录")),
				),
			),
		),
	)
}

// Editor renders the page editor. Every control lives inside one form
// so each action button posts the complete editing state back.
func Editor(site Site, p AdminPage) g.Node {
	return Layout(site, PageMeta{
		Title:   "管理 · " + p.Slug,
		Styles:  []string{"/public/admin.css"},
		Scripts: []string{"/public/admin.js"},
	},
		Main(Class("admin"),
			g.If(p.HasScroll, Data("scroll-y", strconv.Itoa(p.ScrollY))),
			Header(Class("admin-header"),
				H1(g.Text(site.Name)),
				Nav(Class("admin-nav"),
					A(Href("/p/"+url.PathEscape(p.Slug)), Target("_blank"), Rel("noopener"), g.Text("查看页面")),
					FormEl(Method("post"), Action("/admin/logout"), Class("logout-form"),
						Input(Type("hidden"), Name("_csrf"), Value(p.CSRFToken)),
						Button(Type("submit"), Class("btn btn-link"), g.Text("退出登录")),
					),
				),
			),
			pageTabs(p.Pages, p.Slug),
			g.Iff(p.Flash != "", func() g.Node {
				return P(Class("flash"), g.Text(p.Flash))
			}),
			editorForm(p),
		),
	)
}

func pageTabs(pages []page.Summary, current string) g.Node {
	return Nav(Class("page-tabs"), g.Map(pages, func(s page.Summary) g.Node {
		class := "page-tab"
		if s.Slug == current {
			class += " page-tab-active"
		}
		return A(Class(class), Href("/admin?slug="+url.QueryEscape(s.Slug)), g.Text(s.Title))
	}))
}

func editorForm(p AdminPage) g.Node {
	f := p.Form
	return FormEl(Method("post"), Action("/admin"), ID("editor"),
		Input(Type("hidden"), Name("_csrf"), Value(p.CSRFToken)),
		Input(Type("hidden"), Name("page_slug"), Value(f.Slug)),
		Input(Type("hidden"), Name("scroll_y"), Value("")),
		Input(Type("hidden"), Name(f.SectionCount.Name), Value(f.SectionCount.Value)),
		Section(Class("editor-page"),
			g.Map(f.Fields, fieldControl),
			Div(Class("editor-actions"), g.Map(f.Buttons, actionButton)),
		),
		g.Map(f.Sections, sectionEditor),
		manageControls(p),
	)
}

func sectionEditor(s editor.Section) g.Node {
	return Section(Class("editor-section"),
		Header(Class("editor-section-header"),
			Span(Class("drag-handle"), Draggable("true"), g.Text("≡")),
			H2(g.Text(s.Label)),
			Div(Class("editor-actions"), g.Map(s.Buttons, actionButton)),
		),
		g.Iff(s.CardCount.Name != "", func() g.Node {
			return Input(Type("hidden"), Name(s.CardCount.Name), Value(s.CardCount.Value))
		}),
		g.Map(s.Fields, fieldControl),
		g.Iff(len(s.Cards) > 0, func() g.Node {
			return Div(Class("editor-cards"), g.Map(s.Cards, cardEditor))
		}),
	)
}

func cardEditor(c editor.Card) g.Node {
	return Div(Class("editor-card"),
		Header(Class("editor-card-header"),
			Span(Class("drag-handle"), Draggable("true"), g.Text("≡")),
			H3(g.Text(c.Label)),
			Div(Class("editor-actions"), g.Map(c.Buttons, actionButton)),
		),
		g.Map(c.Fields, fieldControl),
	)
}

func manageControls(p AdminPage) g.Node {
	return Section(Class("page-manage"),
		H2(g.Text("页面管理")),
		Div(Class("manage-row"),
			Div(Class("field"),
				LabelEl(For("new_page_slug"), g.Text("新页面 Slug")),
				Input(Type("text"), ID("new_page_slug"), Name("new_page_slug"), Placeholder("例如 team-tools")),
			),
			Div(Class("field"),
				LabelEl(For("new_page_title"), g.Text("新页面标题")),
				Input(Type("text"), ID("new_page_title"), Name("new_page_title")),
			),
			Button(Type("submit"), Name("action"), Value("create_page"), Class("btn"), g.Text("新建页面")),
		),
		Div(Class("manage-row"),
			Div(Class("field"),
				LabelEl(For("target_page_slug"), g.Text("要删除的页面")),
				Select(ID("target_page_slug"), Name("target_page_slug"), g.Map(p.Pages, func(s page.Summary) g.Node {
					return Option(Value(s.Slug), g.If(s.Slug == p.Slug, Selected()), g.Text(s.Title))
				})),
			),
			Button(Type("submit"), Name("action"), Value("delete_page"), Class("btn btn-danger"), g.Text("删除页面")),
		),
	)
}

func fieldControl(fd editor.Field) g.Node {
	if fd.Name == "hero_present" {
		return Input(Type("hidden"), Name(fd.Name), Value(fd.Value))
	}
	key := fieldKey(fd.Name)
	label := fieldLabels[key]
	if label == "" {
		label = key
	}
	switch key {
	case "variant":
		return Div(Class("field"),
			LabelEl(For(fd.Name), g.Text(label)),
			Select(ID(fd.Name), Name(fd.Name), g.Map(page.Variants, func(v string) g.Node {
				return Option(Value(v), g.If(v == fd.Value, Selected()), g.Text(variantLabel(v)))
			})),
		)
	case "content", "meta", "hero_chips", "hero_description", "footer":
		rows := "3"
		if key == "content" {
			rows = "6"
		}
		return Div(Class("field"),
			LabelEl(For(fd.Name), g.Text(label)),
			Textarea(ID(fd.Name), Name(fd.Name), Rows(rows), g.Text(fd.Value)),
		)
	default:
		return Div(Class("field"),
			LabelEl(For(fd.Name), g.Text(label)),
			Input(Type("text"), ID(fd.Name), Name(fd.Name), Value(fd.Value)),
		)
	}
}

func actionButton(b editor.Button) g.Node {
	verb := actionVerb(b.Value)
	label := actionLabels[verb]
	if label == "" {
		label = verb
	}
	class := "btn"
	if strings.HasPrefix(verb, "delete_") {
		class += " btn-danger"
	}
	return Button(Type("submit"), Name("action"), Value(b.Value), Class(class), g.Text(label))
}

// fieldKey reduces a scoped field name like sections-0-cards-1-link_url
// to its trailing segment.
func fieldKey(name string) string {
	if i := strings.LastIndex(name, "-"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// actionVerb strips the positional indices off a button value, turning
// move_card_up_2_0 back into move_card_up.
func actionVerb(value string) string {
	for {
		i := strings.LastIndex(value, "_")
		if i < 0 {
			return value
		}
		if _, err := strconv.Atoi(value[i+1:]); err != nil {
			return value
		}
		value = value[:i]
	}
}

func variantLabel(v string) string {
	if l, ok := variantLabels[v]; ok {
		return l
	}
	return v
}
