package portalengine

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/portalengine/editor"
	"github.com/eringen/portalengine/page"
	"github.com/eringen/portalengine/portal"
	"github.com/eringen/portalengine/views"
)

// handleAdmin renders the login prompt for anonymous visitors and the
// editor for the requested page otherwise. Unknown slugs fall back to
// the first page.
func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.Login(a.site(), "", CsrfToken(c)))
	}
	slug, pages, err := a.currentPageOrDefault(c.QueryParam("slug"))
	if err != nil {
		return err
	}
	doc, err := a.Store.GetPage(slug)
	if err != nil {
		return err
	}
	form := buildForm(slug, doc.PageTitle, doc)
	sess := editor.NewSession(form, sessionScrollStore{c})
	return a.renderEditor(c, sess, pages, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return RenderStatus(c, http.StatusTooManyRequests,
			views.Login(a.site(), "尝试次数过多，请稍后再试。", CsrfToken(c)))
	}
	if a.checkPassword(c.FormValue("password")) {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	a.loginLimiter.Record(ip)
	return Render(c, views.Login(a.site(), "密码错误，请重试。", CsrfToken(c)))
}

// checkPassword verifies the submitted password against the configured
// bcrypt hash, or in constant time against the plaintext password.
func (a *App) checkPassword(pass string) bool {
	if a.Config.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.Config.AdminPasswordHash), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

// handleAdminSubmit dispatches on the posted action. Page management
// actions redirect; structural edits rework the in-flight form and
// re-render without saving; everything else, unknown actions included,
// saves the page.
func (a *App) handleAdminSubmit(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	values := c.Request().PostForm

	slug, pages, err := a.currentPageOrDefault(values.Get("page_slug"))
	if err != nil {
		return err
	}

	action := values.Get("action")
	if action == "" {
		action = "save"
	}

	switch action {
	case "create_page":
		return a.adminCreatePage(c, values, slug)
	case "delete_page":
		return a.adminDeletePage(c, values, slug)
	}

	pageTitle := strings.TrimSpace(values.Get("page_title"))
	if pageTitle == "" {
		pageTitle = slug
	}
	doc := documentFromValues(values)
	form := buildForm(slug, pageTitle, doc)
	sess := editor.NewSession(form, sessionScrollStore{c})
	scrollY, _ := strconv.Atoi(values.Get("scroll_y"))
	action = sess.InterceptSubmit(action, scrollY)

	switch {
	case action == "add_section":
		form.AppendSection(sectionForm(page.DefaultSection(page.VariantTextPlain)))
		form.Reindex()
		return a.renderEditor(c, sess, pages, "")

	case action == "delete_hero":
		doc.Hero = nil
		sess = editor.NewSession(buildForm(slug, pageTitle, doc), sessionScrollStore{c})
		return a.renderEditor(c, sess, pages, "标题区块已移除。")

	case action == "restore_hero":
		doc.Hero = page.DefaultHero("新建页面")
		sess = editor.NewSession(buildForm(slug, pageTitle, doc), sessionScrollStore{c})
		return a.renderEditor(c, sess, pages, "已添加标题区块。")

	case strings.HasPrefix(action, "delete_section_"):
		if idx, ok := actionIndices(action, "delete_section", 1); ok {
			form.RemoveSection(idx[0])
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "add_card_"):
		if idx, ok := actionIndices(action, "add_card", 1); ok {
			form.AppendCard(idx[0], cardForm(page.DefaultCard()))
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "delete_card_"):
		if idx, ok := actionIndices(action, "delete_card", 2); ok {
			form.RemoveCard(idx[0], idx[1])
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "move_section_up_"), strings.HasPrefix(action, "move_section_down_"):
		down := strings.HasPrefix(action, "move_section_down_")
		verb := "move_section_up"
		if down {
			verb = "move_section_down"
		}
		if idx, ok := actionIndices(action, verb, 1); ok {
			dragByOne(form.SectionList(), idx[0], down)
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "move_card_up_"), strings.HasPrefix(action, "move_card_down_"):
		down := strings.HasPrefix(action, "move_card_down_")
		verb := "move_card_up"
		if down {
			verb = "move_card_down"
		}
		if idx, ok := actionIndices(action, verb, 2); ok {
			dragByOne(form.CardList(idx[0]), idx[1], down)
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "move_section_"):
		if idx, ok := actionIndices(action, "move_section", 2); ok {
			dragTo(form.SectionList(), idx[0], idx[1])
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")

	case strings.HasPrefix(action, "move_card_"):
		if idx, ok := actionIndices(action, "move_card", 3); ok {
			dragTo(form.CardList(idx[0]), idx[1], idx[2])
			form.Reindex()
		}
		return a.renderEditor(c, sess, pages, "")
	}

	if err := a.Store.SavePage(slug, pageTitle, doc); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.redirectAdmin(c, slug, "改动已保存。")
}

func (a *App) adminCreatePage(c echo.Context, values url.Values, current string) error {
	newSlug := strings.ToLower(strings.TrimSpace(values.Get("new_page_slug")))
	newTitle := strings.TrimSpace(values.Get("new_page_title"))
	if newTitle == "" {
		newTitle = newSlug
	}
	if err := a.Store.CreatePage(newSlug, newTitle); err != nil {
		if isEditorInputError(err) {
			return a.redirectAdmin(c, current, err.Error())
		}
		return err
	}
	a.Cache.Invalidate()
	return a.redirectAdmin(c, newSlug, "新页面已创建。")
}

func (a *App) adminDeletePage(c echo.Context, values url.Values, current string) error {
	if err := a.Store.DeletePage(values.Get("target_page_slug")); err != nil {
		if isEditorInputError(err) {
			return a.redirectAdmin(c, current, err.Error())
		}
		return err
	}
	a.Cache.Invalidate()
	first, _, err := a.currentPageOrDefault("")
	if err != nil {
		return err
	}
	return a.redirectAdmin(c, first, "页面已删除。")
}

func (a *App) renderEditor(c echo.Context, sess *editor.Session, pages []page.Summary, flash string) error {
	scrollY, hasScroll := sess.RestoreScroll()
	return Render(c, views.Editor(a.site(), views.AdminPage{
		Form:      sess.Form,
		Pages:     pages,
		Slug:      sess.Form.Slug,
		Flash:     flash,
		CSRFToken: CsrfToken(c),
		ScrollY:   scrollY,
		HasScroll: hasScroll,
	}))
}

func (a *App) redirectAdmin(c echo.Context, slug, msg string) error {
	target := "/admin?slug=" + url.QueryEscape(slug)
	if msg != "" {
		target += "&msg=" + url.QueryEscape(msg)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// currentPageOrDefault resolves the working slug: the requested one
// when it exists, else the first page by title, else the default.
func (a *App) currentPageOrDefault(requested string) (string, []page.Summary, error) {
	pages, err := a.Store.ListPages()
	if err != nil {
		return "", nil, err
	}
	if requested != "" {
		for _, p := range pages {
			if p.Slug == requested {
				return requested, pages, nil
			}
		}
	}
	if len(pages) > 0 {
		return pages[0].Slug, pages, nil
	}
	return portal.DefaultSlug, pages, nil
}

// isEditorInputError separates operator mistakes, which flash back at
// the editor, from real failures.
func isEditorInputError(err error) bool {
	if errors.Is(err, ErrSlugExists) || errors.Is(err, ErrLastPage) {
		return true
	}
	var verr validation.Error
	return errors.As(err, &verr)
}

// actionIndices parses the positional indices off an action value like
// delete_card_1_2, requiring exactly n of them.
func actionIndices(action, verb string, n int) ([]int, bool) {
	rest, ok := strings.CutPrefix(action, verb+"_")
	if !ok {
		return nil, false
	}
	parts := strings.Split(rest, "_")
	if len(parts) != n {
		return nil, false
	}
	indices := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		indices[i] = v
	}
	return indices, true
}

// dragByOne moves the item at index one position up or down by driving
// the drag engine the way the admin client does: press on the handle,
// cross the neighbor's midpoint, release.
func dragByOne(list editor.List, index int, down bool) {
	if list == nil {
		return
	}
	drag := editor.NewSortable(list, true)
	drag.Press(index, true)
	if down {
		drag.Hover(index+1, true)
	} else {
		drag.Hover(index-1, false)
	}
	drag.Release()
}

// dragTo replays a completed pointer drag reported by the admin client.
// Targets past the end of the list happen when the form is stale; the
// item then lands at the end.
func dragTo(list editor.List, from, to int) {
	if list == nil {
		return
	}
	drag := editor.NewSortable(list, true)
	drag.Press(from, true)
	if to >= list.Len() {
		drag.HoverPastEnd()
	} else {
		drag.Hover(to, to > from)
	}
	drag.Release()
}
