package portalengine

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "portal-test-secret"

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	app, err := New(SiteConfig{
		Name:          "Test Portal",
		URL:           "http://portal.test",
		DatabasePath:  filepath.Join(dir, "portal.db"),
		SnapshotPath:  filepath.Join(dir, "portal.json"),
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	app.Echo.Logger.SetOutput(io.Discard)
	t.Cleanup(func() { app.Close() })
	return app
}

// testClient drives the app through its HTTP stack, carrying cookies
// between requests the way a browser would.
type testClient struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, app *App) *testClient {
	return &testClient{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (tc *testClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	tc.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(tc.cookies, c.Name)
			continue
		}
		tc.cookies[c.Name] = c
	}
	return rec
}

// csrf fetches the admin page so the CSRF cookie is issued and returns
// the token to post back.
func (tc *testClient) csrf() string {
	tc.t.Helper()
	if c, ok := tc.cookies["_csrf"]; ok {
		return c.Value
	}
	rec := tc.do(http.MethodGet, "/admin", nil)
	if rec.Code != http.StatusOK {
		tc.t.Fatalf("GET /admin = %d, want 200", rec.Code)
	}
	c, ok := tc.cookies["_csrf"]
	if !ok {
		tc.t.Fatal("no _csrf cookie issued")
	}
	return c.Value
}

func (tc *testClient) login() {
	tc.t.Helper()
	form := url.Values{}
	form.Set("_csrf", tc.csrf())
	form.Set("password", testPassword)
	rec := tc.do(http.MethodPost, "/admin/login", form)
	if rec.Code != http.StatusSeeOther {
		tc.t.Fatalf("login = %d, want 303", rec.Code)
	}
}

// postAdmin submits the editor form with the CSRF token filled in.
func (tc *testClient) postAdmin(form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	form.Set("_csrf", tc.csrf())
	return tc.do(http.MethodPost, "/admin", form)
}

// baseForm builds the minimal fields every editor submit carries.
func baseForm(action string) url.Values {
	v := url.Values{}
	v.Set("action", action)
	v.Set("page_slug", "home")
	v.Set("page_title", "主页")
	v.Set("hero_present", "0")
	v.Set("section_count", "0")
	return v
}

func TestAdminShowsLoginWhenAnonymous(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)

	rec := tc.do(http.MethodGet, "/admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "管理登录") || !strings.Contains(body, `name="password"`) {
		t.Error("anonymous /admin should show the login prompt")
	}
	if strings.Contains(body, `id="editor"`) {
		t.Error("anonymous /admin must not show the editor")
	}
}

func TestAdminSubmitRedirectsWhenAnonymous(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)

	rec := tc.postAdmin(baseForm("save"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("anonymous submit = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Errorf("Location = %q, want /admin", loc)
	}
}

func TestAdminLoginFlow(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)

	form := url.Values{}
	form.Set("_csrf", tc.csrf())
	form.Set("password", "wrong")
	rec := tc.do(http.MethodPost, "/admin/login", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("wrong password = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "密码错误，请重试。") {
		t.Error("wrong password should flash an error")
	}

	tc.login()

	rec = tc.do(http.MethodGet, "/admin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin after login = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="editor"`) {
		t.Error("authenticated /admin should show the editor")
	}
	if !strings.Contains(body, `name="page_slug" value="home"`) {
		t.Error("editor should target the home page")
	}
	if !strings.Contains(body, "主页") {
		t.Error("page tabs should list the home page")
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)

	token := tc.csrf()
	for i := 0; i < 5; i++ {
		form := url.Values{}
		form.Set("_csrf", token)
		form.Set("password", "wrong")
		rec := tc.do(http.MethodPost, "/admin/login", form)
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d = %d, want 200", i+1, rec.Code)
		}
	}

	// The sixth attempt is blocked even with the right password.
	form := url.Values{}
	form.Set("_csrf", token)
	form.Set("password", testPassword)
	rec := tc.do(http.MethodPost, "/admin/login", form)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("limited attempt = %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "尝试次数过多") {
		t.Error("limited attempt should explain the lockout")
	}
}

func TestAdminBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	app, err := New(SiteConfig{
		DatabasePath:      filepath.Join(dir, "portal.db"),
		SnapshotPath:      filepath.Join(dir, "portal.json"),
		AdminPasswordHash: string(hash),
		SessionSecret:     "0123456789abcdef0123456789abcdef",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer app.Close()

	if !app.checkPassword(testPassword) {
		t.Error("configured hash should accept its password")
	}
	if app.checkPassword("wrong") {
		t.Error("configured hash should reject other passwords")
	}

	// The plaintext fallback is not consulted while a hash is set.
	app.Config.AdminPassword = "plain"
	if app.checkPassword("plain") {
		t.Error("plaintext password must be ignored while a hash is configured")
	}
}

func TestAdminSavePage(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := baseForm("save")
	form.Set("page_title", "新主页")
	form.Set("section_label", "面板")
	form.Set("hero_present", "1")
	form.Set("hero_title", "门户")
	form.Set("hero_chips", "a\nb")
	form.Set("footer", "页脚")
	form.Set("section_count", "1")
	form.Set("sections-0-variant", "text_plain")
	form.Set("sections-0-content", "正文内容")

	rec := tc.postAdmin(form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save = %d, want 303", rec.Code)
	}
	wantLoc := "/admin?slug=home&msg=" + url.QueryEscape("改动已保存。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("Location = %q, want %q", loc, wantLoc)
	}

	// Following the redirect shows the flash.
	rec = tc.do(http.MethodGet, rec.Header().Get("Location"), nil)
	if !strings.Contains(rec.Body.String(), "改动已保存。") {
		t.Error("redirect target should flash the save message")
	}

	doc, err := app.Store.GetPage("home")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if doc.PageTitle != "新主页" {
		t.Errorf("PageTitle = %q, want 新主页", doc.PageTitle)
	}
	if doc.Hero == nil || doc.Hero.Title != "门户" {
		t.Errorf("hero = %+v", doc.Hero)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Content != "正文内容" {
		t.Errorf("sections = %+v", doc.Sections)
	}

	// The public page serves the new content immediately.
	rec = tc.do(http.MethodGet, "/p/home", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /p/home = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "正文内容") {
		t.Error("public page should show the saved content")
	}
}

func TestAdminUnknownActionSaves(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := baseForm("frobnicate_42")
	form.Set("footer", "未知动作")
	rec := tc.postAdmin(form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("unknown action = %d, want 303 (save)", rec.Code)
	}

	doc, err := app.Store.GetPage("home")
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if doc.Footer != "未知动作" {
		t.Errorf("Footer = %q, unknown actions should save", doc.Footer)
	}
}

func TestAdminCreatePage(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := baseForm("create_page")
	form.Set("new_page_slug", "  Docs ")
	form.Set("new_page_title", "文档")
	rec := tc.postAdmin(form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create = %d, want 303", rec.Code)
	}
	wantLoc := "/admin?slug=docs&msg=" + url.QueryEscape("新页面已创建。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("Location = %q, want %q", loc, wantLoc)
	}
	if _, err := app.Store.GetPage("docs"); err != nil {
		t.Errorf("created page missing: %v", err)
	}

	// Duplicate slugs flash the error and stay on the current page.
	rec = tc.postAdmin(form)
	wantLoc = "/admin?slug=home&msg=" + url.QueryEscape("该 Slug 已存在。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("duplicate Location = %q, want %q", loc, wantLoc)
	}

	// Invalid slugs flash the validation message.
	form.Set("new_page_slug", "bad slug!")
	rec = tc.postAdmin(form)
	wantLoc = "/admin?slug=home&msg=" + url.QueryEscape("Slug 仅能包含小写字母、数字或连字符，且长度不超过 48。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("invalid Location = %q, want %q", loc, wantLoc)
	}
}

func TestAdminDeletePage(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	if err := app.Store.CreatePage("docs", "文档"); err != nil {
		t.Fatal(err)
	}

	form := baseForm("delete_page")
	form.Set("target_page_slug", "docs")
	rec := tc.postAdmin(form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete = %d, want 303", rec.Code)
	}
	wantLoc := "/admin?slug=home&msg=" + url.QueryEscape("页面已删除。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("Location = %q, want %q", loc, wantLoc)
	}

	// The last page cannot be deleted.
	form.Set("target_page_slug", "home")
	rec = tc.postAdmin(form)
	wantLoc = "/admin?slug=home&msg=" + url.QueryEscape("至少需要保留一个页面。")
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("last page Location = %q, want %q", loc, wantLoc)
	}
	if _, err := app.Store.GetPage("home"); err != nil {
		t.Errorf("home should survive: %v", err)
	}
}

func TestAdminAddSectionReRenders(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	rec := tc.postAdmin(baseForm("add_section"))
	if rec.Code != http.StatusOK {
		t.Fatalf("add_section = %d, want 200 re-render", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="section_count" value="1"`) {
		t.Error("re-render should count the new section")
	}
	if !strings.Contains(body, `name="sections-0-variant"`) {
		t.Error("re-render should include the new section's fields")
	}

	// Structural edits never touch the store.
	doc, err := app.Store.GetPage("home")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Sections) != 0 {
		t.Errorf("stored sections = %d, want 0", len(doc.Sections))
	}
}

// sectionsForm posts text sections with the given headings.
func sectionsForm(action string, headings ...string) url.Values {
	form := baseForm(action)
	form.Set("section_count", strconv.Itoa(len(headings)))
	for i, h := range headings {
		prefix := "sections-" + strconv.Itoa(i) + "-"
		form.Set(prefix+"variant", "text_plain")
		form.Set(prefix+"heading", h)
		form.Set(prefix+"content", "")
	}
	return form
}

func TestAdminDeleteSectionReRenders(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	rec := tc.postAdmin(sectionsForm("delete_section_0", "A", "B"))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete_section = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="section_count" value="1"`) {
		t.Error("one section should remain")
	}
	if !strings.Contains(body, `name="sections-0-heading" value="B"`) {
		t.Error("the remaining section should move to index 0")
	}
}

func TestAdminMoveSectionButtons(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	rec := tc.postAdmin(sectionsForm("move_section_down_0", "A", "B", "C"))
	body := rec.Body.String()
	if !strings.Contains(body, `name="sections-0-heading" value="B"`) ||
		!strings.Contains(body, `name="sections-1-heading" value="A"`) {
		t.Error("move_section_down_0 should order B A C")
	}

	rec = tc.postAdmin(sectionsForm("move_section_up_2", "A", "B", "C"))
	body = rec.Body.String()
	if !strings.Contains(body, `name="sections-1-heading" value="C"`) ||
		!strings.Contains(body, `name="sections-2-heading" value="B"`) {
		t.Error("move_section_up_2 should order A C B")
	}
}

func TestAdminDragSection(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	// A completed pointer drag posts the origin and resting index.
	rec := tc.postAdmin(sectionsForm("move_section_0_2", "A", "B", "C"))
	if rec.Code != http.StatusOK {
		t.Fatalf("drag = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for i, want := range []string{"B", "C", "A"} {
		probe := `name="sections-` + strconv.Itoa(i) + `-heading" value="` + want + `"`
		if !strings.Contains(body, probe) {
			t.Errorf("after drag, section %d should be %s", i, want)
		}
	}

	rec = tc.postAdmin(sectionsForm("move_section_2_0", "A", "B", "C"))
	body = rec.Body.String()
	for i, want := range []string{"C", "A", "B"} {
		probe := `name="sections-` + strconv.Itoa(i) + `-heading" value="` + want + `"`
		if !strings.Contains(body, probe) {
			t.Errorf("after upward drag, section %d should be %s", i, want)
		}
	}
}

// cardsForm posts one cards section holding the given card titles.
func cardsForm(action string, titles ...string) url.Values {
	form := baseForm(action)
	form.Set("section_count", "1")
	form.Set("sections-0-variant", "cards_horizontal")
	form.Set("sections-0-heading", "服务")
	form.Set("sections-0-card_count", strconv.Itoa(len(titles)))
	for j, title := range titles {
		form.Set("sections-0-cards-"+strconv.Itoa(j)+"-title", title)
	}
	return form
}

func TestAdminCardActions(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	rec := tc.postAdmin(cardsForm("add_card_0", "X"))
	body := rec.Body.String()
	if !strings.Contains(body, `name="sections-0-card_count" value="2"`) {
		t.Error("add_card_0 should append a card")
	}

	rec = tc.postAdmin(cardsForm("delete_card_0_0", "X", "Y"))
	body = rec.Body.String()
	if !strings.Contains(body, `name="sections-0-card_count" value="1"`) ||
		!strings.Contains(body, `name="sections-0-cards-0-title" value="Y"`) {
		t.Error("delete_card_0_0 should leave Y at index 0")
	}

	rec = tc.postAdmin(cardsForm("move_card_up_0_1", "X", "Y"))
	body = rec.Body.String()
	if !strings.Contains(body, `name="sections-0-cards-0-title" value="Y"`) {
		t.Error("move_card_up_0_1 should order Y X")
	}

	// Drag grammar: section, origin, resting index.
	rec = tc.postAdmin(cardsForm("move_card_0_0_2", "X", "Y", "Z"))
	body = rec.Body.String()
	for j, want := range []string{"Y", "Z", "X"} {
		probe := `name="sections-0-cards-` + strconv.Itoa(j) + `-title" value="` + want + `"`
		if !strings.Contains(body, probe) {
			t.Errorf("after card drag, card %d should be %s", j, want)
		}
	}

	// A resting index past the end lands the card at the end.
	rec = tc.postAdmin(cardsForm("move_card_0_0_99", "X", "Y"))
	body = rec.Body.String()
	if !strings.Contains(body, `name="sections-0-cards-1-title" value="X"`) {
		t.Error("past-end drag should land X at the end")
	}
}

func TestAdminMalformedActionReRenders(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	for _, action := range []string{
		"delete_section_zz",
		"delete_card_0",
		"move_section_5_9",
		"move_card_up_7_7",
		"move_section_x_y",
	} {
		form := sectionsForm(action, "A", "B")
		form.Set("footer", "不应保存")
		rec := tc.postAdmin(form)
		if rec.Code != http.StatusOK {
			t.Errorf("%s = %d, want 200 re-render", action, rec.Code)
			continue
		}
		body := rec.Body.String()
		if !strings.Contains(body, `name="sections-0-heading" value="A"`) ||
			!strings.Contains(body, `name="sections-1-heading" value="B"`) {
			t.Errorf("%s should leave the order unchanged", action)
		}
	}

	doc, err := app.Store.GetPage("home")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Footer == "不应保存" {
		t.Error("malformed structural actions must not save")
	}
}

func TestAdminHeroActions(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := baseForm("delete_hero")
	form.Set("hero_present", "1")
	form.Set("hero_title", "门户")
	rec := tc.postAdmin(form)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete_hero = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "标题区块已移除。") {
		t.Error("delete_hero should flash the removal message")
	}
	if !strings.Contains(body, `name="hero_present" value="0"`) {
		t.Error("hero_present should flip to 0")
	}

	rec = tc.postAdmin(baseForm("restore_hero"))
	body = rec.Body.String()
	if !strings.Contains(body, "已添加标题区块。") {
		t.Error("restore_hero should flash the restore message")
	}
	if !strings.Contains(body, `name="hero_present" value="1"`) {
		t.Error("hero_present should flip to 1")
	}
	if !strings.Contains(body, `name="hero_title" value="新建页面"`) {
		t.Error("restored hero should carry the default title")
	}
}

func TestAdminScrollRoundTrip(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := baseForm("add_section")
	form.Set("scroll_y", "250")
	rec := tc.postAdmin(form)
	if !strings.Contains(rec.Body.String(), `data-scroll-y="250"`) {
		t.Error("structural re-render should restore the scroll offset")
	}

	// Saving clears the offset; the next editor view starts at the top.
	save := baseForm("save")
	save.Set("scroll_y", "250")
	rec = tc.postAdmin(save)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save = %d, want 303", rec.Code)
	}
	rec = tc.do(http.MethodGet, "/admin", nil)
	if strings.Contains(rec.Body.String(), "data-scroll-y") {
		t.Error("save should not carry a scroll offset to the next view")
	}
}

func TestAdminUnknownSlugFallsBack(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	rec := tc.do(http.MethodGet, "/admin?slug=bogus", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin?slug=bogus = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="page_slug" value="home"`) {
		t.Error("unknown slug should fall back to the first page")
	}
}

func TestAdminLogout(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.login()

	form := url.Values{}
	form.Set("_csrf", tc.csrf())
	rec := tc.do(http.MethodPost, "/admin/logout", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout = %d, want 303", rec.Code)
	}

	rec = tc.do(http.MethodGet, "/admin", nil)
	if !strings.Contains(rec.Body.String(), "管理登录") {
		t.Error("after logout, /admin should show the login prompt")
	}
}

func TestCSRFProtectsAdminForms(t *testing.T) {
	app := newTestApp(t)
	tc := newTestClient(t, app)
	tc.csrf()

	form := url.Values{}
	form.Set("password", testPassword)
	rec := tc.do(http.MethodPost, "/admin/login", form)
	if rec.Code != http.StatusForbidden {
		t.Errorf("login without token = %d, want 403", rec.Code)
	}
}
