package templates

import (
	"strconv"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Dashboard renders the standalone analytics dashboard. The page is
// self-contained so it works without the portal's public stylesheets.
func Dashboard(data *DashboardData, realtime int, period string) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("zh-CN"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text("访问统计")),
				StyleEl(g.Raw(dashboardCSS)),
			),
			Body(
				Main(Class("dashboard"),
					Header(Class("dashboard-header"),
						H1(g.Text("访问统计")),
						periodNav(period),
					),
					P(Class("dashboard-meta"),
						g.Textf("当前在线 %d · 统计区间 %s", realtime, data.Period),
					),
					Section(Class("totals"),
						totalCard("独立访客", data.UniqueVisitors),
						totalCard("浏览量", data.TotalViews),
					),
					Section(Class("grid"),
						countTable("每日浏览量", "日期", dailyRows(data.DailyViews)),
						countTable("热门页面", "页面", pageRows(data.TopPages)),
						countTable("浏览器", "名称", data.Browsers),
						countTable("操作系统", "名称", data.Systems),
						countTable("设备", "名称", data.Devices),
						countTable("来源", "名称", data.Referrers),
					),
					latestTable(data.LatestVisits),
				),
			),
		),
	})
}

func periodNav(active string) g.Node {
	type option struct {
		value string
		label string
	}
	options := []option{
		{"today", "今天"},
		{"week", "本周"},
		{"month", "本月"},
		{"year", "全年"},
	}
	return Nav(Class("periods"), g.Map(options, func(o option) g.Node {
		class := "period"
		if o.value == active {
			class += " period-active"
		}
		return A(Class(class), Href("/admin/analytics?period="+o.value), g.Text(o.label))
	}))
}

func totalCard(label string, value int) g.Node {
	return Div(Class("total"),
		Span(Class("total-label"), g.Text(label)),
		Span(Class("total-value"), g.Text(strconv.Itoa(value))),
	)
}

func countTable(title, header string, rows []Breakdown) g.Node {
	return Div(Class("panel"),
		H2(g.Text(title)),
		g.If(len(rows) == 0, P(Class("empty"), g.Text("暂无数据"))),
		g.If(len(rows) > 0, Table(
			THead(Tr(Th(g.Text(header)), Th(g.Text("次数")))),
			TBody(g.Map(rows, func(r Breakdown) g.Node {
				return Tr(Td(g.Text(r.Name)), Td(g.Text(strconv.Itoa(r.Count))))
			})),
		)),
	)
}

func latestTable(visits []VisitRow) g.Node {
	if len(visits) == 0 {
		return Div(Class("panel"),
			H2(g.Text("最近访问")),
			P(Class("empty"), g.Text("暂无数据")),
		)
	}
	return Div(Class("panel"),
		H2(g.Text("最近访问")),
		Table(
			THead(Tr(Th(g.Text("时间")), Th(g.Text("页面")), Th(g.Text("浏览器")))),
			TBody(g.Map(visits, func(v VisitRow) g.Node {
				return Tr(Td(g.Text(v.Timestamp)), Td(g.Text(v.Slug)), Td(g.Text(v.Browser)))
			})),
		),
	)
}

func dailyRows(views []DayCount) []Breakdown {
	rows := make([]Breakdown, len(views))
	for i, v := range views {
		rows[i] = Breakdown{Name: v.Date, Count: v.Views}
	}
	return rows
}

func pageRows(pages []PageCount) []Breakdown {
	rows := make([]Breakdown, len(pages))
	for i, p := range pages {
		rows[i] = Breakdown{Name: p.Slug, Count: p.Views}
	}
	return rows
}

const dashboardCSS = `
body {
  margin: 0;
  background: #f5f6f8;
  color: #1f2430;
  font-family: -apple-system, "Segoe UI", "PingFang SC", "Hiragino Sans GB",
    "Noto Sans CJK SC", "Microsoft YaHei", sans-serif;
  line-height: 1.5;
}
.dashboard {
  max-width: 960px;
  margin: 0 auto;
  padding: 2rem 1.25rem 4rem;
}
.dashboard-header {
  display: flex;
  align-items: center;
  justify-content: space-between;
  gap: 1rem;
}
.dashboard-header h1 {
  margin: 0;
  font-size: 1.4rem;
}
.periods {
  display: flex;
  gap: 0.4rem;
}
.period {
  padding: 0.3rem 0.8rem;
  border: 1px solid #e3e6eb;
  border-radius: 999px;
  background: #fff;
  color: #5c6470;
  text-decoration: none;
  font-size: 0.88rem;
}
.period-active {
  border-color: #2563eb;
  background: #2563eb;
  color: #fff;
}
.dashboard-meta {
  color: #5c6470;
  font-size: 0.9rem;
}
.totals {
  display: flex;
  gap: 1rem;
  margin-bottom: 1.25rem;
}
.total {
  flex: 1;
  background: #fff;
  border: 1px solid #e3e6eb;
  border-radius: 10px;
  padding: 1rem 1.25rem;
}
.total-label {
  display: block;
  color: #5c6470;
  font-size: 0.85rem;
}
.total-value {
  font-size: 1.8rem;
  font-weight: 600;
}
.grid {
  display: grid;
  grid-template-columns: repeat(auto-fill, minmax(280px, 1fr));
  gap: 1rem;
  margin-bottom: 1rem;
}
.panel {
  background: #fff;
  border: 1px solid #e3e6eb;
  border-radius: 10px;
  padding: 1rem 1.25rem;
}
.panel h2 {
  margin: 0 0 0.75rem;
  font-size: 1rem;
}
.panel table {
  width: 100%;
  border-collapse: collapse;
  font-size: 0.88rem;
}
.panel th,
.panel td {
  text-align: left;
  padding: 0.3rem 0.4rem;
  border-bottom: 1px solid #eef0f3;
}
.panel th {
  color: #5c6470;
  font-weight: 500;
}
.panel td:last-child,
.panel th:last-child {
  text-align: right;
}
.empty {
  color: #5c6470;
  font-size: 0.88rem;
}
`
