package analytics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portalengine/analytics/templates"
)

// Handler records page views and serves the dashboard.
type Handler struct {
	store *Store
}

// NewHandler wraps store for HTTP use.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RecordPageView stores one page view while the page request is being
// served. Bots and Do Not Track visitors are skipped. Failures are
// logged and never surface to the page request.
func (h *Handler) RecordPageView(c echo.Context, slug string) {
	req := c.Request()
	ua := req.UserAgent()
	if IsBot(ua) || req.Header.Get("DNT") == "1" {
		return
	}

	ip := c.RealIP()
	browser, os, device := ParseUserAgent(ua)
	visit := &Visit{
		VisitorID: GenerateVisitorID(ip, ua),
		IPHash:    HashIP(ip),
		Browser:   browser,
		OS:        os,
		Device:    device,
		Slug:      slug,
		Referrer:  CleanReferrer(req.Referer()),
		Timestamp: time.Now().UTC(),
	}
	if err := h.store.SaveVisit(visit); err != nil {
		c.Logger().Errorf("save visit: %v", err)
	}
}

// StatsResponse is the JSON document served by the stats endpoint.
type StatsResponse struct {
	Stats      *Stats `json:"stats"`
	Realtime   int    `json:"realtime"`
	PeriodDays int    `json:"period_days"`
}

// GetStats serves the aggregates for the requested period as JSON.
func (h *Handler) GetStats(c echo.Context) error {
	days, _ := parsePeriod(c.QueryParam("period"))
	from, to := statsWindow(time.Now().UTC(), days)

	stats, err := h.store.GetStats(from, to)
	if err != nil {
		c.Logger().Errorf("load stats: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
	}

	realtime, _ := h.store.GetRealtimeVisitors()

	return c.JSON(http.StatusOK, StatsResponse{
		Stats:      stats,
		Realtime:   realtime,
		PeriodDays: days,
	})
}

// Dashboard serves the analytics dashboard page.
func (h *Handler) Dashboard(c echo.Context) error {
	days, period := parsePeriod(c.QueryParam("period"))
	from, to := statsWindow(time.Now().UTC(), days)

	stats, err := h.store.GetStats(from, to)
	if err != nil {
		c.Logger().Errorf("load stats: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	realtime, _ := h.store.GetRealtimeVisitors()

	page := templates.Dashboard(convertStats(stats), realtime, period)
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return page.Render(c.Response().Writer)
}

// RegisterRoutes registers the dashboard and its JSON API behind the
// supplied auth middleware.
func (h *Handler) RegisterRoutes(e *echo.Echo, authMiddleware echo.MiddlewareFunc) {
	admin := e.Group("/admin/analytics", authMiddleware)
	admin.GET("", h.Dashboard)
	admin.GET("/api/stats", h.GetStats)
}

var periodDays = map[string]int{
	"today": 1,
	"week":  7,
	"month": 30,
	"year":  365,
}

// parsePeriod maps the period query parameter onto a day count,
// normalizing unknown values to a week.
func parsePeriod(period string) (int, string) {
	if days, ok := periodDays[period]; ok {
		return days, period
	}
	return 7, "week"
}

// statsWindow spans from UTC midnight days ago up to the coming
// midnight, so the current day is always counted in full.
func statsWindow(now time.Time, days int) (time.Time, time.Time) {
	day := 24 * time.Hour
	from := now.AddDate(0, 0, -days).Truncate(day)
	to := now.Truncate(day).Add(day)
	return from, to
}

// convertStats maps analytics.Stats onto the dashboard's view model.
func convertStats(stats *Stats) *templates.DashboardData {
	data := &templates.DashboardData{
		Period:         stats.Period,
		UniqueVisitors: stats.UniqueVisitors,
		TotalViews:     stats.TotalViews,
		Browsers:       convertBreakdown(stats.BrowserStats),
		Systems:        convertBreakdown(stats.OSStats),
		Devices:        convertBreakdown(stats.DeviceStats),
		Referrers:      convertBreakdown(stats.ReferrerStats),
	}

	data.TopPages = make([]templates.PageCount, len(stats.TopPages))
	for i, p := range stats.TopPages {
		data.TopPages[i] = templates.PageCount{Slug: p.Slug, Views: p.Views}
	}

	data.LatestVisits = make([]templates.VisitRow, len(stats.LatestVisits))
	for i, v := range stats.LatestVisits {
		data.LatestVisits[i] = templates.VisitRow{
			Slug:      v.Slug,
			Timestamp: v.Timestamp,
			Browser:   v.Browser,
		}
	}

	data.DailyViews = make([]templates.DayCount, len(stats.DailyViews))
	for i, v := range stats.DailyViews {
		data.DailyViews[i] = templates.DayCount{Date: v.Date, Views: v.Views}
	}

	return data
}

func convertBreakdown(stats []DimensionStat) []templates.Breakdown {
	result := make([]templates.Breakdown, len(stats))
	for i, s := range stats {
		result[i] = templates.Breakdown{Name: s.Name, Count: s.Count}
	}
	return result
}
