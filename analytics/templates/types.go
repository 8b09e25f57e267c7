// Package templates renders the analytics dashboard. The view model
// here mirrors the analytics aggregates so the two packages do not
// import each other.
package templates

// DashboardData carries everything one dashboard render needs.
type DashboardData struct {
	Period         string
	UniqueVisitors int
	TotalViews     int
	TopPages       []PageCount
	LatestVisits   []VisitRow
	Browsers       []Breakdown
	Systems        []Breakdown
	Devices        []Breakdown
	Referrers      []Breakdown
	DailyViews     []DayCount
}

// PageCount is one row of the top-pages table.
type PageCount struct {
	Slug  string
	Views int
}

// VisitRow is one row of the recent-visits table.
type VisitRow struct {
	Slug      string
	Timestamp string
	Browser   string
}

// Breakdown is one row of a browser, OS, device or referrer table.
type Breakdown struct {
	Name  string
	Count int
}

// DayCount is one row of the daily-views table.
type DayCount struct {
	Date  string
	Views int
}
