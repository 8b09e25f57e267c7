// Package analytics provides privacy-first page view counting for the
// portal. Visits are recorded server side while a page renders, so no
// client script runs and no cookie is set; visitors are identified by
// a salted hash that cannot be reversed to an IP address.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	saltOnce sync.Once
	hashSalt string
)

// InitSalt loads the per-installation hashing salt from the settings
// table, generating and persisting one on first run. Must be called
// once at startup before any requests are served.
func InitSalt(store *Store) error {
	var initErr error
	saltOnce.Do(func() {
		s, err := store.GetSetting("hash_salt")
		if err != nil {
			initErr = fmt.Errorf("load hash salt: %w", err)
			return
		}
		if s == "" {
			if s, err = newSalt(); err != nil {
				initErr = err
				return
			}
			if err := store.SetSetting("hash_salt", s); err != nil {
				initErr = fmt.Errorf("persist hash salt: %w", err)
				return
			}
		}
		hashSalt = s
	})
	return initErr
}

func newSalt() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// saltedHash derives a short stable identifier from the given parts.
func saltedHash(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(hashSalt))
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashIP anonymizes an IP address.
func HashIP(ip string) string {
	return saltedHash(ip)
}

// GenerateVisitorID derives the visitor identity from IP and
// User-Agent so the same person counts once across page views.
func GenerateVisitorID(ip, userAgent string) string {
	return saltedHash(ip, "|", userAgent)
}

// Visit is a single recorded page view.
type Visit struct {
	ID        int64
	VisitorID string
	IPHash    string
	Browser   string
	OS        string
	Device    string
	Slug      string
	Referrer  string
	Timestamp time.Time
}

// Stats holds aggregated analytics data for one period.
type Stats struct {
	Period         string          `json:"period"`
	UniqueVisitors int             `json:"unique_visitors"`
	TotalViews     int             `json:"total_views"`
	TopPages       []PageStat      `json:"top_pages"`
	LatestVisits   []LatestVisit   `json:"latest_visits"`
	BrowserStats   []DimensionStat `json:"browsers"`
	OSStats        []DimensionStat `json:"os"`
	DeviceStats    []DimensionStat `json:"devices"`
	ReferrerStats  []DimensionStat `json:"referrers"`
	DailyViews     []DailyView     `json:"daily_views"`
}

// PageStat counts views for one page.
type PageStat struct {
	Slug  string `json:"slug"`
	Views int    `json:"views"`
}

// LatestVisit is one row of the recent-visits feed.
type LatestVisit struct {
	Slug      string `json:"slug"`
	Timestamp string `json:"timestamp"`
	Browser   string `json:"browser"`
}

// DimensionStat is one row of a breakdown (browser, OS, device, referrer).
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView counts views on one calendar day.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// uaRule maps user-agent fragments onto a display label. Rules are
// checked in order, so specific fragments must precede generic ones.
type uaRule struct {
	label   string
	needles []string
}

var browserRules = []uaRule{
	{"Firefox", []string{"firefox"}},
	{"Opera", []string{"opera", "opr"}},
	{"Edge", []string{"edg"}},
	{"Chrome", []string{"chrome"}},
	{"Safari", []string{"safari"}},
}

// Android UAs contain "linux", so Android is matched first.
var osRules = []uaRule{
	{"Windows", []string{"windows"}},
	{"Android", []string{"android"}},
	{"iOS", []string{"iphone", "ipad"}},
	{"macOS", []string{"macintosh", "mac os"}},
	{"Linux", []string{"linux"}},
}

// iPad UAs contain "mobile", so Tablet is matched first.
var deviceRules = []uaRule{
	{"Tablet", []string{"tablet", "ipad"}},
	{"Mobile", []string{"mobile"}},
}

func classify(ua string, rules []uaRule, fallback string) string {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(ua, n) {
				return r.label
			}
		}
	}
	return fallback
}

// ParseUserAgent reduces a User-Agent string to browser, OS and
// device classes.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)
	browser = classify(ua, browserRules, "Other")
	os = classify(ua, osRules, "Other")
	device = classify(ua, deviceRules, "Desktop")
	return
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape", "googlebot",
	"bingbot", "yandex", "baidu", "duckduckbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "ahrefsbot", "semrushbot", "mj12bot",
	"dotbot",
}

// IsBot reports whether the User-Agent looks like a crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// knownReferrers collapses common traffic sources onto one label each,
// regardless of country domain or subpath.
var knownReferrers = []struct {
	fragment string
	label    string
}{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
}

var reReferrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/]+)`)

// CleanReferrer reduces a referrer URL to a source label: a known
// service, the bare domain, Direct for empty, Other for garbage.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	for _, k := range knownReferrers {
		if strings.Contains(lower, k.fragment) {
			return k.label
		}
	}
	if m := reReferrerDomain.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	return "Other"
}
