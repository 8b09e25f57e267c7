package portalengine

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/eringen/portalengine/page"
)

// ErrNotFound is returned when a page does not exist.
var ErrNotFound = sql.ErrNoRows

// ErrSlugExists and ErrLastPage carry the admin-facing message verbatim;
// the admin handler flashes err.Error() back at the editor.
var (
	ErrSlugExists = errors.New("该 Slug 已存在。")
	ErrLastPage   = errors.New("至少需要保留一个页面。")
)

// Store wraps a SQLite database holding page documents and mirrors
// every write into a JSON snapshot file.
type Store struct {
	db           *sql.DB
	snapshotPath string
}

// NewStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, runs schema migrations and seeds an empty
// database from the snapshot file at snapshotPath.
func NewStore(path, snapshotPath string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers run while the editor writes. The busy timeout
	// queues writers instead of failing with SQLITE_BUSY; under WAL,
	// synchronous=NORMAL skips the per-transaction fsync safely.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA mmap_size=268435456;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, snapshotPath: snapshotPath}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the page database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    data TEXT NOT NULL
);
`)
	return err
}

// seed populates an empty database: every page found in the snapshot
// file is restored, otherwise the default home page is created. The
// snapshot is rewritten afterwards so file and database agree.
func (s *Store) seed() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	restored, err := s.restoreSnapshot()
	if err != nil {
		return err
	}
	if !restored {
		if err := s.insertPage("home", "主页", page.SeedDocument()); err != nil {
			return err
		}
	}
	return s.ExportSnapshot()
}

type snapshotPage struct {
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

type snapshotFile struct {
	Pages map[string]snapshotPage `json:"pages"`
}

func (s *Store) restoreSnapshot() (bool, error) {
	raw, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Snapshots that are valid JSON but not an object (an old
		// array dump, say) fall back to the default seed. Broken JSON
		// is a real error.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return false, nil
		}
		return false, err
	}
	if len(snap.Pages) > 0 {
		for slug, entry := range snap.Pages {
			doc, err := page.MigrateLegacy(entry.Data)
			if err != nil {
				return false, err
			}
			if err := s.insertPage(slug, entry.Title, doc); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	// A bare document without the pages wrapper becomes the home page.
	doc, err := page.MigrateLegacy(raw)
	if err != nil {
		return false, err
	}
	return true, s.insertPage("home", "主页", doc)
}

func (s *Store) insertPage(slug, title string, doc page.Document) error {
	data, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO pages (slug, title, data) VALUES (?, ?, ?)`, slug, title, data)
	return err
}

// ListPages returns every page ordered by title.
func (s *Store) ListPages() ([]page.Summary, error) {
	rows, err := s.db.Query(`SELECT slug, title FROM pages ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []page.Summary
	for rows.Next() {
		var p page.Summary
		if err := rows.Scan(&p.Slug, &p.Title); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetPage returns the stored document for slug with its display title
// filled in, or ErrNotFound.
func (s *Store) GetPage(slug string) (page.Document, error) {
	var title, data string
	err := s.db.QueryRow(`SELECT title, data FROM pages WHERE slug = ?`, slug).Scan(&title, &data)
	if err != nil {
		return page.Document{}, err
	}
	doc, err := page.MigrateLegacy([]byte(data))
	if err != nil {
		return page.Document{}, err
	}
	doc.PageTitle = title
	return doc, nil
}

// SavePage upserts the document stored under slug and refreshes the
// snapshot file.
func (s *Store) SavePage(slug, title string, doc page.Document) error {
	doc.Normalize()
	data, err := marshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO pages (slug, title, data) VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET title = excluded.title, data = excluded.data`,
		slug, title, data)
	if err != nil {
		return err
	}
	return s.ExportSnapshot()
}

// CreatePage validates slug, rejects duplicates and stores a fresh
// document. An empty title falls back to the slug.
func (s *Store) CreatePage(slug, title string) error {
	if err := page.ValidateSlug(slug); err != nil {
		return err
	}
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE slug = ?`, slug).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return ErrSlugExists
	}
	displayTitle := title
	if displayTitle == "" {
		displayTitle = slug
	}
	return s.SavePage(slug, displayTitle, page.NewDocument(displayTitle))
}

// DeletePage removes a page. The last remaining page cannot be
// deleted.
func (s *Store) DeletePage(slug string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastPage
	}
	if _, err := s.db.Exec(`DELETE FROM pages WHERE slug = ?`, slug); err != nil {
		return err
	}
	return s.ExportSnapshot()
}

// ExportSnapshot writes the whole pages table to the snapshot file as
// one indented JSON document.
func (s *Store) ExportSnapshot() error {
	rows, err := s.db.Query(`SELECT slug, title, data FROM pages ORDER BY title`)
	if err != nil {
		return err
	}
	defer rows.Close()

	snap := snapshotFile{Pages: make(map[string]snapshotPage)}
	for rows.Next() {
		var slug, title, data string
		if err := rows.Scan(&slug, &title, &data); err != nil {
			return err
		}
		snap.Pages[slug] = snapshotPage{Title: title, Data: json.RawMessage(data)}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return err
	}
	return os.WriteFile(s.snapshotPath, buf.Bytes(), 0o644)
}

// marshalDocument renders stored page JSON: two-space indent, no HTML
// escaping. The stored payload never carries pageTitle; that field is
// injected when a document is served.
func marshalDocument(doc page.Document) (string, error) {
	doc.PageTitle = ""
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
