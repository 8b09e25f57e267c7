package editor

import (
	"strconv"
	"strings"
	"sync"
)

// ScrollStore remembers scroll offsets between submits, keyed per
// page. Implementations are free to drop writes when their backing
// storage is unavailable; reads on missing keys report ok false. A
// nil store degrades every operation to a no-op.
type ScrollStore interface {
	Get(key string) (value string, ok bool)
	Set(key, value string)
	Remove(key string)
}

// Session carries the per-request editing state the submit flow
// needs: the form, the scroll store, and the bookkeeping that
// identifies the triggering control when no explicit submitter is
// known.
type Session struct {
	Form        *Form
	Store       ScrollStore
	LastClicked string
	Focused     string
}

// NewSession pairs a form with a scroll store.
func NewSession(form *Form, store ScrollStore) *Session {
	return &Session{Form: form, Store: store}
}

func scrollKey(slug string) string {
	return "admin-scroll-" + slug
}

// Submitter resolves the control value that triggered the submit: the
// explicit submitter when present, else the last clicked action
// button, else the focused control when it belongs to the form.
func (s *Session) Submitter(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if s.LastClicked != "" {
		return s.LastClicked
	}
	if s.Focused != "" && s.Form.HasAction(s.Focused) {
		return s.Focused
	}
	return ""
}

// InterceptSubmit runs once before a submit is carried out: the form
// is reindexed to cover last-moment edits, the triggering action is
// resolved, and the scroll offset is remembered for structural
// actions that keep the operator on the page, or cleared otherwise.
// It returns the resolved action value.
func (s *Session) InterceptSubmit(explicit string, scrollY int) string {
	s.Form.Reindex()
	action := s.Submitter(explicit)
	key := scrollKey(s.Form.Slug)
	if s.preservesScroll(action) {
		s.set(key, strconv.Itoa(scrollY))
	} else {
		s.remove(key)
	}
	return action
}

// preservesScroll classifies actions whose response re-renders the
// same form: add, delete and move verbs, plus buttons flagged as
// scroll preserving.
func (s *Session) preservesScroll(action string) bool {
	if action == "" {
		return false
	}
	verb := reTrailingIndex.ReplaceAllString(action, "")
	if strings.HasPrefix(verb, "add_") || strings.HasPrefix(verb, "delete_") ||
		strings.HasPrefix(verb, "move_") {
		return true
	}
	if b := s.Form.findButton(action); b != nil && b.Preserve {
		return true
	}
	return false
}

// RestoreScroll pops the remembered offset for the session's page.
// The offset is cleared on read, so it restores once. Missing or
// non-numeric values report ok false.
func (s *Session) RestoreScroll() (int, bool) {
	key := scrollKey(s.Form.Slug)
	raw, ok := s.get(key)
	if !ok {
		return 0, false
	}
	s.remove(key)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Session) get(key string) (string, bool) {
	if s.Store == nil {
		return "", false
	}
	return s.Store.Get(key)
}

func (s *Session) set(key, value string) {
	if s.Store == nil {
		return
	}
	s.Store.Set(key, value)
}

func (s *Session) remove(key string) {
	if s.Store == nil {
		return
	}
	s.Store.Remove(key)
}

// MemoryStore is a ScrollStore held in process memory.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]string)
	}
	s.m[key] = value
}

func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}
