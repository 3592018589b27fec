package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solenne/iris/internal/domain"
	"github.com/solenne/iris/internal/logging"
)

// TopicExtractor maps a user utterance to topic tags. Injected so the
// session store stays decoupled from the topic table.
type TopicExtractor func(text string) []string

// Options tune session lifecycle limits. Zero values fall back to the
// domain defaults.
type Options struct {
	IdleTimeout          time.Duration
	MaxMessages          int
	MaxNavigationEntries int
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = domain.SessionIdleTimeout
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = domain.MaxSessionMessages
	}
	if o.MaxNavigationEntries <= 0 {
		o.MaxNavigationEntries = domain.MaxNavigationEntries
	}
	return o
}

// SessionStore owns the Session and Preferences entities. All reads and
// mutations of persisted assistant state go through it; other components
// only ever receive snapshots.
//
// Storage faults are contained here: if the backing Storage fails, the
// store degrades to an in-memory ephemeral session and never surfaces the
// fault to callers. Multiple processes sharing one storage race last-write-
// wins; that is a documented limitation, not a guarded case.
type SessionStore struct {
	storage Storage
	extract TopicExtractor
	opts    Options
	log     *logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	current *domain.Session     // in-memory copy, authoritative when storage fails
	prefs   *domain.Preferences // cached preferences for the same fallback
	dirty   bool                // last persist failed; memory copy is ahead of storage
}

// NewSessionStore creates a session store on top of the given storage.
func NewSessionStore(storage Storage, extract TopicExtractor, opts Options, log *logging.Logger) *SessionStore {
	return &SessionStore{
		storage: storage,
		extract: extract,
		opts:    opts.withDefaults(),
		log:     log.Sub("session"),
		now:     time.Now,
	}
}

// GetSession returns the current valid session, creating one if absent or
// expired. It never fails: read or parse errors fall back to a fresh
// session (corruption is non-fatal, data loss is acceptable).
func (s *SessionStore) GetSession() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.getLocked())
}

// SaveSession persists a full session snapshot, stamping LastActivity.
func (s *SessionStore) SaveSession(sess *domain.Session) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snapshot(sess)
	s.saveLocked()
}

// AddMessage appends a message, applies the message cap, and for user
// messages merges newly extracted topics. Returns the updated session.
func (s *SessionStore) AddMessage(role, content, pageContext string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	sess.Messages = append(sess.Messages, domain.Message{
		ID:          uuid.New().String(),
		Role:        role,
		Content:     content,
		Timestamp:   s.now(),
		PageContext: pageContext,
	})
	if excess := len(sess.Messages) - s.opts.MaxMessages; excess > 0 {
		sess.Messages = append([]domain.Message(nil), sess.Messages[excess:]...)
	}

	if role == domain.RoleUser && s.extract != nil {
		sess.TopicsDiscussed = mergeTopics(sess.TopicsDiscussed, s.extract(content))
	}

	s.saveLocked()
	return snapshot(sess)
}

// ConversationHistory returns the most recent limit messages, stripped of
// metadata, in chronological order. limit <= 0 defaults to 10.
func (s *SessionStore) ConversationHistory(limit int) []domain.HistoryEntry {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.getLocked().Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.HistoryEntry{Role: m.Role, Content: m.Content})
	}
	return out
}

// AddToNavigationHistory records a page visit. Consecutive duplicates are
// collapsed and the history is capped at the most recent entries.
func (s *SessionStore) AddToNavigationHistory(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	nav := sess.NavigationHistory
	if len(nav) > 0 && nav[len(nav)-1] == path {
		return
	}
	nav = append(nav, path)
	if excess := len(nav) - s.opts.MaxNavigationEntries; excess > 0 {
		nav = append([]string(nil), nav[excess:]...)
	}
	sess.NavigationHistory = nav
	s.saveLocked()
}

// UpdateMessage replaces the content of the message with the given ID.
// Returns false if no such message exists (it may have been evicted by the
// message cap).
func (s *SessionStore) UpdateMessage(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	for i := range sess.Messages {
		if sess.Messages[i].ID == id {
			sess.Messages[i].Content = content
			s.saveLocked()
			return true
		}
	}
	return false
}

// AttachSuggestion sets the inline suggestion on the message with the
// given ID.
func (s *SessionStore) AttachSuggestion(id string, sug *domain.Suggestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	for i := range sess.Messages {
		if sess.Messages[i].ID == id {
			sess.Messages[i].Suggestion = sug
			s.saveLocked()
			return true
		}
	}
	return false
}

// RemoveMessage deletes the message with the given ID, used to retract a
// pending placeholder after a failed turn.
func (s *SessionStore) RemoveMessage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	for i := range sess.Messages {
		if sess.Messages[i].ID == id {
			sess.Messages = append(sess.Messages[:i:i], sess.Messages[i+1:]...)
			s.saveLocked()
			return true
		}
	}
	return false
}

// ClearMessages empties the message list, preserving everything else.
func (s *SessionStore) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	sess.Messages = nil
	s.saveLocked()
}

// ResetSession creates a brand-new session, carrying forward the current
// preferences. Returns the new session.
func (s *SessionStore) ResetSession() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = s.newSessionLocked()
	s.saveLocked()
	return snapshot(s.current)
}

// SessionInfo returns the display projection of the current session.
func (s *SessionStore) SessionInfo() domain.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getLocked()
	return domain.SessionInfo{
		Duration:     formatDuration(s.now().Sub(sess.StartTime)),
		MessageCount: len(sess.Messages),
		TopicCount:   len(sess.TopicsDiscussed),
		HasHistory:   len(sess.Messages) > 1,
		CurrentPage:  sess.CurrentPage(),
		Topics:       append([]string(nil), sess.TopicsDiscussed...),
	}
}

// Preferences returns the visitor preferences, creating defaults on first
// read if absent.
func (s *SessionStore) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferencesLocked()
}

// SavePreferences applies a partial update and persists immediately.
// Returns the merged preferences.
func (s *SessionStore) SavePreferences(update domain.PreferencesUpdate) domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.preferencesLocked().Merge(update)
	s.prefs = &merged

	data, err := json.Marshal(merged)
	if err == nil {
		if err := s.storage.Set(KeyPreferences, data); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist preferences, keeping in memory")
		}
	}
	return merged
}

// --- internals ---

// getLocked returns the live in-memory session, loading or creating one as
// needed. Callers must hold s.mu and must snapshot before returning the
// session to the outside.
func (s *SessionStore) getLocked() *domain.Session {
	// A failed write means storage holds stale data; the memory copy wins
	// until a persist succeeds again.
	if s.dirty && s.current != nil && !s.current.Expired(s.opts.IdleTimeout, s.now()) {
		return s.current
	}

	loaded := s.loadLocked()
	if loaded != nil && !loaded.Expired(s.opts.IdleTimeout, s.now()) {
		s.current = loaded
		return s.current
	}
	if loaded == nil && s.current != nil && !s.current.Expired(s.opts.IdleTimeout, s.now()) {
		// Storage unavailable: keep serving the ephemeral session.
		return s.current
	}

	s.current = s.newSessionLocked()
	s.saveLocked()
	return s.current
}

// loadLocked reads the persisted session. Returns nil on absence, storage
// failure, or corruption — all of which are non-fatal.
func (s *SessionStore) loadLocked() *domain.Session {
	data, ok, err := s.storage.Get(KeySession)
	if err != nil {
		s.log.Debug().Err(err).Msg("session storage read failed")
		return nil
	}
	if !ok {
		return nil
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.ID == "" {
		s.log.Warn().Err(err).Msg("stored session is corrupt, starting fresh")
		return nil
	}
	return &sess
}

func (s *SessionStore) newSessionLocked() *domain.Session {
	now := s.now()
	sess := &domain.Session{
		ID:              uuid.New().String(),
		StartTime:       now,
		LastActivity:    now,
		UserPreferences: s.preferencesLocked(),
	}
	s.log.Debug().Str("sessionId", sess.ID).Msg("new session created")
	return sess
}

func (s *SessionStore) saveLocked() {
	if s.current == nil {
		return
	}
	s.current.LastActivity = s.now()

	data, err := json.Marshal(s.current)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal session")
		return
	}
	if err := s.storage.Set(KeySession, data); err != nil {
		s.dirty = true
		s.log.Debug().Err(err).Msg("session persistence failed, continuing in memory")
		return
	}
	s.dirty = false
}

func (s *SessionStore) preferencesLocked() domain.Preferences {
	if s.prefs != nil {
		return *s.prefs
	}

	data, ok, err := s.storage.Get(KeyPreferences)
	if err == nil && ok {
		var p domain.Preferences
		if err := json.Unmarshal(data, &p); err == nil && p.Voice != "" {
			s.prefs = &p
			return p
		}
	}

	defaults := domain.DefaultPreferences()
	s.prefs = &defaults
	if data, err := json.Marshal(defaults); err == nil {
		if err := s.storage.Set(KeyPreferences, data); err != nil {
			s.log.Debug().Err(err).Msg("preferences persistence failed")
		}
	}
	return defaults
}

// snapshot deep-copies a session so callers never hold a live reference
// into the store.
func snapshot(sess *domain.Session) *domain.Session {
	if sess == nil {
		return nil
	}
	out := *sess
	out.Messages = append([]domain.Message(nil), sess.Messages...)
	out.TopicsDiscussed = append([]string(nil), sess.TopicsDiscussed...)
	out.NavigationHistory = append([]string(nil), sess.NavigationHistory...)
	return &out
}

// mergeTopics appends new topics, deduplicated, preserving first-seen order.
func mergeTopics(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range incoming {
		if !seen[t] {
			existing = append(existing, t)
			seen[t] = true
		}
	}
	return existing
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
