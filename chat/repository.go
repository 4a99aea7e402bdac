package chat

import (
	"errors"
	"sync"

	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
	"github.com/aloneprofessor1-oss/MADDI/stores"
)

var ErrSessionNotFound = errors.New("session not found")

// Repository owns the in-memory session collection, the active-session
// pointer, and user settings. Every mutation is serialized under one mutex
// and write-through saved to the persistent store. Persistence failures are
// logged and swallowed: in-memory state stays authoritative for the rest of
// the process lifetime.
type Repository struct {
	mu       sync.Mutex
	store    stores.KVStore
	sessions []*ChatSession
	activeID string
	settings UserSettings

	onChange func()
}

func NewRepository(store stores.KVStore) *Repository {
	return &Repository{
		store:    store,
		settings: DefaultSettings(),
	}
}

// OnChange registers a hook invoked after every committed mutation, outside
// the repository lock. Used by the presentation layer to re-render.
func (r *Repository) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Repository) notify() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Load hydrates state from the store, defaulting anything absent or
// corrupt. A repository with no persisted sessions starts with one fresh
// session; an active pointer referencing a missing session is repaired.
func (r *Repository) Load() {
	r.mu.Lock()

	var sessions []*ChatSession
	if err := r.store.Load(KeySessions, &sessions); err != nil {
		if !errors.Is(err, stores.ErrNotFound) {
			logger.Warnf("Failed to load sessions: %v", err)
		}
		sessions = nil
	}
	r.sessions = sessions

	var activeID string
	if err := r.store.Load(KeyActiveSession, &activeID); err == nil {
		r.activeID = activeID
	}

	settings := DefaultSettings()
	if err := r.store.Load(KeySettings, &settings); err == nil {
		settings.Clamp()
	} else {
		settings = DefaultSettings()
	}
	r.settings = settings

	if len(r.sessions) == 0 {
		r.insertSessionLocked(NewSession())
	}
	if r.findLocked(r.activeID) == nil {
		r.activeID = r.sessions[0].ID
		r.saveActiveLocked()
	}

	r.mu.Unlock()
	r.notify()
}

func (r *Repository) findLocked(id string) *ChatSession {
	for _, s := range r.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (r *Repository) insertSessionLocked(s *ChatSession) {
	r.sessions = append([]*ChatSession{s}, r.sessions...)
	r.activeID = s.ID
	r.saveSessionsLocked()
	r.saveActiveLocked()
}

// CreateSession inserts a new session at the front of the collection and
// makes it active.
func (r *Repository) CreateSession() *ChatSession {
	r.mu.Lock()
	s := NewSession()
	r.insertSessionLocked(s)
	snapshot := *s
	r.mu.Unlock()
	r.notify()
	return &snapshot
}

// DeleteSession removes the session. When the active session is deleted the
// first remaining one becomes active; deleting the last session leaves a
// fresh one in its place, created after the delete has been committed.
func (r *Repository) DeleteSession(id string) error {
	r.mu.Lock()
	idx := -1
	for i, s := range r.sessions {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return ErrSessionNotFound
	}

	r.sessions = append(r.sessions[:idx], r.sessions[idx+1:]...)
	wasActive := r.activeID == id
	if wasActive {
		r.activeID = ""
		if len(r.sessions) > 0 {
			r.activeID = r.sessions[0].ID
		}
	}
	r.saveSessionsLocked()
	r.saveActiveLocked()

	respawn := len(r.sessions) == 0
	if respawn {
		// The delete is committed above; the replacement is a separate
		// mutation so the two updates never interleave.
		r.insertSessionLocked(NewSession())
	}
	r.mu.Unlock()
	r.notify()
	return nil
}

// SetActive repoints the active-session pointer.
func (r *Repository) SetActive(id string) error {
	r.mu.Lock()
	if r.findLocked(id) == nil {
		r.mu.Unlock()
		return ErrSessionNotFound
	}
	r.activeID = id
	r.saveActiveLocked()
	r.mu.Unlock()
	r.notify()
	return nil
}

// AppendMessage appends to the session's message sequence. Appending to a
// session that no longer exists is a no-op; the prior message count is
// returned so callers can apply first-message rules.
func (r *Repository) AppendMessage(sessionID string, msg Message) (prior int, ok bool) {
	r.mu.Lock()
	s := r.findLocked(sessionID)
	if s == nil {
		r.mu.Unlock()
		return 0, false
	}
	prior = len(s.Messages)
	s.Messages = append(s.Messages, msg)
	r.saveSessionsLocked()
	r.mu.Unlock()
	r.notify()
	return prior, true
}

// SetTitle renames a session.
func (r *Repository) SetTitle(sessionID, title string) {
	r.mu.Lock()
	if s := r.findLocked(sessionID); s != nil {
		s.Title = title
		r.saveSessionsLocked()
	}
	r.mu.Unlock()
	r.notify()
}

// AttachAudio populates a message's audio reference after synthesis
// completes. The base message is immutable otherwise.
func (r *Repository) AttachAudio(sessionID, messageID, audioURL string) {
	r.mu.Lock()
	if s := r.findLocked(sessionID); s != nil {
		for i := range s.Messages {
			if s.Messages[i].ID == messageID {
				s.Messages[i].AudioURL = audioURL
				r.saveSessionsLocked()
				break
			}
		}
	}
	r.mu.Unlock()
	r.notify()
}

// Message returns a copy of one message.
func (r *Repository) Message(sessionID, messageID string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.findLocked(sessionID)
	if s == nil {
		return Message{}, false
	}
	for _, m := range s.Messages {
		if m.ID == messageID {
			return m, true
		}
	}
	return Message{}, false
}

// Sessions returns a snapshot of the collection in order.
func (r *Repository) Sessions() []ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChatSession, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = *s
		out[i].Messages = append([]Message(nil), s.Messages...)
	}
	return out
}

// Active returns a snapshot of the active session.
func (r *Repository) Active() (ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.findLocked(r.activeID)
	if s == nil {
		return ChatSession{}, false
	}
	snapshot := *s
	snapshot.Messages = append([]Message(nil), s.Messages...)
	return snapshot, true
}

func (r *Repository) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

func (r *Repository) Settings() UserSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// UpdateSettings applies fn to the settings, clamps the result, and
// persists it.
func (r *Repository) UpdateSettings(fn func(*UserSettings)) UserSettings {
	r.mu.Lock()
	fn(&r.settings)
	r.settings.Clamp()
	r.saveSettingsLocked()
	out := r.settings
	r.mu.Unlock()
	r.notify()
	return out
}

// Flush forces a synchronous save of all three records. Called on shutdown
// and by the periodic maintenance job.
func (r *Repository) Flush() {
	r.mu.Lock()
	r.saveSessionsLocked()
	r.saveActiveLocked()
	r.saveSettingsLocked()
	r.mu.Unlock()
}

// Reconcile replaces in-memory state wholesale with what another process
// wrote to the store. Last-writer-wins at record granularity, never a
// per-field merge.
func (r *Repository) Reconcile(key string) {
	r.mu.Lock()
	switch key {
	case KeySessions:
		var sessions []*ChatSession
		if err := r.store.Load(KeySessions, &sessions); err == nil {
			r.sessions = sessions
			if len(r.sessions) == 0 {
				r.insertSessionLocked(NewSession())
			}
			if r.findLocked(r.activeID) == nil {
				r.activeID = r.sessions[0].ID
			}
		}
	case KeyActiveSession:
		var activeID string
		if err := r.store.Load(KeyActiveSession, &activeID); err == nil {
			if r.findLocked(activeID) != nil {
				r.activeID = activeID
			}
		}
	case KeySettings:
		var settings UserSettings
		if err := r.store.Load(KeySettings, &settings); err == nil {
			settings.Clamp()
			r.settings = settings
		}
	}
	r.mu.Unlock()
	r.notify()
}

// WatchStore consumes the store's external-change channel until it is
// drained. Call in a goroutine; returns immediately when the store has no
// notifier.
func (r *Repository) WatchStore() {
	ch := r.store.Changes()
	if ch == nil {
		return
	}
	for key := range ch {
		logger.Infof("External write detected for %q, reconciling", key)
		r.Reconcile(key)
	}
}

func (r *Repository) saveSessionsLocked() {
	if err := r.store.Save(KeySessions, r.sessions); err != nil {
		logger.Errorf("Failed to save sessions: %v", err)
	}
}

func (r *Repository) saveActiveLocked() {
	if err := r.store.Save(KeyActiveSession, r.activeID); err != nil {
		logger.Errorf("Failed to save active session pointer: %v", err)
	}
}

func (r *Repository) saveSettingsLocked() {
	if err := r.store.Save(KeySettings, r.settings); err != nil {
		logger.Errorf("Failed to save settings: %v", err)
	}
}
