package store

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solenne/iris/internal/domain"
	"github.com/solenne/iris/internal/logging"
	"github.com/solenne/iris/internal/topics"
)

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "silent")
}

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB / migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db.SQL())
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate())

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

// --- Storage backend tests ---

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	s := NewSQLiteStorage(testDB(t))

	_, ok, err := s.Get(KeySession)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeySession, []byte(`{"id":"abc"}`)))
	data, ok, err := s.Get(KeySession)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"abc"}`, string(data))

	require.NoError(t, s.Set(KeySession, []byte(`{"id":"def"}`)))
	data, _, _ = s.Get(KeySession)
	assert.JSONEq(t, `{"id":"def"}`, string(data))

	require.NoError(t, s.Delete(KeySession))
	_, ok, err = s.Get(KeySession)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorage_RoundTrip(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Get(KeyPreferences)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyPreferences, []byte(`{"voice":"alloy"}`)))
	data, ok, err := s.Get(KeyPreferences)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "alloy")

	require.NoError(t, s.Delete(KeyPreferences))
	require.NoError(t, s.Delete(KeyPreferences)) // absent key is not an error
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	s := NewMemoryStorage()
	val := []byte("original")
	require.NoError(t, s.Set("k", val))
	val[0] = 'X'

	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "original", string(got))
}

// failingStorage simulates unavailable storage (private browsing, quota).
type failingStorage struct{}

var errStorageDown = errors.New("storage unavailable")

func (failingStorage) Get(string) ([]byte, bool, error) { return nil, false, errStorageDown }
func (failingStorage) Set(string, []byte) error         { return errStorageDown }
func (failingStorage) Delete(string) error              { return errStorageDown }

// --- SessionStore tests ---

func newTestStore(storage Storage) *SessionStore {
	return NewSessionStore(storage, topics.Extract, Options{}, testLogger())
}

func TestGetSession_ColdStart(t *testing.T) {
	s := newTestStore(NewMemoryStorage())

	sess := s.GetSession()
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.Messages)

	info := s.SessionInfo()
	assert.False(t, info.HasHistory)
	assert.Zero(t, info.MessageCount)
}

func TestGetSession_StableAcrossReads(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	first := s.GetSession()
	second := s.GetSession()
	assert.Equal(t, first.ID, second.ID)
}

func TestGetSession_CorruptStoredSession(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(KeySession, []byte("{nope")))

	s := newTestStore(storage)
	sess := s.GetSession()
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
}

func TestGetSession_ExpiredSessionReplaced(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(storage)

	old := s.GetSession()

	// Jump the clock past the idle timeout.
	s.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	fresh := s.GetSession()
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Empty(t, fresh.Messages)
}

func TestGetSession_StorageUnavailable(t *testing.T) {
	s := newTestStore(failingStorage{})

	sess := s.GetSession()
	require.NotNil(t, sess)

	// Mutations keep working against the ephemeral in-memory session.
	updated := s.AddMessage(domain.RoleUser, "hello", "/")
	assert.Len(t, updated.Messages, 1)
	assert.Equal(t, sess.ID, updated.ID)
}

func TestAddMessage_MessageCap(t *testing.T) {
	s := newTestStore(NewMemoryStorage())

	for i := 0; i < 60; i++ {
		s.AddMessage(domain.RoleUser, fmt.Sprintf("message %d", i), "/")
	}

	history := s.ConversationHistory(50)
	require.Len(t, history, 50)
	// Exactly the most recent 50, in original order.
	assert.Equal(t, "message 10", history[0].Content)
	assert.Equal(t, "message 59", history[49].Content)
}

func TestAddMessage_TopicMerge(t *testing.T) {
	s := newTestStore(NewMemoryStorage())

	s.AddMessage(domain.RoleUser, "Tell me about your projects", "/")
	s.AddMessage(domain.RoleUser, "What about your research", "/")

	sess := s.GetSession()
	assert.Equal(t, []string{"projects", "research"}, sess.TopicsDiscussed)

	// Repeating a topic must not duplicate it.
	s.AddMessage(domain.RoleUser, "more about projects please", "/")
	sess = s.GetSession()
	assert.Equal(t, []string{"projects", "research"}, sess.TopicsDiscussed)
}

func TestAddMessage_AssistantRoleSkipsTopics(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	s.AddMessage(domain.RoleAssistant, "I have many projects to show you", "/")
	assert.Empty(t, s.GetSession().TopicsDiscussed)
}

func TestAddMessage_AssignsStableIDs(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	sess := s.AddMessage(domain.RoleUser, "hi", "/about")

	require.Len(t, sess.Messages, 1)
	msg := sess.Messages[0]
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "/about", msg.PageContext)
}

func TestUpdateMessage_ByID(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	s.AddMessage(domain.RoleUser, "question", "/")
	sess := s.AddMessage(domain.RoleAssistant, "", "/")
	placeholder := sess.Messages[len(sess.Messages)-1]

	require.True(t, s.UpdateMessage(placeholder.ID, "full answer"))

	msgs := s.GetSession().Messages
	assert.Equal(t, "full answer", msgs[len(msgs)-1].Content)
	assert.Equal(t, "question", msgs[0].Content, "other messages untouched")

	assert.False(t, s.UpdateMessage("no-such-id", "x"))
}

func TestAttachSuggestion(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	sess := s.AddMessage(domain.RoleAssistant, "answer", "/")
	id := sess.Messages[0].ID

	sug := &domain.Suggestion{Kind: domain.SuggestionNavigate, Text: "See the projects", Target: "/projects"}
	require.True(t, s.AttachSuggestion(id, sug))

	got := s.GetSession().Messages[0].Suggestion
	require.NotNil(t, got)
	assert.Equal(t, "/projects", got.Target)
}

func TestRemoveMessage_RetractsPlaceholder(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	s.AddMessage(domain.RoleUser, "question", "/")
	sess := s.AddMessage(domain.RoleAssistant, "", "/")
	id := sess.Messages[1].ID

	require.True(t, s.RemoveMessage(id))
	msgs := s.GetSession().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "question", msgs[0].Content)

	assert.False(t, s.RemoveMessage(id), "already removed")
}

func TestConversationHistory_DefaultLimit(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	for i := 0; i < 15; i++ {
		s.AddMessage(domain.RoleUser, fmt.Sprintf("m%d", i), "/")
	}
	history := s.ConversationHistory(0)
	require.Len(t, history, 10)
	assert.Equal(t, "m5", history[0].Content)
}

func TestNavigationHistory_DedupAndCap(t *testing.T) {
	s := newTestStore(NewMemoryStorage())

	s.AddToNavigationHistory("/projects")
	s.AddToNavigationHistory("/projects")
	assert.Equal(t, []string{"/projects"}, s.GetSession().NavigationHistory)

	for i := 0; i < 25; i++ {
		s.AddToNavigationHistory(fmt.Sprintf("/page-%d", i))
	}
	nav := s.GetSession().NavigationHistory
	require.Len(t, nav, 20)
	assert.Equal(t, "/page-5", nav[0])
	assert.Equal(t, "/page-24", nav[19])
}

func TestNavigationHistory_NonConsecutiveDuplicatesKept(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	s.AddToNavigationHistory("/a")
	s.AddToNavigationHistory("/b")
	s.AddToNavigationHistory("/a")
	assert.Equal(t, []string{"/a", "/b", "/a"}, s.GetSession().NavigationHistory)
}

func TestClearMessages_PreservesSession(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	before := s.AddMessage(domain.RoleUser, "hello", "/")

	s.ClearMessages()
	after := s.GetSession()
	assert.Equal(t, before.ID, after.ID)
	assert.Empty(t, after.Messages)
}

func TestResetSession_NewIDCarriesPreferences(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	old := s.GetSession()

	voice := "nova"
	s.SavePreferences(domain.PreferencesUpdate{Voice: &voice})

	fresh := s.ResetSession()
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Empty(t, fresh.Messages)
	assert.Equal(t, "nova", fresh.UserPreferences.Voice)
}

func TestSessionInfo_HasHistory(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	s.AddMessage(domain.RoleAssistant, "greeting", "/")
	assert.False(t, s.SessionInfo().HasHistory, "the greeting alone is not history")

	s.AddMessage(domain.RoleUser, "hi", "/")
	assert.True(t, s.SessionInfo().HasHistory)
}

func TestPreferences_DefaultsOnFirstRead(t *testing.T) {
	s := newTestStore(NewMemoryStorage())
	p := s.Preferences()
	assert.True(t, p.SoundEnabled)
	assert.True(t, p.AutoPlay)
	assert.True(t, p.ShowTranscript)
	assert.Equal(t, domain.DefaultVoice, p.Voice)
}

func TestPreferences_PartialMerge(t *testing.T) {
	s := newTestStore(NewMemoryStorage())

	off := false
	merged := s.SavePreferences(domain.PreferencesUpdate{SoundEnabled: &off})
	assert.False(t, merged.SoundEnabled)
	assert.Equal(t, domain.DefaultVoice, merged.Voice, "unsupplied keys keep their values")

	// Persisted: a new store over the same storage sees the merge.
	storage := NewMemoryStorage()
	s2 := newTestStore(storage)
	s2.SavePreferences(domain.PreferencesUpdate{SoundEnabled: &off})
	s3 := newTestStore(storage)
	assert.False(t, s3.Preferences().SoundEnabled)
}

func TestPreferences_StorageUnavailable(t *testing.T) {
	s := newTestStore(failingStorage{})
	p := s.Preferences()
	assert.Equal(t, domain.DefaultPreferences(), p)
}

func TestSessionPersistence_AcrossStores(t *testing.T) {
	storage := NewMemoryStorage()

	s1 := newTestStore(storage)
	s1.AddMessage(domain.RoleUser, "remember me", "/")
	id := s1.GetSession().ID

	s2 := newTestStore(storage)
	sess := s2.GetSession()
	assert.Equal(t, id, sess.ID)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "remember me", sess.Messages[0].Content)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "5m", formatDuration(5*time.Minute))
	assert.Equal(t, "1h 10m", formatDuration(70*time.Minute))
}
