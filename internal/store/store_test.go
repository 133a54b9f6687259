package store

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ajohnson23/runcoach/internal/models"
)

// openTestStore creates a Store backed by an in-memory sqlite database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSession_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.LoadSession(); ok {
		t.Fatal("fresh store should have no session")
	}

	s.SaveSession("tok123")
	tok, ok := s.LoadSession()
	if !ok || tok != "tok123" {
		t.Fatalf("LoadSession = %q, %v; want tok123, true", tok, ok)
	}

	s.ClearSession()
	if _, ok := s.LoadSession(); ok {
		t.Fatal("session should be absent after clear")
	}
}

func TestSession_SaveReplacesPrevious(t *testing.T) {
	s := openTestStore(t)

	s.SaveSession("first")
	s.SaveSession("second")

	tok, ok := s.LoadSession()
	if !ok || tok != "second" {
		t.Fatalf("LoadSession = %q, %v; want second, true", tok, ok)
	}

	var count int64
	s.db.Model(&models.Session{}).Count(&count)
	if count != 1 {
		t.Errorf("session rows = %d, want 1 (at most one active token)", count)
	}
}

func TestSession_SilentDegradeOnStorageError(t *testing.T) {
	s := openTestStore(t)
	s.SaveSession("tok")

	// Closing the connection makes every subsequent query fail; the session
	// API must degrade to "absent" without returning errors.
	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.Close()

	if _, ok := s.LoadSession(); ok {
		t.Error("LoadSession should report no session on storage error")
	}
	s.SaveSession("other") // must not panic
	s.ClearSession()       // must not panic
}

func TestLoadSession_LogsOnlyRealErrors(t *testing.T) {
	s := openTestStore(t)

	buf := new(bytes.Buffer)
	log.SetOutput(buf)
	defer log.SetOutput(os.Stderr)

	// No session row is the normal logged-out state and must stay quiet.
	if _, ok := s.LoadSession(); ok {
		t.Fatal("fresh store should have no session")
	}
	if buf.Len() != 0 {
		t.Errorf("absent session logged: %s", buf.String())
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.Close()

	if _, ok := s.LoadSession(); ok {
		t.Error("LoadSession should report no session on storage error")
	}
	if !strings.Contains(buf.String(), "load session") {
		t.Errorf("storage error not logged: %q", buf.String())
	}
}

func TestToken_MatchesSession(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Token(); ok {
		t.Fatal("Token should report absent before login")
	}
	s.SaveSession("bearer-me")
	tok, ok := s.Token()
	if !ok || tok != "bearer-me" {
		t.Fatalf("Token = %q, %v; want bearer-me, true", tok, ok)
	}
}

func TestMessages_ReplaceAndAppend(t *testing.T) {
	s := openTestStore(t)

	err := s.ReplaceMessages([]models.ChatMessage{
		{RemoteID: 1, Content: "Hi", FromUser: true},
		{RemoteID: 2, Content: "Hello runner!", FromUser: false},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := s.AppendMessage(&models.ChatMessage{RemoteID: 3, Content: "Thanks", FromUser: true, Pending: true}); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := s.Messages()
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	for i, want := range []string{"Hi", "Hello runner!", "Thanks"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d].Content = %q, want %q (append order preserved)", i, msgs[i].Content, want)
		}
	}
	if !msgs[2].Pending {
		t.Error("appended message should retain pending state")
	}
}

func TestMessages_ReplaceClearsOld(t *testing.T) {
	s := openTestStore(t)

	s.ReplaceMessages([]models.ChatMessage{{RemoteID: 1, Content: "old"}})
	s.ReplaceMessages([]models.ChatMessage{{RemoteID: 2, Content: "new"}})

	msgs, err := s.Messages()
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "new" {
		t.Errorf("msgs = %+v, want single 'new' entry", msgs)
	}
}

func TestWorkouts_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	err := s.ReplaceWorkouts([]models.Workout{
		{RemoteID: 10, Title: "Tempo run", ScheduledFor: "2026-09-01"},
		{RemoteID: 11, Title: "Long run", ScheduledFor: "2026-09-03", IsComplete: true},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	workouts, err := s.Workouts()
	if err != nil {
		t.Fatalf("workouts: %v", err)
	}
	if len(workouts) != 2 {
		t.Fatalf("len = %d, want 2", len(workouts))
	}
	if workouts[0].Title != "Tempo run" || workouts[1].IsComplete != true {
		t.Errorf("workouts = %+v", workouts)
	}
}

func TestNotifications_RecentNewestFirst(t *testing.T) {
	s := openTestStore(t)

	for _, title := range []string{"one", "two", "three"} {
		if err := s.RecordNotification(title, "body", "{}"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	ns, err := s.RecentNotifications(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(ns) != 2 {
		t.Fatalf("len = %d, want 2", len(ns))
	}
	if ns[0].Title != "three" || ns[1].Title != "two" {
		t.Errorf("order = %q, %q; want three, two", ns[0].Title, ns[1].Title)
	}
}

func TestDevice_Upsert(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Device(); ok {
		t.Fatal("fresh store should have no device record")
	}

	if err := s.SaveDevice("ExponentPushToken[abc]", true, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveDevice("ExponentPushToken[def]", true, true); err != nil {
		t.Fatalf("save again: %v", err)
	}

	dev, ok := s.Device()
	if !ok {
		t.Fatal("device record missing")
	}
	if dev.PushToken != "ExponentPushToken[def]" {
		t.Errorf("token = %q, want latest", dev.PushToken)
	}
}
