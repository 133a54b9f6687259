package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/models"
)

// mockAPI implements API with scripted responses.
type mockAPI struct {
	mu       sync.Mutex
	messages []api.Message
	listErr  error
	reply    *api.Message
	sendErr  error
	sent     []string
}

func (m *mockAPI) Messages(ctx context.Context) ([]api.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]api.Message(nil), m.messages...), nil
}

func (m *mockAPI) SendMessage(ctx context.Context, text string) (*api.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	reply := *m.reply
	return &reply, nil
}

// mockCache records cache calls.
type mockCache struct {
	mu       sync.Mutex
	replaced [][]models.ChatMessage
	appended []models.ChatMessage
}

func (m *mockCache) ReplaceMessages(msgs []models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced = append(m.replaced, msgs)
	return nil
}

func (m *mockCache) AppendMessage(msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended = append(m.appended, *msg)
	return nil
}

// newTestController wires a controller with an instant sleep that records
// the requested delay.
func newTestController(backend API, cache Cache) (*Controller, *time.Duration) {
	c := New(backend, cache)
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept = d }
	return c, &slept
}

func TestSubmit_OptimisticAppendThenReply(t *testing.T) {
	backend := &mockAPI{reply: &api.Message{ID: 42, Content: "Hello runner!", IsUserMessage: false}}
	c, slept := newTestController(backend, nil)

	c.Submit(context.Background(), "Hi")

	msgs := c.Log()
	if len(msgs) != 2 {
		t.Fatalf("log length = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "Hi" || !msgs[0].FromUser || msgs[0].State != Pending {
		t.Errorf("optimistic message = %+v", msgs[0])
	}
	if msgs[1].Content != "Hello runner!" || msgs[1].FromUser || msgs[1].State != Confirmed {
		t.Errorf("reply = %+v", msgs[1])
	}
	// "Hello runner!" is 13 characters: 130ms typing delay.
	if *slept != 130*time.Millisecond {
		t.Errorf("typing delay = %v, want 130ms", *slept)
	}
	if c.Sending() || c.Typing() {
		t.Error("sending/typing should be clear after submit completes")
	}
}

func TestSubmit_BlankInputIsNoOp(t *testing.T) {
	backend := &mockAPI{reply: &api.Message{Content: "unused"}}
	c, _ := newTestController(backend, nil)

	c.Submit(context.Background(), "")
	c.Submit(context.Background(), "   ")
	c.Submit(context.Background(), "\n\t")

	if got := len(c.Log()); got != 0 {
		t.Errorf("log length = %d, want 0", got)
	}
	if c.Sending() || c.Typing() {
		t.Error("blank submit must not touch sending/typing")
	}
	if len(backend.sent) != 0 {
		t.Errorf("blank submit reached the network: %v", backend.sent)
	}
}

func TestSubmit_FailureKeepsOptimisticMessage(t *testing.T) {
	backend := &mockAPI{sendErr: fmt.Errorf("connection refused")}
	c, _ := newTestController(backend, nil)

	c.Submit(context.Background(), "Hi")

	msgs := c.Log()
	if len(msgs) != 1 {
		t.Fatalf("log length = %d, want exactly the optimistic message", len(msgs))
	}
	if msgs[0].Content != "Hi" || msgs[0].State != Pending {
		t.Errorf("message = %+v", msgs[0])
	}
	if c.Typing() {
		t.Error("typing must clear on failure")
	}
	if c.Sending() {
		t.Error("sending must clear on failure")
	}
}

func TestSubmit_LogGrowsMonotonically(t *testing.T) {
	backend := &mockAPI{reply: &api.Message{ID: 1, Content: "ok"}}
	c, _ := newTestController(backend, nil)

	prev := 0
	inputs := []string{"one", "two", "three"}
	for i, in := range inputs {
		if i == 2 {
			backend.mu.Lock()
			backend.sendErr = fmt.Errorf("flaky")
			backend.mu.Unlock()
		}
		c.Submit(context.Background(), in)
		got := len(c.Log())
		if got < prev+1 {
			t.Fatalf("after submit %d: log length = %d, want at least %d", i, got, prev+1)
		}
		prev = got
	}
}

func TestSubmit_TypingWindow(t *testing.T) {
	backend := &mockAPI{reply: &api.Message{ID: 1, Content: "12345"}} // 50ms delay
	c := New(backend, nil)

	var typingDuringDelay bool
	var replyVisibleDuringDelay bool
	c.sleep = func(d time.Duration) {
		typingDuringDelay = c.Typing()
		replyVisibleDuringDelay = len(c.Log()) > 1
		time.Sleep(d)
	}

	start := time.Now()
	c.Submit(context.Background(), "Hi")
	elapsed := time.Since(start)

	if !typingDuringDelay {
		t.Error("typing should be true inside the delay window")
	}
	if replyVisibleDuringDelay {
		t.Error("reply must not appear before the delay elapses")
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("reply appended after %v, want at least 50ms", elapsed)
	}
	if c.Typing() {
		t.Error("typing should be false outside the delay window")
	}
}

func TestTypingDelay_Capped(t *testing.T) {
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 0},
		{13, 130 * time.Millisecond},
		{200, 2 * time.Second},
		{5000, 2 * time.Second},
	}
	for _, tc := range cases {
		if got := typingDelay(tc.n); got != tc.want {
			t.Errorf("typingDelay(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestLoadHistory_ReplacesLog(t *testing.T) {
	backend := &mockAPI{messages: []api.Message{
		{ID: 1, Content: "Hi", IsUserMessage: true, CreatedAt: "2026-08-01T10:00:00Z"},
		{ID: 2, Content: "Hello runner!", IsUserMessage: false, CreatedAt: "2026-08-01T10:00:05Z"},
	}}
	c, _ := newTestController(backend, nil)
	c.Seed([]Message{{ID: 99, Content: "stale"}})

	c.LoadHistory(context.Background())

	msgs := c.Log()
	if len(msgs) != 2 {
		t.Fatalf("log length = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "Hi" || msgs[1].Content != "Hello runner!" {
		t.Errorf("log = %+v", msgs)
	}
	if msgs[0].State != Confirmed {
		t.Error("server history entries should be Confirmed")
	}
}

func TestLoadHistory_FailureLeavesLog(t *testing.T) {
	backend := &mockAPI{listErr: fmt.Errorf("connection refused")}
	c, _ := newTestController(backend, nil)
	c.Seed([]Message{{ID: 1, Content: "cached", State: Confirmed}})

	c.LoadHistory(context.Background())

	msgs := c.Log()
	if len(msgs) != 1 || msgs[0].Content != "cached" {
		t.Errorf("log = %+v, want untouched cached entry", msgs)
	}
}

func TestCacheWriteThrough(t *testing.T) {
	backend := &mockAPI{
		messages: []api.Message{{ID: 1, Content: "Hi", IsUserMessage: true}},
		reply:    &api.Message{ID: 2, Content: "ok", IsUserMessage: false},
	}
	cache := &mockCache{}
	c, _ := newTestController(backend, cache)

	c.LoadHistory(context.Background())
	c.Submit(context.Background(), "again")

	if len(cache.replaced) != 1 || len(cache.replaced[0]) != 1 {
		t.Errorf("replaced = %+v, want one replace of one row", cache.replaced)
	}
	if len(cache.appended) != 2 {
		t.Fatalf("appended = %d rows, want optimistic + reply", len(cache.appended))
	}
	if !cache.appended[0].Pending || !cache.appended[0].FromUser {
		t.Errorf("first appended row = %+v, want pending user message", cache.appended[0])
	}
	if cache.appended[1].Pending || cache.appended[1].FromUser {
		t.Errorf("second appended row = %+v, want confirmed coach reply", cache.appended[1])
	}
}

func TestOnChange_FiredOnMutations(t *testing.T) {
	backend := &mockAPI{reply: &api.Message{ID: 1, Content: "ok"}}
	c, _ := newTestController(backend, nil)

	var calls int
	c.OnChange(func() { calls++ })

	c.Submit(context.Background(), "Hi")
	if calls < 2 {
		t.Errorf("onChange calls = %d, want at least optimistic + reply", calls)
	}

	calls = 0
	c.Submit(context.Background(), "  ")
	if calls != 0 {
		t.Errorf("onChange calls = %d for blank submit, want 0", calls)
	}
}

func TestFromRow_RoundTrip(t *testing.T) {
	row := models.ChatMessage{RemoteID: 7, Content: "Hi", FromUser: true, Pending: true}
	m := FromRow(row)
	if m.ID != 7 || !m.FromUser || m.State != Pending {
		t.Errorf("FromRow = %+v", m)
	}

	back := toRow(m)
	if back.RemoteID != 7 || !back.Pending || !back.FromUser {
		t.Errorf("toRow = %+v", back)
	}
}
