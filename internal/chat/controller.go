// Package chat implements the coach conversation controller: an ordered
// message log with optimistic local appends, reconciled against the
// backend's replies with a simulated typing delay.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/models"
)

// Typing delay bounds: the reply is revealed after 10ms per character,
// capped at 2 seconds.
const (
	typingDelayPerChar = 10 * time.Millisecond
	typingDelayMax     = 2 * time.Second
)

// State tags a message as locally created (awaiting nothing — the original
// never reconciles it) or confirmed by the server.
type State int

const (
	// Pending marks a message created locally on submit. Its id is a client
	// timestamp and is never matched against a server-assigned id.
	Pending State = iota
	// Confirmed marks a message that came from the backend.
	Confirmed
)

// Message is one entry of the in-memory conversation log.
type Message struct {
	ID        int64
	Content   string
	FromUser  bool
	State     State
	CreatedAt time.Time
}

// API is the slice of the backend client the controller needs.
type API interface {
	Messages(ctx context.Context) ([]api.Message, error)
	SendMessage(ctx context.Context, text string) (*api.Message, error)
}

// Cache persists the conversation locally so history survives offline runs.
// May be nil; cache failures are logged and never affect the log.
type Cache interface {
	ReplaceMessages(msgs []models.ChatMessage) error
	AppendMessage(msg *models.ChatMessage) error
}

// Controller owns the conversation log and the sending/typing flags. All
// mutations happen under one mutex, so concurrent Submit calls interleave at
// message granularity: within one call the reply always lands after its own
// optimistic append, across calls ordering follows completion order.
type Controller struct {
	api   API
	cache Cache

	mu       sync.Mutex
	log      []Message
	sending  bool
	typing   bool
	onChange func()

	sleep func(time.Duration) // replaced in tests
}

// New creates a Controller. cache may be nil.
func New(backend API, cache Cache) *Controller {
	return &Controller{
		api:   backend,
		cache: cache,
		sleep: time.Sleep,
	}
}

// OnChange registers a callback fired after every log or flag mutation. The
// callback runs outside the controller lock.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Seed replaces the log without touching the network, used to show cached
// history before the first fetch completes.
func (c *Controller) Seed(msgs []Message) {
	c.mu.Lock()
	c.log = append([]Message(nil), msgs...)
	c.mu.Unlock()
	c.notify()
}

// LoadHistory fetches the conversation and replaces the local log with the
// server's list. On failure the log keeps its previous value; the error is
// logged only.
func (c *Controller) LoadHistory(ctx context.Context) {
	msgs, err := c.api.Messages(ctx)
	if err != nil {
		log.Printf("chat: load history: %v", err)
		return
	}

	conv := make([]Message, len(msgs))
	for i, m := range msgs {
		conv[i] = fromAPI(m)
	}

	c.mu.Lock()
	c.log = conv
	c.mu.Unlock()
	c.notify()

	if c.cache != nil {
		rows := make([]models.ChatMessage, len(conv))
		for i, m := range conv {
			rows[i] = toRow(m)
		}
		if err := c.cache.ReplaceMessages(rows); err != nil {
			log.Printf("chat: cache history: %v", err)
		}
	}
}

// Submit sends a user message. Blank input is a no-op. The user message is
// appended optimistically before the network call and is never removed, even
// if the send fails; the coach reply is appended after a typing delay
// proportional to its length. Send failures are logged, not surfaced.
func (c *Controller) Submit(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	user := Message{
		ID:        time.Now().UnixMilli(),
		Content:   text,
		FromUser:  true,
		State:     Pending,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.log = append(c.log, user)
	c.sending = true
	c.typing = true
	c.mu.Unlock()
	c.notify()
	c.cacheAppend(user)

	reply, err := c.api.SendMessage(ctx, text)
	if err != nil {
		log.Printf("chat: send message: %v", err)
		c.mu.Lock()
		c.typing = false
		c.sending = false
		c.mu.Unlock()
		c.notify()
		return
	}

	c.sleep(typingDelay(len(reply.Content)))

	ai := fromAPI(*reply)
	c.mu.Lock()
	c.typing = false
	c.log = append(c.log, ai)
	c.sending = false
	c.mu.Unlock()
	c.notify()
	c.cacheAppend(ai)
}

// Log returns a copy of the conversation in append order.
func (c *Controller) Log() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.log...)
}

// Sending reports whether a submit is in flight.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Typing reports whether the typing indicator is showing.
func (c *Controller) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

// typingDelay computes the reveal delay for a reply of n characters.
func typingDelay(n int) time.Duration {
	d := time.Duration(n) * typingDelayPerChar
	if d > typingDelayMax {
		return typingDelayMax
	}
	return d
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) cacheAppend(m Message) {
	if c.cache == nil {
		return
	}
	row := toRow(m)
	if err := c.cache.AppendMessage(&row); err != nil {
		log.Printf("chat: cache message: %v", err)
	}
}

func fromAPI(m api.Message) Message {
	created, err := time.Parse(time.RFC3339, m.CreatedAt)
	if err != nil {
		created = time.Now()
	}
	return Message{
		ID:        m.ID,
		Content:   m.Content,
		FromUser:  m.IsUserMessage,
		State:     Confirmed,
		CreatedAt: created,
	}
}

func toRow(m Message) models.ChatMessage {
	return models.ChatMessage{
		RemoteID:  m.ID,
		Content:   m.Content,
		FromUser:  m.FromUser,
		Pending:   m.State == Pending,
		CreatedAt: m.CreatedAt,
	}
}

// FromRow converts a cached row back into a log entry, used when seeding
// from the local database.
func FromRow(row models.ChatMessage) Message {
	state := Confirmed
	if row.Pending {
		state = Pending
	}
	return Message{
		ID:        row.RemoteID,
		Content:   row.Content,
		FromUser:  row.FromUser,
		State:     state,
		CreatedAt: row.CreatedAt,
	}
}
