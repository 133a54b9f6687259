package devserver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ajohnson23/runcoach/internal/api"
)

// state is the in-memory backing store for the development server. One
// account, one conversation, one plan. Everything resets on restart.
type state struct {
	mu sync.Mutex

	user     api.User
	email    string
	password string
	tokens   map[string]bool

	nextID    int64
	messages  []api.Message
	workouts  []api.Workout
	plan      api.TrainingPlan
	pushToken string
}

func newState() *state {
	s := &state{
		user:     api.User{ID: 1, Name: "Dev Runner", Email: "dev@runcoach.local"},
		email:    "dev@runcoach.local",
		password: "password",
		tokens:   make(map[string]bool),
		nextID:   100,
		plan: api.TrainingPlan{
			ID:          1,
			Name:        "10K Base Building",
			Goal:        "Finish a 10K under 55 minutes",
			StartDate:   "2026-08-03",
			EndDate:     "2026-10-25",
			WeeklyMiles: 22,
		},
	}
	s.workouts = []api.Workout{
		{ID: 1, Title: "Easy run", Description: "4 miles conversational pace", ScheduledFor: "2026-08-31"},
		{ID: 2, Title: "Tempo run", Description: "2x10min at threshold", ScheduledFor: "2026-09-02"},
		{ID: 3, Title: "Long run", Description: "8 miles steady", ScheduledFor: "2026-09-05"},
	}
	s.messages = []api.Message{
		{ID: 1, Content: "Welcome back! How did your last run feel?", IsUserMessage: false, CreatedAt: time.Now().UTC().Format(time.RFC3339)},
	}
	return s
}

func (s *state) issueToken() string {
	tok := fmt.Sprintf("dev-%d", time.Now().UnixNano())
	s.tokens[tok] = true
	return tok
}

func (s *state) validToken(tok string) bool {
	return s.tokens[tok]
}

func (s *state) appendMessage(content string, fromUser bool) api.Message {
	s.nextID++
	m := api.Message{
		ID:            s.nextID,
		Content:       content,
		IsUserMessage: fromUser,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	s.messages = append(s.messages, m)
	return m
}

// pickUser builds the registered account, defaulting the display name.
func pickUser(id int64, name, email string) api.User {
	if name == "" {
		name = "Runner"
	}
	return api.User{ID: id, Name: name, Email: email}
}

// coachReply fakes the coaching model with keyword-matched canned answers.
func coachReply(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "tired") || strings.Contains(lower, "sore"):
		return "Listen to your body. Swap today for an easy recovery jog and hydrate well."
	case strings.Contains(lower, "pace"):
		return "Keep easy runs truly easy. Your tempo pace should feel comfortably hard, around 8:50/mi."
	case strings.Contains(lower, "plan"):
		return "Your plan has three sessions this week. The long run on Saturday is the priority."
	default:
		return "Got it. Stay consistent this week and focus on your easy pace discipline."
	}
}
