package reminders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ajohnson23/runcoach/internal/api"
)

func TestNextRun_DailyAtSeven(t *testing.T) {
	from := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	next, err := NextRun("0 7 * * *", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestNextRun_InvalidExpression(t *testing.T) {
	if _, err := NextRun("not a cron", time.Now()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuild_SinglePendingWorkout(t *testing.T) {
	title, body, data, ok := Build([]api.Workout{
		{ID: 1, Title: "Tempo run", ScheduledFor: "2026-09-01"},
		{ID: 2, Title: "Recovery jog", IsComplete: true},
	})
	if !ok {
		t.Fatal("expected a reminder")
	}
	if title != "Workout reminder" {
		t.Errorf("title = %q", title)
	}
	if body != "Tempo run on 2026-09-01" {
		t.Errorf("body = %q", body)
	}
	if data["count"] != "1" || data["type"] != "workout_reminder" {
		t.Errorf("data = %v", data)
	}
}

func TestBuild_MultiplePending(t *testing.T) {
	_, body, data, ok := Build([]api.Workout{
		{ID: 1, Title: "Tempo run"},
		{ID: 2, Title: "Long run"},
		{ID: 3, Title: "Intervals"},
	})
	if !ok {
		t.Fatal("expected a reminder")
	}
	if body != "3 workouts on your plan. Next up: Tempo run" {
		t.Errorf("body = %q", body)
	}
	if data["count"] != "3" {
		t.Errorf("count = %q", data["count"])
	}
}

func TestBuild_AllComplete(t *testing.T) {
	_, _, _, ok := Build([]api.Workout{
		{ID: 1, Title: "Tempo run", IsComplete: true},
	})
	if ok {
		t.Error("no reminder expected when everything is complete")
	}
}

func TestBuild_NoWorkouts(t *testing.T) {
	if _, _, _, ok := Build(nil); ok {
		t.Error("no reminder expected for an empty schedule")
	}
}

func TestRunOnce_SendsReminder(t *testing.T) {
	var sentTitle, sentBody string
	s := &Scheduler{
		Workouts: func(ctx context.Context) ([]api.Workout, error) {
			return []api.Workout{{ID: 1, Title: "Hill repeats"}}, nil
		},
		Send: func(ctx context.Context, title, body string, data map[string]string) error {
			sentTitle, sentBody = title, body
			return nil
		},
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if sentTitle != "Workout reminder" || sentBody != "Hill repeats" {
		t.Errorf("sent = %q / %q", sentTitle, sentBody)
	}
}

func TestRunOnce_NothingPendingSkipsSend(t *testing.T) {
	sent := false
	s := &Scheduler{
		Workouts: func(ctx context.Context) ([]api.Workout, error) {
			return []api.Workout{{ID: 1, Title: "Done", IsComplete: true}}, nil
		},
		Send: func(ctx context.Context, title, body string, data map[string]string) error {
			sent = true
			return nil
		},
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if sent {
		t.Error("send should be skipped when nothing is pending")
	}
}

func TestRunOnce_FetchError(t *testing.T) {
	s := &Scheduler{
		Workouts: func(ctx context.Context) ([]api.Workout, error) {
			return nil, fmt.Errorf("connection refused")
		},
		Send: func(ctx context.Context, title, body string, data map[string]string) error {
			return nil
		},
	}
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := &Scheduler{
		Expr: "0 7 * * *",
		Workouts: func(ctx context.Context) ([]api.Workout, error) {
			return nil, nil
		},
		Send: func(ctx context.Context, title, body string, data map[string]string) error {
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
