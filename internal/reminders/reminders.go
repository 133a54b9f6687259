// Package reminders turns the workout schedule into local notifications on a
// cron cadence.
package reminders

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ajohnson23/runcoach/internal/api"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun parses a 5-field cron expression and returns the next fire time
// after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("reminders: parse %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// Build composes a reminder for the workouts that are not yet complete.
// Returns false when everything is done.
func Build(workouts []api.Workout) (title, body string, data map[string]string, ok bool) {
	var pending []api.Workout
	for _, w := range workouts {
		if !w.IsComplete {
			pending = append(pending, w)
		}
	}
	if len(pending) == 0 {
		return "", "", nil, false
	}

	title = "Workout reminder"
	if len(pending) == 1 {
		body = pending[0].Title
		if pending[0].ScheduledFor != "" {
			body += " on " + pending[0].ScheduledFor
		}
	} else {
		body = fmt.Sprintf("%d workouts on your plan. Next up: %s", len(pending), pending[0].Title)
	}
	data = map[string]string{
		"type":  "workout_reminder",
		"count": strconv.Itoa(len(pending)),
	}
	return title, body, data, true
}

// Scheduler fetches workouts and sends reminder notifications. The fetch and
// send functions are injected so the scheduler stays decoupled from the API
// client and the push coordinator.
type Scheduler struct {
	Expr     string
	Workouts func(ctx context.Context) ([]api.Workout, error)
	Send     func(ctx context.Context, title, body string, data map[string]string) error
}

// RunOnce fetches the current workouts and sends one reminder if any are
// pending.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	workouts, err := s.Workouts(ctx)
	if err != nil {
		return fmt.Errorf("reminders: fetch workouts: %w", err)
	}
	title, body, data, ok := Build(workouts)
	if !ok {
		log.Printf("reminders: all workouts complete, nothing to send")
		return nil
	}
	if err := s.Send(ctx, title, body, data); err != nil {
		return fmt.Errorf("reminders: send: %w", err)
	}
	return nil
}

// Run loops forever, firing a reminder at each cron tick, until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next, err := NextRun(s.Expr, time.Now())
		if err != nil {
			return err
		}
		select {
		case <-time.After(time.Until(next)):
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("%v", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
